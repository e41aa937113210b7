package sql

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/kkpjssks/queuectl/job"
)

type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`
	Id            string `bun:"id,pk"`
	Command       string `bun:"command,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Status     job.Status `bun:"status,notnull,default:0"`
	Attempts   uint32     `bun:"attempts,notnull,default:0"`
	MaxRetries uint32     `bun:"max_retries,notnull"`
	RunAt      time.Time  `bun:"run_at,notnull"`
}

func (jm *jobModel) toJob() *job.Job {
	return &job.Job{
		Id:         jm.Id,
		Command:    jm.Command,
		CreatedAt:  jm.CreatedAt,
		UpdatedAt:  jm.UpdatedAt,
		Status:     jm.Status,
		Attempts:   jm.Attempts,
		MaxRetries: jm.MaxRetries,
		RunAt:      jm.RunAt,
	}
}

func fromSpec(id, command string, maxRetries uint32) *jobModel {
	now := time.Now()
	return fromSpecWithCreatedAt(id, command, maxRetries, now)
}

// fromSpecWithCreatedAt builds a fresh pending jobModel the way
// fromSpec does, except CreatedAt is taken from the caller instead of
// the current time. Used by RetryDLQ, which must preserve the
// original CreatedAt of the job being reinstated from the dlq table.
func fromSpecWithCreatedAt(id, command string, maxRetries uint32, createdAt time.Time) *jobModel {
	now := time.Now()
	return &jobModel{
		Id:         id,
		Command:    command,
		CreatedAt:  createdAt,
		UpdatedAt:  now,
		Status:     job.Pending,
		Attempts:   0,
		MaxRetries: maxRetries,
		RunAt:      now,
	}
}

type dlqModel struct {
	bun.BaseModel `bun:"table:dlq"`
	Id            string `bun:"id,pk"`
	Command       string `bun:"command,notnull"`
	Attempts      uint32 `bun:"attempts,notnull"`
	MaxRetries    uint32 `bun:"max_retries,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull"`
	FailedAt  time.Time `bun:"failed_at,nullzero,notnull,default:current_timestamp"`
}

func (dm *dlqModel) toDeadJob() *job.DeadJob {
	return &job.DeadJob{
		Id:         dm.Id,
		Command:    dm.Command,
		Attempts:   dm.Attempts,
		MaxRetries: dm.MaxRetries,
		CreatedAt:  dm.CreatedAt,
		FailedAt:   dm.FailedAt,
	}
}

func fromJobSnapshot(jb *job.Job) *dlqModel {
	return &dlqModel{
		Id:         jb.Id,
		Command:    jb.Command,
		Attempts:   jb.Attempts,
		MaxRetries: jb.MaxRetries,
		CreatedAt:  jb.CreatedAt,
		FailedAt:   time.Now(),
	}
}
