package queuectl

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/kkpjssks/queuectl/internal"
)

const (
	stopped = iota
	started
)

var (
	// ErrDoubleStarted is returned when Start is called on a component
	// that has already been started.
	//
	// Components with a lcBase follow a strict lifecycle and must not
	// be started more than once without being stopped.
	ErrDoubleStarted = errors.New("component double start")

	// ErrDoubleStopped is returned when Stop is called on a component
	// that is not currently running. Callers that consider "stop while
	// already stopped" a no-op should treat this as success rather
	// than propagating it.
	ErrDoubleStopped = errors.New("component double stop")

	// ErrStopTimeout is returned when a component fails to shut down
	// within the provided timeout during Stop.
	//
	// In this case, the component may still be terminating in the
	// background.
	ErrStopTimeout = errors.New("component stop timeout")
)

type lcBase struct {
	state atomic.Int32
}

func (lb *lcBase) tryStart() error {
	if !lb.state.CompareAndSwap(stopped, started) {
		return ErrDoubleStarted
	}
	return nil
}

func (lb *lcBase) tryStop(timeout time.Duration, df internal.DoneFunc) error {
	if !lb.state.CompareAndSwap(started, stopped) {
		return ErrDoubleStopped
	}
	done := df()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}
