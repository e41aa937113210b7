// Package appconfig owns the ambient, per-user state that the core
// queue package treats as an injected dependency: the config.json
// file, directory resolution, and the supervisor's PID-file based
// single-instance lock.
//
// Grounded on original_source/queuectl/config.py: directory
// resolution, default config, and PID probing follow the same shape,
// translated into idiomatic Go (JSON decode into a generic overlay so
// unknown keys round-trip, os.FindProcess + Signal(0) for liveness).
package appconfig
