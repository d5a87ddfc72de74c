// Copyright 2026 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

// Package memguard accommodates large in-memory payloads by raising
// the runtime's soft memory limit when it sits below what an upcoming
// buffer needs. The packaging pipeline calls it before reading a whole
// archive back into memory.
package memguard

import (
	"math"
	"runtime/debug"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("activitypack.memguard")

// Guard ensures the execution environment can accommodate a byte
// buffer of the given size. It never allocates anything itself.
type Guard interface {
	EnsureCapacity(size int64) error
}

// headroomFactor is how much room beyond the requested buffer the
// runtime limit is raised to, leaving space for the rest of the heap.
const headroomFactor = 2

// Limit is a Guard backed by the Go runtime's soft memory limit.
type Limit struct{}

// EnsureCapacity implements Guard. If the current soft memory limit is
// set and would not fit a buffer of the given size with headroom, the
// limit is raised. An unset limit (MaxInt64) is left alone.
func (Limit) EnsureCapacity(size int64) error {
	if size <= 0 {
		return errors.NotValidf("capacity %d", size)
	}
	if size > math.MaxInt64/headroomFactor {
		return errors.NotValidf("capacity %d overflows headroom", size)
	}
	required := size * headroomFactor

	current := debug.SetMemoryLimit(-1)
	if current == math.MaxInt64 || current >= required {
		return nil
	}
	debug.SetMemoryLimit(required)
	logger.Infof("raised soft memory limit from %d to %d bytes", current, required)
	return nil
}

// NoopGuard is a Guard for callers that manage memory externally.
type NoopGuard struct{}

// EnsureCapacity implements Guard.
func (NoopGuard) EnsureCapacity(size int64) error {
	if size <= 0 {
		return errors.NotValidf("capacity %d", size)
	}
	return nil
}
