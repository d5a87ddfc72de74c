// Copyright 2025 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

// Package backup defines the contract with the backup engine, the
// external subsystem that serializes an activity into an archive. The
// engine is opaque to this module: the packaging pipeline only builds a
// plan, tweaks its settings, executes it and collects the artifact.
package backup

import (
	"io"
)

// Scope selects how much of a course a plan covers. Packaging always
// uses ScopeActivity: one plan, one activity.
type Scope int

const (
	// ScopeActivity backs up a single activity.
	ScopeActivity Scope = iota
	// ScopeSection backs up a course section.
	ScopeSection
	// ScopeCourse backs up a whole course.
	ScopeCourse
)

// Mode tells the engine why the backup is being made. Packaging uses
// ModeGeneral, the engine's default non-specialised mode.
type Mode int

const (
	ModeGeneral Mode = iota
	ModeImport
	ModeAutomated
)

// Format selects the archive format the engine writes.
type Format int

const (
	// FormatPortable is the engine's standard portable archive format.
	FormatPortable Format = iota
)

// TaskKind distinguishes the root task of a plan from the per-activity
// tasks. The pipeline only ever needs to tell the root task apart from
// everything else, so the distinction is an explicit tag rather than
// anything derived from the task's implementation.
type TaskKind int

const (
	// TaskRoot is the plan's top-level task; its settings govern which
	// ancillary data (users, logs, ...) the archive includes.
	TaskRoot TaskKind = iota
	// TaskActivity is any task covering the activity content itself.
	TaskActivity
)

// String implements fmt.Stringer.
func (k TaskKind) String() string {
	switch k {
	case TaskRoot:
		return "root"
	case TaskActivity:
		return "activity"
	}
	return "unknown"
}

// Setting is a single named configuration knob owned by a task. Values
// are integers; inclusion toggles use 0 (off) and 1 (on). Settings may
// only be mutated before the plan executes.
type Setting interface {
	// Name returns the setting's UI-facing name, unique within its
	// owning task's setting set.
	Name() string

	// Value returns the current value.
	Value() int

	// SetValue overwrites the current value.
	SetValue(v int)
}

// Task is one stage of a backup plan.
type Task interface {
	// Kind reports whether this is the plan's root task.
	Kind() TaskKind

	// Settings returns the task's settings in their natural order.
	Settings() []Setting
}

// Artifact is the archive produced by plan execution. It lives in the
// engine's transient storage until the pipeline relocates it.
type Artifact interface {
	// ContentHash returns the content hash of the archive, or the empty
	// string if the engine failed to produce usable content.
	ContentHash() string

	// Open returns a reader over the archive content.
	Open() (io.ReadCloser, error)

	// Size returns the archive size in bytes.
	Size() int64

	// Delete removes the artifact from transient storage.
	Delete() error
}

// Result is the outcome of executing a plan.
type Result interface {
	// Artifact returns the produced archive, or nil if execution
	// produced none.
	Artifact() Artifact
}

// Plan is an engine-owned, ordered collection of tasks describing how
// to serialize one activity. A plan holds engine resources from
// construction until Release is called.
type Plan interface {
	// Tasks returns the plan's tasks in execution order.
	Tasks() []Task

	// Execute runs the plan to completion and returns its result.
	Execute() (Result, error)

	// Release frees the engine resources held by the plan. It must be
	// called exactly once, on every exit path, whatever the outcome of
	// Execute.
	Release() error
}

// Engine builds backup plans. Implementations wrap whatever archive
// machinery actually writes the bytes.
type Engine interface {
	// BuildPlan constructs a plan for the given target. The interactive
	// flag is false for all packaging runs: nothing may prompt.
	BuildPlan(scope Scope, activityID int64, format Format, interactive bool, mode Mode, actorID int64) (Plan, error)
}

// FeatureBackup is the capability an activity kind must declare for
// packaging to be possible at all.
const FeatureBackup = "backup"

// CapabilityChecker reports which features an activity kind supports.
// Packaging consults it once, at construction time.
type CapabilityChecker interface {
	Supports(kind string, feature string) bool
}
