// Copyright 2026 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

package packaging

import (
	"github.com/juju/errors"

	"github.com/openlms/activitypack/core/activity"
	"github.com/openlms/activitypack/core/backup"
)

// executor owns one backup plan for one activity, from construction
// through execution to release of the engine resources backing it.
type executor struct {
	plan backup.Plan
}

// newExecutor builds a single-activity, non-interactive plan in the
// engine's general mode. The returned executor owns the plan; Run must
// be called to release it.
func newExecutor(engine backup.Engine, ref activity.Ref, actor activity.Actor) (*executor, error) {
	plan, err := engine.BuildPlan(
		backup.ScopeActivity, ref.ID, backup.FormatPortable, false, backup.ModeGeneral, actor.ID,
	)
	if err != nil {
		return nil, errors.Annotatef(err, "building backup plan for activity %d", ref.ID)
	}
	return &executor{plan: plan}, nil
}

// Plan exposes the underlying plan for settings enumeration.
func (e *executor) Plan() backup.Plan {
	return e.plan
}

// Run executes the plan to completion and returns the produced
// artifact. The plan's engine resources are released on every exit
// path, whatever the outcome. Execution is a single atomic attempt:
// any failure is surfaced immediately, never retried.
func (e *executor) Run() (backup.Artifact, error) {
	defer func() {
		if err := e.plan.Release(); err != nil {
			logger.Errorf("could not release backup plan: %v", err)
		}
	}()

	result, err := e.plan.Execute()
	if err != nil {
		return nil, errors.Annotate(err, "executing backup plan")
	}

	artifact := result.Artifact()
	if artifact == nil {
		return nil, errors.Trace(ErrPackagingFailed)
	}
	if artifact.ContentHash() == "" {
		return nil, errors.Trace(ErrInvalidArtifact)
	}
	return artifact, nil
}
