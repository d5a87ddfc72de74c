// Copyright 2025 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

// Package activity holds the value types that identify a learning
// activity and the user acting on it. They are plain immutable values
// passed around by the packaging pipeline.
package activity

import (
	"github.com/juju/errors"
)

// Kind identifies the type of a learning activity, e.g. "resource" or
// "quiz". It matches the module name used by the backup engine.
type Kind string

// Ref identifies a single learning activity within a course.
type Ref struct {
	// ID is the activity's unique numeric id.
	ID int64
	// CourseID is the id of the course that owns the activity.
	CourseID int64
	// Kind is the activity's type.
	Kind Kind
}

// Validate returns an error if the reference is not usable.
func (r Ref) Validate() error {
	if r.ID <= 0 {
		return errors.NotValidf("activity id %d", r.ID)
	}
	if r.CourseID <= 0 {
		return errors.NotValidf("course id %d", r.CourseID)
	}
	if r.Kind == "" {
		return errors.NotValidf("empty activity kind")
	}
	return nil
}

// Actor identifies the user on whose behalf a packaging run executes.
type Actor struct {
	// ID is the user's unique numeric id.
	ID int64
}

// Validate returns an error if the actor is not usable.
func (a Actor) Validate() error {
	if a.ID <= 0 {
		return errors.NotValidf("actor id %d", a.ID)
	}
	return nil
}
