// Copyright 2026 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

// Package packaging drives the end-to-end workflow that turns one
// learning activity into a shareable archive: enumerate the settings
// of a freshly built backup plan, force every user-data setting off,
// execute the plan, and relocate the produced artifact into permanent
// content storage.
package packaging

import (
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/openlms/activitypack/core/activity"
	"github.com/openlms/activitypack/core/backup"
	"github.com/openlms/activitypack/memguard"
	"github.com/openlms/activitypack/storage"
)

var logger = loggo.GetLogger("activitypack.packaging")

// DefaultMaxArtifactSize is a reasonable Config.MaxArtifactSize for
// callers without a policy of their own: large enough for any course
// activity seen in practice.
const DefaultMaxArtifactSize int64 = 4 * 1024 * 1024 * 1024

// userDataSettings names the root-task settings that carry user data.
// Every one of them is forced to 0 before the plan executes; this
// fixed list is the entire redaction policy, and any setting not on it
// keeps its default. Order follows the root task's own setting order.
var userDataSettings = []string{
	"users",
	"role_assignments",
	"blocks",
	"comments",
	"badges",
	"userscompletion",
	"logs",
	"grade_histories",
	"groups",
}

// ContextResolver maps a course to its permanent-storage context.
type ContextResolver interface {
	CourseContext(courseID int64) (int64, error)
}

// PackagedActivity is the outcome of a successful packaging run: the
// permanently stored archive plus its raw content.
type PackagedActivity struct {
	// File is the record the archive was stored under.
	File storage.StoredFile
	// Content is the archive's full byte content.
	Content []byte
}

// Config holds everything a Packager needs. All collaborators are
// explicit, including the clock and the memory guard, so a run has no
// ambient dependencies.
type Config struct {
	// Activity is the activity to package.
	Activity activity.Ref
	// Actor is the user on whose behalf packaging runs.
	Actor activity.Actor
	// Engine builds and executes backup plans.
	Engine backup.Engine
	// Store is the permanent content store.
	Store storage.ContentStore
	// Contexts resolves course storage contexts.
	Contexts ContextResolver
	// Capabilities reports whether an activity kind can be backed up.
	Capabilities backup.CapabilityChecker
	// Guard accommodates the artifact read-back buffer.
	Guard memguard.Guard
	// Clock supplies the item-id timestamp.
	Clock clock.Clock
	// MaxArtifactSize bounds the artifact content buffer.
	MaxArtifactSize int64
}

// Validate ensures that the config values are valid.
func (c Config) Validate() error {
	if err := c.Activity.Validate(); err != nil {
		return errors.Trace(err)
	}
	if err := c.Actor.Validate(); err != nil {
		return errors.Trace(err)
	}
	if c.Engine == nil {
		return errors.NotValidf("missing Engine")
	}
	if c.Store == nil {
		return errors.NotValidf("missing Store")
	}
	if c.Contexts == nil {
		return errors.NotValidf("missing Contexts")
	}
	if c.Capabilities == nil {
		return errors.NotValidf("missing Capabilities")
	}
	if c.Guard == nil {
		return errors.NotValidf("missing Guard")
	}
	if c.Clock == nil {
		return errors.NotValidf("missing Clock")
	}
	if c.MaxArtifactSize <= 0 {
		return errors.NotValidf("max artifact size %d", c.MaxArtifactSize)
	}
	return nil
}

// Packager packages a single activity. It is the only entry point of
// the pipeline; every call to GetPackage is one full independent run.
type Packager struct {
	config Config
}

// NewPackager returns a Packager for the configured activity. It fails
// fast with ErrUnsupportedActivityType if the activity's kind cannot
// be backed up; the check happens here, before any plan exists.
func NewPackager(config Config) (*Packager, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if !config.Capabilities.Supports(string(config.Activity.Kind), backup.FeatureBackup) {
		return nil, errors.Annotatef(ErrUnsupportedActivityType, "activity kind %q", config.Activity.Kind)
	}
	return &Packager{config: config}, nil
}

// GetPackage performs one packaging run: build a plan, redact it,
// execute it and relocate the artifact. There is no partial success
// and no state carried between calls; a failed run leaves nothing in
// permanent storage.
func (p *Packager) GetPackage() (*PackagedActivity, error) {
	cfg := p.config

	exec, err := newExecutor(cfg.Engine, cfg.Activity, cfg.Actor)
	if err != nil {
		return nil, errors.Trace(err)
	}

	settings := planSettings(exec.Plan())
	logger.Debugf("plan for activity %d exposes %d root settings",
		cfg.Activity.ID, len(settings[backup.TaskRoot]))
	for _, name := range userDataSettings {
		settings.Override(name, 0)
	}

	artifact, err := exec.Run()
	if err != nil {
		return nil, errors.Trace(err)
	}

	rel := &relocator{
		ref:      cfg.Activity,
		store:    cfg.Store,
		contexts: cfg.Contexts,
		guard:    cfg.Guard,
		clock:    cfg.Clock,
		maxSize:  cfg.MaxArtifactSize,
	}
	packaged, err := rel.relocate(artifact)
	if err != nil {
		return nil, errors.Trace(err)
	}

	logger.Infof("packaged activity %d as %q (%d bytes)",
		cfg.Activity.ID, packaged.File.Info().Key(), len(packaged.Content))
	return packaged, nil
}
