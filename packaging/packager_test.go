// Copyright 2026 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

package packaging_test

import (
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/openlms/activitypack/core/activity"
	"github.com/openlms/activitypack/core/backup"
	"github.com/openlms/activitypack/packaging"
	"github.com/openlms/activitypack/storage"
)

type packagerSuite struct {
	testing.IsolationSuite

	clock    *testclock.Clock
	store    *storage.FileStore
	guard    *fakeGuard
	contexts *fakeContexts

	rootSettings []*fakeSetting
	artifact     *fakeArtifact
	engine       *fakeEngine
}

var _ = gc.Suite(&packagerSuite{})

const startTime = 1700000000

func (s *packagerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)

	s.clock = testclock.NewClock(time.Unix(startTime, 0))
	s.guard = &fakeGuard{}
	s.contexts = &fakeContexts{contexts: map[int64]int64{7: 70007}}

	var err error
	s.store, err = storage.NewFileStore(c.MkDir())
	c.Assert(err, jc.ErrorIsNil)

	s.engine = &fakeEngine{factory: s.newPlan}
	s.newPlan() // prime rootSettings/artifact for assertions
}

// newPlan builds a plan whose root task exposes every user-data
// setting switched on, plus a handful that redaction must not touch.
func (s *packagerSuite) newPlan() backup.Plan {
	names := append([]string{}, packaging.UserDataSettings...)
	names = append(names, "files", "activities", "calendarevents")

	s.rootSettings = nil
	var rootSettings []backup.Setting
	for _, name := range names {
		setting := &fakeSetting{name: name, value: 1}
		s.rootSettings = append(s.rootSettings, setting)
		rootSettings = append(rootSettings, setting)
	}

	s.artifact = &fakeArtifact{hash: "deadbeef", content: []byte("mbz archive bytes")}
	return &fakePlan{
		tasks: []backup.Task{
			&fakeTask{kind: backup.TaskRoot, settings: rootSettings},
			&fakeTask{kind: backup.TaskActivity, settings: []backup.Setting{
				&fakeSetting{name: "included", value: 1},
			}},
		},
		result: &fakeResult{artifact: s.artifact},
	}
}

func (s *packagerSuite) config() packaging.Config {
	return packaging.Config{
		Activity:        activity.Ref{ID: 42, CourseID: 7, Kind: "resource"},
		Actor:           activity.Actor{ID: 99},
		Engine:          s.engine,
		Store:           s.store,
		Contexts:        s.contexts,
		Capabilities:    &fakeCapabilities{supported: map[string]bool{"resource": true}},
		Guard:           s.guard,
		Clock:           s.clock,
		MaxArtifactSize: 1024 * 1024,
	}
}

func (s *packagerSuite) newPackager(c *gc.C) *packaging.Packager {
	p, err := packaging.NewPackager(s.config())
	c.Assert(err, jc.ErrorIsNil)
	return p
}

func (s *packagerSuite) TestUnsupportedKindFailsFast(c *gc.C) {
	cfg := s.config()
	cfg.Activity.Kind = "label"

	_, err := packaging.NewPackager(cfg)
	c.Assert(err, jc.ErrorIs, packaging.ErrUnsupportedActivityType)
	// Fails before any plan is built.
	c.Check(s.engine.calls, gc.HasLen, 0)
}

func (s *packagerSuite) TestConfigValidation(c *gc.C) {
	for i, tweak := range []func(*packaging.Config){
		func(cfg *packaging.Config) { cfg.Activity.ID = 0 },
		func(cfg *packaging.Config) { cfg.Actor.ID = 0 },
		func(cfg *packaging.Config) { cfg.Engine = nil },
		func(cfg *packaging.Config) { cfg.Store = nil },
		func(cfg *packaging.Config) { cfg.Contexts = nil },
		func(cfg *packaging.Config) { cfg.Capabilities = nil },
		func(cfg *packaging.Config) { cfg.Guard = nil },
		func(cfg *packaging.Config) { cfg.Clock = nil },
		func(cfg *packaging.Config) { cfg.MaxArtifactSize = 0 },
	} {
		cfg := s.config()
		tweak(&cfg)
		_, err := packaging.NewPackager(cfg)
		c.Check(err, jc.Satisfies, errors.IsNotValid, gc.Commentf("tweak %d", i))
	}
}

func (s *packagerSuite) TestGetPackageRedactsAllUserDataSettings(c *gc.C) {
	p := s.newPackager(c)

	_, err := p.GetPackage()
	c.Assert(err, jc.ErrorIsNil)

	redacted := set.NewStrings(packaging.UserDataSettings...)
	c.Assert(redacted.Size(), gc.Equals, 9)
	for _, setting := range s.rootSettings {
		if redacted.Contains(setting.name) {
			c.Check(setting.value, gc.Equals, 0, gc.Commentf("setting %q not redacted", setting.name))
		} else {
			c.Check(setting.value, gc.Equals, 1, gc.Commentf("setting %q was touched", setting.name))
		}
	}
}

func (s *packagerSuite) TestGetPackageSuccess(c *gc.C) {
	p := s.newPackager(c)

	packaged, err := p.GetPackage()
	c.Assert(err, jc.ErrorIsNil)

	info := packaged.File.Info()
	c.Check(info.ContextID, gc.Equals, int64(70007))
	c.Check(info.Component, gc.Equals, "sharing")
	c.Check(info.Area, gc.Equals, "activitypackage")
	c.Check(info.Filename, gc.Equals, "resource_backup.mbz")
	c.Check(info.ItemID, gc.Equals, "421700000000")
	c.Check(info.Created, gc.Equals, time.Unix(startTime, 0))

	// The returned bytes are the permanent record's stored content.
	c.Check(packaged.Content, gc.DeepEquals, []byte("mbz archive bytes"))
	stored, err := packaged.File.Content()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(stored, gc.DeepEquals, packaged.Content)

	// The transient artifact is gone, the permanent record remains.
	c.Check(s.artifact.deleted, jc.IsTrue)
	c.Check(s.store.List(), gc.HasLen, 1)

	// Capacity was accommodated before the read-back.
	c.Check(s.guard.calls, gc.DeepEquals, []int64{1024 * 1024})
}

func (s *packagerSuite) TestGetPackageItemIDsDiffer(c *gc.C) {
	p := s.newPackager(c)

	first, err := p.GetPackage()
	c.Assert(err, jc.ErrorIsNil)

	s.clock.Advance(time.Second)
	second, err := p.GetPackage()
	c.Assert(err, jc.ErrorIsNil)

	c.Check(first.File.Info().ItemID, gc.Equals, "421700000000")
	c.Check(second.File.Info().ItemID, gc.Equals, "421700000001")
	c.Check(first.File.Info().ItemID, gc.Not(gc.Equals), second.File.Info().ItemID)
	c.Check(s.store.List(), gc.HasLen, 2)
}

func (s *packagerSuite) TestGetPackageNoArtifact(c *gc.C) {
	s.engine.factory = func() backup.Plan {
		return &fakePlan{
			tasks:  []backup.Task{&fakeTask{kind: backup.TaskRoot}},
			result: &fakeResult{},
		}
	}
	p := s.newPackager(c)

	_, err := p.GetPackage()
	c.Assert(err, jc.ErrorIs, packaging.ErrPackagingFailed)
	// No permanent record was created.
	c.Check(s.store.List(), gc.HasLen, 0)
}

func (s *packagerSuite) TestGetPackageEmptyHash(c *gc.C) {
	s.engine.factory = func() backup.Plan {
		plan := s.newPlan().(*fakePlan)
		s.artifact.hash = ""
		return plan
	}
	p := s.newPackager(c)

	_, err := p.GetPackage()
	c.Assert(err, jc.ErrorIs, packaging.ErrInvalidArtifact)
	// The invalid artifact was never copied nor deleted.
	c.Check(s.store.List(), gc.HasLen, 0)
	c.Check(s.artifact.deleted, jc.IsFalse)
}

func (s *packagerSuite) TestGetPackageNilStoreRecord(c *gc.C) {
	cfg := s.config()
	store := &nilRecordStore{}
	cfg.Store = store
	p, err := packaging.NewPackager(cfg)
	c.Assert(err, jc.ErrorIsNil)

	_, err = p.GetPackage()
	c.Assert(err, jc.ErrorIs, packaging.ErrRelocationFailed)
	c.Check(store.calls, gc.Equals, 1)
	// The transient artifact must survive a failed relocation.
	c.Check(s.artifact.deleted, jc.IsFalse)
}

func (s *packagerSuite) TestGetPackageStoreError(c *gc.C) {
	cfg := s.config()
	cfg.Store = &errStore{err: errors.New("disk full")}
	p, err := packaging.NewPackager(cfg)
	c.Assert(err, jc.ErrorIsNil)

	_, err = p.GetPackage()
	c.Assert(err, jc.ErrorIs, packaging.ErrRelocationFailed)
	c.Assert(err, gc.ErrorMatches, ".*disk full.*")
	c.Check(s.artifact.deleted, jc.IsFalse)
}

func (s *packagerSuite) TestGetPackageContextResolutionError(c *gc.C) {
	s.contexts.err = errors.New("course gone")
	p := s.newPackager(c)

	_, err := p.GetPackage()
	c.Assert(err, gc.ErrorMatches, "resolving context of course 7: course gone")
	c.Check(s.artifact.deleted, jc.IsFalse)
}

func (s *packagerSuite) TestGetPackageGuardError(c *gc.C) {
	s.guard.err = errors.New("no memory")
	p := s.newPackager(c)

	_, err := p.GetPackage()
	c.Assert(err, gc.ErrorMatches, "accommodating artifact content: no memory")
}

func (s *packagerSuite) TestGetPackageDeleteFailureIsNotFatal(c *gc.C) {
	s.engine.factory = func() backup.Plan {
		plan := s.newPlan().(*fakePlan)
		s.artifact.deleteErr = errors.New("locked")
		return plan
	}
	p := s.newPackager(c)

	packaged, err := p.GetPackage()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(packaged.Content, gc.DeepEquals, []byte("mbz archive bytes"))
}
