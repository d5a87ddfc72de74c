// Copyright 2026 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

package packaging

import (
	"strconv"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/openlms/activitypack/core/activity"
	"github.com/openlms/activitypack/core/backup"
	"github.com/openlms/activitypack/memguard"
	"github.com/openlms/activitypack/storage"
)

const (
	// fileComponent and fileArea are the fixed tags under which
	// packaged activities are filed in permanent storage.
	fileComponent = "sharing"
	fileArea      = "activitypackage"

	// filenameSuffix is appended to the activity kind to form the
	// archive filename, e.g. "resource_backup.mbz".
	filenameSuffix = "_backup.mbz"
)

// relocator moves a transient backup artifact into permanent storage
// and reads the stored content back for the caller.
type relocator struct {
	ref      activity.Ref
	store    storage.ContentStore
	contexts ContextResolver
	guard    memguard.Guard
	clock    clock.Clock
	maxSize  int64
}

// fileInfo computes the permanent-storage descriptor for this run.
// The item id is the decimal activity id concatenated with the Unix
// timestamp as strings, not added: "42" + ts can never collide with a
// different activity whose id merely shares a decimal prefix.
func (r *relocator) fileInfo(contextID int64) storage.FileInfo {
	now := r.clock.Now()
	return storage.FileInfo{
		ContextID: contextID,
		Component: fileComponent,
		Area:      fileArea,
		ItemID:    strconv.FormatInt(r.ref.ID, 10) + strconv.FormatInt(now.Unix(), 10),
		Filename:  string(r.ref.Kind) + filenameSuffix,
		Created:   now,
	}
}

// relocate copies the artifact into permanent storage, deletes the
// transient copy once the content is safe, and returns the stored
// record along with its full content. The transient artifact is left
// in place whenever the copy fails, so nothing is silently lost.
func (r *relocator) relocate(artifact backup.Artifact) (*PackagedActivity, error) {
	contextID, err := r.contexts.CourseContext(r.ref.CourseID)
	if err != nil {
		return nil, errors.Annotatef(err, "resolving context of course %d", r.ref.CourseID)
	}

	info := r.fileInfo(contextID)
	logger.Debugf("relocating artifact for activity %d as %q", r.ref.ID, info.Key())

	stored, err := r.store.CreateFromArtifact(info, artifact)
	if err != nil {
		return nil, errors.WithType(err, ErrRelocationFailed)
	}
	if stored == nil {
		return nil, errors.Annotatef(ErrRelocationFailed, "no record for %q", info.Key())
	}

	// The content is safe in permanent storage; the transient copy is
	// now waste. Failing to delete it costs disk, not data.
	if err := artifact.Delete(); err != nil {
		logger.Warningf("could not delete transient artifact for activity %d: %v", r.ref.ID, err)
	}

	if err := r.guard.EnsureCapacity(r.maxSize); err != nil {
		return nil, errors.Annotate(err, "accommodating artifact content")
	}
	content, err := stored.Content()
	if err != nil {
		return nil, errors.Annotatef(err, "reading back stored file %q", info.Key())
	}

	return &PackagedActivity{File: stored, Content: content}, nil
}
