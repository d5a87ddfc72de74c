// Copyright 2025 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

// Package storage defines the permanent content store consumed by the
// packaging pipeline, along with a local filesystem implementation for
// embedders that do not bring their own blob subsystem.
package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/openlms/activitypack/core/backup"
)

// FileInfo describes a permanently stored file. It is the identity
// under which a packaged archive is filed, not the content itself.
type FileInfo struct {
	// ContextID is the storage context, derived from the activity's
	// owning course.
	ContextID int64
	// Component is the owning component tag.
	Component string
	// Area is the file area within the component.
	Area string
	// ItemID distinguishes files sharing the same context, component
	// and area. For packaged activities it is the decimal activity id
	// concatenated with the Unix timestamp of the packaging run.
	ItemID string
	// Filename is the name of the file within its area.
	Filename string
	// Created records when the file record was made.
	Created time.Time
}

// Validate returns an error if the descriptor is incomplete.
func (i FileInfo) Validate() error {
	if i.ContextID <= 0 {
		return errors.NotValidf("context id %d", i.ContextID)
	}
	if i.Component == "" {
		return errors.NotValidf("empty component")
	}
	if i.Area == "" {
		return errors.NotValidf("empty file area")
	}
	if i.ItemID == "" {
		return errors.NotValidf("empty item id")
	}
	if i.Filename == "" {
		return errors.NotValidf("empty filename")
	}
	return nil
}

// Key returns the unique identity of the descriptor within a store.
func (i FileInfo) Key() string {
	return strings.Join([]string{
		strconv.FormatInt(i.ContextID, 10), i.Component, i.Area, i.ItemID, i.Filename,
	}, "/")
}

// StoredFile is a file held in permanent storage.
type StoredFile interface {
	// Info returns the descriptor the file was stored under.
	Info() FileInfo

	// Checksum returns the SHA-256 checksum of the stored content,
	// base64 encoded.
	Checksum() string

	// Size returns the stored content size in bytes.
	Size() int64

	// Content reads back the full stored content.
	Content() ([]byte, error)
}

// ContentStore files archive content under permanent descriptors.
//
// CreateFromArtifact may report failure either by returning an error
// or by returning a nil record; callers must treat both the same way.
// This mirrors engines whose storage layer signals "nothing stored"
// without an accompanying reason.
type ContentStore interface {
	CreateFromArtifact(info FileInfo, src backup.Artifact) (StoredFile, error)
}
