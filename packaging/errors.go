// Copyright 2026 OpenLMS Developers
// Licensed under the AGPLv3, see LICENCE file for details.

package packaging

import (
	"github.com/juju/errors"
)

const (
	// ErrUnsupportedActivityType is returned at construction when the
	// activity's kind cannot be backed up at all.
	ErrUnsupportedActivityType = errors.ConstError("activity type does not support backup")

	// ErrPackagingFailed is returned when backup execution completed
	// without producing an artifact.
	ErrPackagingFailed = errors.ConstError("backup produced no artifact")

	// ErrInvalidArtifact is returned when the produced artifact carries
	// no content hash.
	ErrInvalidArtifact = errors.ConstError("backup artifact has no content hash")

	// ErrRelocationFailed is returned when copying the artifact into
	// permanent storage yielded no valid record. The transient artifact
	// is left in place when this happens.
	ErrRelocationFailed = errors.ConstError("artifact not copied into permanent storage")
)
