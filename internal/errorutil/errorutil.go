package errorutil

import "errors"

// ErrDataIntegrity is a base error type to use for failures that are due to
// unrecoverable inconsistencies in a snapshot.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrSnapshotNotFound indicates a snapshot id has no archived object behind
// it. Handlers translate it into the "source unavailable" sentinel rather
// than an error response.
var ErrSnapshotNotFound = errors.New("snapshot not found")
