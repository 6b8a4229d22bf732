package reconcile

import "errors"

// ErrStaleVersion is returned by version-guarded saves when the stored record
// changed after it was read.
var ErrStaleVersion = errors.New("stale version")
