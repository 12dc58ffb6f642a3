package draft

import "errors"

// ErrDuplicate is returned by Save when an equivalent draft already exists.
// The stored collection is left untouched.
var ErrDuplicate = errors.New("an identical draft is already saved")
