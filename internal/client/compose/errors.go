package compose

import "errors"

var (
	// ErrValidation means one or more field errors were set; the messages
	// live on the form, not in the error.
	ErrValidation = errors.New("form validation failed")

	// ErrPostUnavailable means the record to edit could not be loaded and
	// the form has already asked for a redirect back to the list.
	ErrPostUnavailable = errors.New("post could not be loaded")

	// ErrSaveAndExitUnavailable is returned when "save and exit" is invoked
	// on an edit form, which has no draft concept.
	ErrSaveAndExitUnavailable = errors.New("drafts are only available when writing a new post")
)
