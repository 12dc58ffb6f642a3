package board

import "errors"

var (
	ErrNotFound        = errors.New("post not found")
	ErrNotAuthor       = errors.New("you are not the author of this post")
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title exceeds maximum length")
	ErrContentRequired = errors.New("content is required")
	ErrContentTooLong  = errors.New("content exceeds maximum length")
	ErrInvalidCategory = errors.New("unknown category")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidMimeType = errors.New("file type is not allowed")
	ErrInvalidFileExt  = errors.New("file extension is not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)
