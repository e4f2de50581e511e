package domain

import "errors"

var (
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrEmptyFile          = errors.New("empty file")
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNoAnalysis         = errors.New("analysis not available")
	ErrBlobNotFound       = errors.New("blob not found")
	ErrInvalidLocation    = errors.New("invalid location")
)
