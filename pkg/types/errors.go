package types

import "errors"

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrReferenceConflict   = errors.New("reference number already in use")
	ErrInvalidStatus       = errors.New("invalid application status")
)
