package domain

import "errors"

var (
	ErrInvalidDocument     = errors.New("invalid_document")
	ErrInvalidDocumentType = errors.New("invalid_document_type")
	ErrInvalidLine         = errors.New("invalid_line")
)
