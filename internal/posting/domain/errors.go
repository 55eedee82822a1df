package domain

import "errors"

var (
	ErrInvalidArgument  = errors.New("invalid_argument")
	ErrInvalidTemplate  = errors.New("invalid_template")
	ErrTemplateNotFound = errors.New("template_not_found")
	ErrInvalidMode      = errors.New("invalid_mode")
)
