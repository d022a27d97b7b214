package entity

import "errors"

var (
	ErrIDIsRequired  = errors.New("id is required")
	ErrInvalidID     = errors.New("invalid id format")
	ErrInvalidNode   = errors.New("snowflake node out of range")
	ErrTitleRequired = errors.New("title is required")
	ErrUnknownChange = errors.New("unknown change kind")
)
