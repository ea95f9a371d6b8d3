package errors

import "errors"

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrInvalidID          = errors.New("invalid id format")
	ErrDuplicateName      = errors.New("name already exists")
)
