package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrResourceNotFound = errors.New("resource not found")

	ErrSlotConflict = errors.New("slot conflicts with existing booking")

	ErrSlotLocked = errors.New("slot is being booked by another request")
)
