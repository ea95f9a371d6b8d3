package transport

import (
	"context"
	"errors"

	"voicebook/pkg/model"
)

// Result carries provider metadata for the delivery audit log.
type Result struct {
	ProviderRef string
}

// Transport delivers one notification. A PermanentError means the job
// should not be retried (bad recipient, rejected payload); anything else
// is treated as transient and goes through the backoff schedule.
type Transport interface {
	Deliver(ctx context.Context, job *model.NotificationJob) (*Result, error)
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent delivery failure: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}
