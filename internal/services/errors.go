package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrPermanent marks failures that retrying cannot fix. Jobs failing with it
// skip the backoff and fail immediately.
var ErrPermanent = errors.New("permanent failure")

var ErrNoCachedExtraction = errors.New("no cached extraction for profile")

type ProfileNotFoundError struct {
	ProfileID string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %s not found", e.ProfileID)
}

func (e *ProfileNotFoundError) Is(target error) bool {
	return target == ErrPermanent
}

func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// IsInterrupted reports whether err ended an attempt because the worker is
// shutting down. Client libraries do not always wrap context.Canceled, so the
// context itself decides.
func IsInterrupted(ctx context.Context, err error) bool {
	return err != nil && errors.Is(ctx.Err(), context.Canceled)
}
