package aspace

import (
	"errors"
	"fmt"
)

// MissingReferenceError is returned when a required relationship field (resource,
// repository) is absent from a record.
type MissingReferenceError struct {
	URI   string
	Field string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s has no %s reference", e.URI, e.Field)
}

// UnresolvableReferenceError is returned when a referenced record cannot be fetched
type UnresolvableReferenceError struct {
	URI string
	Err error
}

func (e *UnresolvableReferenceError) Error() string {
	return fmt.Sprintf("unable to resolve %s: %s", e.URI, e.Err.Error())
}

func (e *UnresolvableReferenceError) Unwrap() error {
	return e.Err
}

// ErrNotCached is the cause reported by a Cache lookup miss
var ErrNotCached = errors.New("record not in cache")

// IsMissingResource reports whether err is the missing resource reference failure
func IsMissingResource(err error) bool {
	var mre *MissingReferenceError
	return errors.As(err, &mre) && mre.Field == "resource"
}
