package camera

import (
	"errors"
	"fmt"
)

// Category classifies acquisition failures. The category is part of the
// error contract, not just a message: callers render different remediation
// per category.
type Category string

const (
	CategoryPermissionDenied Category = "permission-denied"
	CategoryNoCamera         Category = "no-camera"
	CategoryInsecureContext  Category = "insecure-context"
	CategoryUnsupported      Category = "unsupported"
	CategoryBusy             Category = "camera-in-use"
)

// Recoverable reports whether a retry can ever succeed without changing the
// environment. Permission and device problems can clear up; an insecure or
// unsupported environment cannot.
func (c Category) Recoverable() bool {
	switch c {
	case CategoryPermissionDenied, CategoryNoCamera, CategoryBusy:
		return true
	default:
		return false
	}
}

// Error is a categorized acquisition failure.
type Error struct {
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera: %s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("camera: %s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a categorized camera error.
func NewError(cat Category, msg string, err error) *Error {
	return &Error{Category: cat, Message: msg, Err: err}
}

// CategoryOf extracts the category from an error chain. The second return is
// false for errors that did not originate in this package.
func CategoryOf(err error) (Category, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category, true
	}
	return "", false
}
