package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrAuthenticity = errors.New("signature mismatch")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("payment gateway failure")
	ErrPersistence  = errors.New("persistence failure")
	ErrOverloaded   = errors.New("too many checkouts in flight, try again later")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NotFound(what string, key any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, what, key)
}
