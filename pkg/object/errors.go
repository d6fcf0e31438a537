package object

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("object not found")
	ErrCorruptObject   = errors.New("corrupt object")
	ErrUnknownFormat   = errors.New("unknown format")
	ErrMalformedObject = errors.New("malformed object")
	ErrWrongType       = errors.New("wrong object type")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedObject, fmt.Sprintf(format, args...))
}

func unknownFormat(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnknownFormat, fmt.Sprintf(format, args...))
}

func corrupt(h Hash, format string, args ...any) error {
	return fmt.Errorf("object %s: %w: %s", h, ErrCorruptObject, fmt.Sprintf(format, args...))
}
