package dataerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindMappingFailure
	KindPersistenceFailure
	KindConfigurationError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindMappingFailure:
		return "mapping_failure"
	case KindPersistenceFailure:
		return "persistence_failure"
	case KindConfigurationError:
		return "configuration_error"
	default:
		return "unknown"
	}
}

// Error is the typed failure reason returned by the data layer.
// Two *Error values match under errors.Is when their kinds are equal,
// so callers test against the Err* sentinels below.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrMapping         = &Error{Kind: KindMappingFailure}
	ErrPersistence     = &Error{Kind: KindPersistenceFailure}
	ErrConfiguration   = &Error{Kind: KindConfigurationError}
)

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func InvalidArgument(op, msg string) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: errors.New(msg)}
}

func NotFound(op, id string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("no document with id %q", id)}
}

func Mapping(op string, err error) error {
	return &Error{Kind: KindMappingFailure, Op: op, Err: err}
}

// Persistence wraps err unless it already carries a kind.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindPersistenceFailure, Op: op, Err: err}
}

func Configuration(op, msg string) error {
	return &Error{Kind: KindConfigurationError, Op: op, Err: errors.New(msg)}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
