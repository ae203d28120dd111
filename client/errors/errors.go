package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	// TransportError indicates that the release source could not be reached, timed out or answered with a bad status
	TransportError Type = 1

	// ParseError indicates that the release metadata was malformed
	ParseError Type = 2

	// NoUpdateAvailable indicates that an install was requested while no update is downloaded
	NoUpdateAvailable Type = 3

	// ArtifactAlreadyConsumed indicates that the downloaded artifact was already taken by another install
	ArtifactAlreadyConsumed Type = 4

	// InstallError indicates that the install primitive rejected the artifact
	InstallError Type = 5

	// VerificationError indicates that the artifact signature did not verify
	VerificationError Type = 6
)

// Type is a type of the Error
type Type int32

func (t Type) String() string {
	switch t {
	case TransportError:
		return "transport"
	case ParseError:
		return "parse"
	case NoUpdateAvailable:
		return "no_update_available"
	case ArtifactAlreadyConsumed:
		return "artifact_already_consumed"
	case InstallError:
		return "install"
	case VerificationError:
		return "verification"
	default:
		return "unknown"
	}
}

// Error is an update manager error of a specific kind
type Error struct {
	ErrorType Type
	Message   string
	Err       error
}

// Type returns the Type of the error
func (e *Error) Type() Type {
	return e.ErrorType
}

// Error is an error string
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf returns Error(ErrorType, fmt.Sprintf(format, a...)).
func Errorf(errorType Type, format string, a ...interface{}) error {
	return &Error{
		ErrorType: errorType,
		Message:   fmt.Sprintf(format, a...),
	}
}

// Wrap returns an Error of the given type carrying err as its cause. A nil err yields nil.
func Wrap(errorType Type, err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		ErrorType: errorType,
		Message:   fmt.Sprintf(format, a...),
		Err:       err,
	}
}

// FromError returns Error, true if the provided error is of type of Error. nil, false otherwise
func FromError(err error) (s *Error, ok bool) {
	if err == nil {
		return nil, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether err carries an Error of the given type
func IsType(err error, errorType Type) bool {
	if err == nil {
		return false
	}
	e, ok := FromError(err)
	return ok && e.ErrorType == errorType
}

func formatError(es []error) string {
	if len(es) == 1 {
		return fmt.Sprintf("1 error occurred:\n\t* %s", es[0])
	}

	points := make([]string, len(es))
	for i, err := range es {
		points[i] = fmt.Sprintf("* %s", err)
	}

	return fmt.Sprintf(
		"%d errors occurred:\n\t%s",
		len(es), strings.Join(points, "\n\t"))
}

func FormatErrorOrNil(err *multierror.Error) error {
	if err != nil {
		err.ErrorFormat = formatError
	}
	return err.ErrorOrNil()
}
