package urdf

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/armviz/referenceframe"
)

var (
	// ErrMissingField is wrapped when a mandatory attribute or element is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidValue is wrapped when a numeric attribute cannot be used.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnsupportedJointType is wrapped for joint types other than fixed, revolute, continuous and prismatic.
	ErrUnsupportedJointType = referenceframe.ErrUnsupportedJointType
)

// ParseError is returned for any description that cannot be turned into raw records. Location is a human
// readable hint such as `line 12: joint "elbow" <axis>`.
type ParseError struct {
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("urdf: %v", e.Err)
	}
	return fmt.Sprintf("urdf: %s: %v", e.Location, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Cause lets github.com/pkg/errors walk through a ParseError.
func (e *ParseError) Cause() error {
	return e.Err
}

func newParseError(location string, err error) *ParseError {
	return &ParseError{Location: location, Err: err}
}

func missingField(location, field string) *ParseError {
	return newParseError(location, errors.Wrap(ErrMissingField, field))
}
