package referenceframe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// Structural validation failures. Every error returned while building a Model wraps one of these
// and names the offending link or joint.
var (
	ErrDuplicateName     = errors.New("duplicate name")
	ErrDanglingReference = errors.New("reference to unknown link")
	ErrMultipleParents   = errors.New("link is the child of more than one joint")
	ErrNoRoot            = errors.New("no root link")
	ErrMultipleRoots     = errors.New("more than one root link")
	ErrCycleDetected     = errors.New("cycle detected")
)

// ErrArityMismatch is returned when a joint value update does not carry exactly one value per movable joint.
var ErrArityMismatch = errors.New("number of joint values does not match number of movable joints")

// ErrJointIndexOutOfRange is returned when a dense joint index does not address a movable joint.
var ErrJointIndexOutOfRange = errors.New("joint index out of range")

// ErrNonFiniteJointValue is returned when a joint value is NaN or infinite.
var ErrNonFiniteJointValue = errors.New("joint value is not finite")

// NewNonFiniteJointValueError returns an error naming the joint index that was given a NaN or infinite value.
func NewNonFiniteJointValueError(index int, v float64) error {
	return errors.Wrapf(ErrNonFiniteJointValue, "joint index %d got %v", index, v)
}

// ErrUnsupportedJointType is returned for joint kinds outside fixed, revolute, continuous and prismatic.
var ErrUnsupportedJointType = errors.New("unsupported joint type")

// NewDuplicateNameError returns an error indicating that two links or two joints share a name.
func NewDuplicateNameError(kind, name string) error {
	return errors.Wrapf(ErrDuplicateName, "%s %q", kind, name)
}

// NewDanglingReferenceError returns an error indicating that a joint names a link that does not exist.
func NewDanglingReferenceError(joint, role, link string) error {
	return errors.Wrapf(ErrDanglingReference, "joint %q %s link %q", joint, role, link)
}

// NewMultipleParentsError returns an error indicating that a link is the child of more than one joint.
func NewMultipleParentsError(link string, joints ...string) error {
	return errors.Wrapf(ErrMultipleParents, "link %q (joints %s)", link, quoteAll(joints))
}

// NewNoRootError returns an error indicating that every link is some joint's child.
func NewNoRootError(detail string) error {
	return errors.Wrap(ErrNoRoot, detail)
}

// NewMultipleRootsError returns an error naming every link that is no joint's child.
func NewMultipleRootsError(links []string) error {
	return errors.Wrapf(ErrMultipleRoots, "links %s", quoteAll(links))
}

// NewCycleDetectedError returns an error naming the links that form a cycle.
func NewCycleDetectedError(links []string) error {
	sorted := append([]string(nil), links...)
	sort.Strings(sorted)
	return errors.Wrapf(ErrCycleDetected, "links %s", quoteAll(sorted))
}

// NewArityMismatchError returns an error describing a joint value update of the wrong length.
func NewArityMismatchError(got, want int) error {
	return errors.Wrapf(ErrArityMismatch, "got %d values, model has %d movable joints", got, want)
}

// NewJointIndexOutOfRangeError returns an error for an index outside [0, dof).
func NewJointIndexOutOfRangeError(index, dof int) error {
	return errors.Wrapf(ErrJointIndexOutOfRange, "index %d, model has %d movable joints", index, dof)
}

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported.
func NewUnsupportedJointTypeError(jType string) error {
	return errors.Wrapf(ErrUnsupportedJointType, "%q", jType)
}

// NewInvalidJointError returns an error for a joint whose parameters cannot describe a motion.
func NewInvalidJointError(joint, reason string) error {
	return errors.Errorf("invalid joint %q: %s", joint, reason)
}

// NewJointNotFoundError returns an error for a joint name that is not part of the model.
func NewJointNotFoundError(name string) error {
	return errors.Errorf("joint %q not found in model", name)
}

// NewLinkNotFoundError returns an error for a link name that is not part of the model.
func NewLinkNotFoundError(name string) error {
	return errors.Errorf("link %q not found in model", name)
}

func quoteAll(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, fmt.Sprintf("%q", n))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
