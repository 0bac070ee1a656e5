package attrblend

import (
	"errors"
	"strconv"
	"strings"
)

// Sentinel errors for the attrblend package.
var (
	// ErrUnknownAttribute is returned when a selector names an attribute
	// that the dataset does not have.
	ErrUnknownAttribute = errors.New("attrblend: unknown attribute")

	// ErrMissingOutput is returned when a strict descriptor targets an
	// output attribute that has not been allocated.
	ErrMissingOutput = errors.New("attrblend: output attribute missing in strict mode")

	// ErrUnsupportedKind is returned when a kind cannot serve the requested
	// role, such as writing to a constant.
	ErrUnsupportedKind = errors.New("attrblend: unsupported value kind")

	// ErrInvalidSubfield is returned when a sub-field does not exist on the
	// underlying kind.
	ErrInvalidSubfield = errors.New("attrblend: invalid sub-field")

	// ErrModeUnsupported is returned when a blend mode is not defined for
	// the working kind.
	ErrModeUnsupported = errors.New("attrblend: blend mode not supported for kind")

	// ErrWeightRequired is returned when a weighted mode has no weight source.
	ErrWeightRequired = errors.New("attrblend: blend mode requires a weight source")

	// ErrKindMismatch is returned when the three operands of a blender do
	// not share one working kind.
	ErrKindMismatch = errors.New("attrblend: operand kinds differ")

	// ErrInvalidReference is returned for pipeline back-references to a
	// missing, forward or self index.
	ErrInvalidReference = errors.New("attrblend: invalid operation reference")

	// ErrNoSources is returned when a union has nothing to merge.
	ErrNoSources = errors.New("attrblend: no sources")

	// ErrNotInitialized is returned when a facade is used before Init.
	ErrNotInitialized = errors.New("attrblend: not initialized")
)

// ResolutionError reports a descriptor that cannot be bound to a buffer.
type ResolutionError struct {
	Selector string
	Dataset  string
	Err      error
}

func (e *ResolutionError) Error() string {
	msg := "attrblend: cannot resolve " + quote(e.Selector)
	if e.Dataset != "" {
		msg += " on " + e.Dataset
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ModeCompatibilityError reports a blend mode that cannot be applied to the
// resolved kind, or a weighted mode without a weight source.
type ModeCompatibilityError struct {
	Mode    BlendMode
	Kind    ValueKind
	Subject string
	Err     error
}

func (e *ModeCompatibilityError) Error() string {
	msg := "attrblend: mode " + e.Mode.String() + " on " + e.Kind.String()
	if e.Subject != "" {
		msg += " " + quote(e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModeCompatibilityError) Unwrap() error { return e.Err }

// ConfigurationError reports a pipeline operation whose setup is invalid.
type ConfigurationError struct {
	Operation int
	Reference string
	Err       error
}

func (e *ConfigurationError) Error() string {
	msg := "attrblend: operation #" + strconv.Itoa(e.Operation)
	if e.Reference != "" {
		msg += " reference " + quote(e.Reference)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TypeMismatchWarning lists attribute names that appear with different kinds
// across sources. It is advisory and never returned from setup.
type TypeMismatchWarning struct {
	Names []string
}

// Empty reports whether no mismatch was recorded.
func (w TypeMismatchWarning) Empty() bool { return len(w.Names) == 0 }

func (w TypeMismatchWarning) String() string {
	return "attrblend: type mismatch on " + strings.Join(w.Names, ", ")
}

func quote(s string) string { return `"` + s + `"` }
