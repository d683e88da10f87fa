package normalizer

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-webform/pkg/states"
	"github.com/goliatone/go-webform/pkg/uischema"
)

var (
	// ErrUnmappedType is returned for leaf types absent from the type table.
	ErrUnmappedType = errors.New("normalizer: unmapped element type")
	// ErrMalformedConditions is returned for #states values that cannot be
	// compiled.
	ErrMalformedConditions = states.ErrMalformedConditions
	// ErrUnresolvedSelector is returned when a #states selector does not
	// resolve to an element.
	ErrUnresolvedSelector = states.ErrUnresolvedSelector
	// ErrReservedKey is returned when an element key collides with one of the
	// tree's reserved entries, or a page key with the preview page key.
	ErrReservedKey = uischema.ErrReservedKey
	// ErrUnexpectedChildren is returned when a field element nests other
	// elements.
	ErrUnexpectedChildren = errors.New("normalizer: field element cannot contain elements")
	// ErrUpload wraps upload preparation failures.
	ErrUpload = errors.New("normalizer: upload preparation failed")
	// ErrVocabulary wraps vocabulary loading failures.
	ErrVocabulary = errors.New("normalizer: vocabulary loading failed")
	// ErrDraft wraps draft loading failures.
	ErrDraft = errors.New("normalizer: draft loading failed")
)

// MappingError reports an element that could not be converted.
type MappingError struct {
	Key  string
	Type string
	Err  error
}

func (e *MappingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("normalizer: element %q (type %q): %v", e.Key, e.Type, e.Err)
}

func (e *MappingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AsMappingError extracts the first MappingError in err's chain.
func AsMappingError(err error) (*MappingError, bool) {
	var target *MappingError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func mappingError(key, typ string, err error) error {
	return &MappingError{Key: key, Type: typ, Err: err}
}

// wrapCause joins a sentinel with the collaborator error that caused it.
func wrapCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}
