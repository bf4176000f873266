package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBlockType is returned when a tag has no registered variant.
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrDuplicateRegistration is returned when a tag is registered twice.
	ErrDuplicateRegistration = errors.New("block type already registered")

	// ErrDanglingReference is returned when a structure list names an id
	// that does not resolve in the block map.
	ErrDanglingReference = errors.New("dangling block reference")

	// ErrCyclicStructure is returned when nesting hints form a cycle.
	ErrCyclicStructure = errors.New("cyclic block structure")
)

// ConstructionError reports the raw detection that made document
// construction fail. Index is -1 for failures not tied to one detection.
type ConstructionError struct {
	Page  int
	Index int
	Err   error
}

func (e *ConstructionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("page %d block %d: %v", e.Page, e.Index, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
