package lineage

import (
	"errors"
	"fmt"
)

var (
	ErrNoParsingSource = errors.New("parsing source is empty")
	ErrSelfDependency  = errors.New("object cannot depend on itself")
	ErrZeroTarget      = errors.New("dependency target is not set")
)

type NotFoundError struct {
	ObjectID      int64
	TargetID      int64
	ParsingSource string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("no dependency (%d, %d, %q)", err.ObjectID, err.TargetID, err.ParsingSource)
}

type InvalidDirectionError struct {
	Direction Direction
}

func (err InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid direction: %q", err.Direction)
}

type InvalidIdentifierError struct {
	Identifier string
}

func (err InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid object identifier: %q, want a numeric id or source.schema.name", err.Identifier)
}

// StorageError wraps a storage-layer failure, notably unique-constraint
// violations from concurrent upserts of the same natural key. It is
// surfaced to the caller so its transaction rolls back whole.
type StorageError struct {
	Op  string
	Err error
}

func (err StorageError) Error() string {
	if err.Op != "" {
		return fmt.Sprintf("dependency storage: %s: %s", err.Op, err.Err)
	}
	return fmt.Sprintf("dependency storage: %s", err.Err)
}

func (err StorageError) Unwrap() error {
	return err.Err
}
