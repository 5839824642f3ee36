package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNilObject   = errors.New("nil object")
	ErrEmptyName   = errors.New("object does not have a name")
	ErrEmptySchema = errors.New("object does not have a schema")
)

type NotFoundError struct {
	ObjectID int64
	Ref      string
}

func (err NotFoundError) Error() string {
	if err.ObjectID != 0 {
		return fmt.Sprintf("no such object: %d", err.ObjectID)
	} else if err.Ref != "" {
		return fmt.Sprintf("could not find object with ref = %s", err.Ref)
	}

	return "could not find object"
}

type SourceNotFoundError struct {
	Name string
}

func (err SourceNotFoundError) Error() string {
	return fmt.Sprintf("could not find source %q", err.Name)
}
