package artifact

import (
	"errors"
	"fmt"
)

// ErrIO marks failures to read inputs or write outputs.
var ErrIO = errors.New("artifact io failed")

// IOError carries the operation and path of a failed read or write.
type IOError struct {
	Op   string // read, decode, encode, write
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrIO, e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }
