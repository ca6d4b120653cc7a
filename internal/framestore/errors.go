package framestore

import "errors"

// ErrNoFrames is returned by LoadSession when no sweep metadata exists.
var ErrNoFrames = errors.New("framestore: no recorded session")

// PersistenceError records a failed storage operation and the path involved.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return "framestore: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Path: path, Err: err}
}
