package model

import "fmt"

// NotSolvedError is returned by field queries made before the
// corresponding solve has completed, or after the element list
// changed.
type NotSolvedError struct {
	Op string
}

func (e *NotSolvedError) Error() string {
	return fmt.Sprintf("%s requires a solved model", e.Op)
}
