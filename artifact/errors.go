package artifact

import "fmt"

var (
	// ErrNotFound is returned when no report exists for the given task id.
	ErrNotFound = fmt.Errorf("report not found")
)
