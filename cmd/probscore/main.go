package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // All metrics evaluated and passed their checks
	ExitCheckFailed = 1 // One or more threshold checks failed
	ExitError       = 2 // Configuration or runtime error
)

// CheckFailureError indicates that the suite ran, but one or more metrics
// failed a threshold check or could not be evaluated.
type CheckFailureError struct {
	Message string
}

func (e *CheckFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var checkErr *CheckFailureError
		if errors.As(err, &checkErr) {
			os.Exit(ExitCheckFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
