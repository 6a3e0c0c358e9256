package main

import "fmt"

// exitError carries the process exit code a failed command asked for.
// silent suppresses the structured error line, used for interrupt
// where the shell already tells the story.
type exitError struct {
	err    error
	code   int
	silent bool
}

func (e *exitError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.err != nil:
		return e.err.Error()
	default:
		return fmt.Sprintf("exit %d", e.code)
	}
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}
