package google

import (
	"errors"
	"fmt"
)

var (
	ErrAuth            = errors.New("authorisation error")
	ErrRemoteExecution = errors.New("remote execution error")
	ErrParse           = errors.New("malformed result")
	ErrTransfer        = errors.New("transfer error")
)

// ExecutionError is the error reported by a remote Apps Script function.
type ExecutionError struct {
	Function string
	Type     string
	Message  string
}

func (e *ExecutionError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%v: %v (%v)", e.Function, e.Message, e.Type)
	}

	return fmt.Sprintf("%v: %v", e.Function, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return ErrRemoteExecution
}
