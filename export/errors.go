package export

import (
	"errors"
	"fmt"

	"github.com/uhppoted/sheets-csv/google"
)

// Error classification for errors.Is(). The remote sentinels are shared with the google package
// so that errors returned by the remote clients classify the same way.
var (
	ErrAuth            = google.ErrAuth
	ErrRemoteExecution = google.ErrRemoteExecution
	ErrParse           = google.ErrParse
	ErrTransfer        = google.ErrTransfer
	ErrLocalIO         = errors.New("local I/O error")
	ErrInvalidRequest  = errors.New("invalid export request")
)

// Error is returned for any export run that does not reach Done.
type Error struct {
	Step  State // state the run failed to reach
	Kind  error
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export failed at %v: %v", e.Step, e.Cause)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

func fail(step State, kind error, cause error) error {
	return &Error{
		Step:  step,
		Kind:  kind,
		Cause: cause,
	}
}
