package exitcode

import (
	"errors"
	"fmt"
)

// Process exit codes of the command line tools
const (
	OK       = 0
	Errored  = 1
	Config   = 2
	Database = 3
)

// Carries an exit code along with an error so the app can exit correctly
type ExitError struct {
	Err  error
	Code int
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d", e.Code)
	}

	return fmt.Sprintf("%d: %s", e.Code, e.Err.Error())
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// Wrap an error with an exit code. A nil error stays nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return ExitError{Code: code, Err: err}
}

// From picks the code to exit with after err
func From(err error) int {
	if err == nil {
		return OK
	}

	var ee ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return Errored
}
