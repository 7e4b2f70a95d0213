package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/apidriver/packages/apiclient"
)

// Exit codes for apidriver CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitFailure indicates an unexpected response or a failed decode
	ExitFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code a command failed with. When reported is
// set the error has already been printed by a formatter.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error {
	return &exitError{code: ExitConfigError, err: err}
}

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

// requestFailure maps a client error onto an exit code.
func requestFailure(err error) error {
	code := ExitFailure
	var te *apiclient.TransportError
	if errors.As(err, &te) {
		code = ExitNetworkError
	}
	return &exitError{code: code, err: err, reported: true}
}

// exitCode returns the process exit code for the error a command returned.
// Errors not produced by a command come from cobra's argument and flag
// parsing.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsageError
}
