// privacyidea-sshkeys prints the SSH public keys privacyIDEA has attached to
// this machine for a local user. It is meant to be used as sshd's
//
//	AuthorizedKeysCommand /usr/bin/privacyidea-sshkeys %u
//
// and run as the AuthorizedKeysCommandUser. Settings are read from the
// [Default] section of /etc/privacyidea/authorizedkeyscommand:
//
//	[Default]
//	url = https://privacyidea
//	admin = admin
//	password = secret
//	# nosslcheck = false
//	# hostname = <hostname>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	_ "privacyidea-sshkeys/providers/env"
	_ "privacyidea-sshkeys/providers/infisical"
)

const (
	exitOK      = 0
	exitConfig  = 1
	exitUsage   = 2
	exitRuntime = 5
)

// fetchErrorMessage is printed when privacyIDEA answers the key request with
// status false. The process still exits 0.
const fetchErrorMessage = "error fetching list"

// version is set at build time, e.g. -ldflags "-X main.version=1.2.3".
var version = "1.0.0"

// ErrorMode selects what happens to a failure once it reaches main.
type ErrorMode int

const (
	// ReportErrors prints a diagnostic to stdout and exits with the
	// failure's exit code.
	ReportErrors ErrorMode = iota
	// PropagateErrors re-raises the failure as a panic so the runtime prints
	// the full goroutine trace.
	PropagateErrors
)

// statusError carries a process exit code plus the underlying failure.
type statusError struct {
	code int
	err  error
}

// Error implements the error interface.
func (statusErr *statusError) Error() string {
	return statusErr.err.Error()
}

func (statusErr *statusError) Unwrap() error {
	return statusErr.err
}

// fail wraps err with a specific process exit code.
func fail(code int, err error) error {
	return &statusError{code: code, err: err}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps its outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	command, flags := newRootCommand(stdout, stderr)
	command.SetArgs(args)

	err := command.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	return handleError(err, flags.errorMode(), stdout, stderr)
}

func handleError(err error, mode ErrorMode, stdout, stderr io.Writer) int {
	var statusErr *statusError
	if !errors.As(err, &statusErr) {
		// Anything cobra rejects before RunE is a usage problem.
		fmt.Fprintln(stderr, "Error:", err)
		fmt.Fprintln(stderr, "Run 'privacyidea-sshkeys --help' for usage.")
		return exitUsage
	}

	// Config errors keep their exit code in every mode.
	if mode == PropagateErrors && statusErr.code == exitRuntime {
		panic(statusErr.err)
	}

	switch statusErr.code {
	case exitConfig:
		fmt.Fprintln(stdout, "You need to provide the config file!")
		fmt.Fprintln(stdout, statusErr.err)
	default:
		fmt.Fprintf(stdout, "%+v\n", statusErr.err)
		fmt.Fprintln(stdout, "Error:", statusErr.err)
	}
	return statusErr.code
}
