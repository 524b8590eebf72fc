// Package logging builds the process logger. Standard output belongs to sshd,
// so logs only ever go to standard error and, optionally, syslog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// SyslogTag identifies the command in the AUTH log.
const SyslogTag = "privacyidea-sshkeys"

// Options selects the logger outputs.
type Options struct {
	// Output receives log lines, normally os.Stderr. A terminal gets the
	// human-readable console format, anything else JSON lines.
	Output io.Writer
	Debug  bool
	Syslog bool
}

// New returns the logger and a function releasing its outputs. When syslog
// cannot be reached the error is returned and no logger is built; callers
// retry without Syslog.
func New(opts Options) (zerolog.Logger, func(), error) {
	output := opts.Output
	if output == nil {
		output = io.Discard
	}
	if isTerminal(output) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	closeFn := func() {}
	if opts.Syslog {
		combined, closeSyslog, err := withSyslog(output, SyslogTag)
		if err != nil {
			return zerolog.Nop(), closeFn, errors.Wrap(err, "connect to syslog")
		}
		output, closeFn = combined, closeSyslog
	}

	level := zerolog.WarnLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return logger, closeFn, nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok || file == nil {
		return false
	}
	fd := file.Fd()
	if fd > uintptr(int(^uint(0)>>1)) {
		return false
	}
	return term.IsTerminal(int(fd)) // #nosec G115 -- os.File descriptors fit into int on supported platforms
}
