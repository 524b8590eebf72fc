//go:build !windows

package logging

import (
	"io"
	"log/syslog"

	"github.com/rs/zerolog"
)

type syslogWriter interface {
	zerolog.SyslogWriter
	Close() error
}

var dialSyslog = func(tag string) (syslogWriter, error) {
	writer, err := syslog.New(syslog.LOG_AUTH|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// withSyslog tees output into the AUTH facility, mapping zerolog levels to
// syslog priorities.
func withSyslog(output io.Writer, tag string) (io.Writer, func(), error) {
	writer, err := dialSyslog(tag)
	if err != nil {
		return nil, nil, err
	}
	combined := zerolog.MultiLevelWriter(output, zerolog.SyslogLevelWriter(writer))
	return combined, func() { _ = writer.Close() }, nil
}
