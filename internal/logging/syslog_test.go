//go:build !windows

package logging

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyslog struct {
	tag      string
	warnings []string
	errs     []string
	closed   bool
}

func (f *fakeSyslog) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakeSyslog) Debug(string) error          { return nil }
func (f *fakeSyslog) Info(string) error           { return nil }
func (f *fakeSyslog) Notice(string) error         { return nil }
func (f *fakeSyslog) Warning(m string) error {
	f.warnings = append(f.warnings, m)
	return nil
}
func (f *fakeSyslog) Err(m string) error {
	f.errs = append(f.errs, m)
	return nil
}
func (f *fakeSyslog) Emerg(string) error { return nil }
func (f *fakeSyslog) Crit(string) error  { return nil }
func (f *fakeSyslog) Close() error {
	f.closed = true
	return nil
}

func setDialSyslogForTest(t *testing.T, dial func(tag string) (syslogWriter, error)) {
	t.Helper()
	original := dialSyslog
	dialSyslog = dial
	t.Cleanup(func() {
		dialSyslog = original
	})
}

func TestNewWithSyslog(t *testing.T) {
	fake := &fakeSyslog{}
	setDialSyslogForTest(t, func(tag string) (syslogWriter, error) {
		fake.tag = tag
		return fake, nil
	})

	var output bytes.Buffer
	logger, closeFn, err := New(Options{Output: &output, Syslog: true})
	require.NoError(t, err)

	logger.Warn().Msg("warned")
	logger.Error().Msg("failed")
	closeFn()

	assert.Equal(t, SyslogTag, fake.tag)
	require.Len(t, fake.warnings, 1)
	assert.Contains(t, fake.warnings[0], "warned")
	require.Len(t, fake.errs, 1)
	assert.Contains(t, fake.errs[0], "failed")
	assert.True(t, fake.closed)
	assert.Contains(t, output.String(), "warned")
}

func TestNewSyslogUnavailable(t *testing.T) {
	setDialSyslogForTest(t, func(string) (syslogWriter, error) {
		return nil, errors.New("no /dev/log")
	})

	_, closeFn, err := New(Options{Output: &bytes.Buffer{}, Syslog: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no /dev/log")
	closeFn()
}
