package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"privacyidea-sshkeys/internal/config"
	"privacyidea-sshkeys/internal/logging"
)

// commandFlags groups all command-line flags.
type commandFlags struct {
	configPath string
	noSSLCheck bool
	debug      bool
	syslog     bool
	timeout    time.Duration
}

func (flags *commandFlags) errorMode() ErrorMode {
	if flags.debug {
		return PropagateErrors
	}
	return ReportErrors
}

func newRootCommand(stdout, stderr io.Writer) (*cobra.Command, *commandFlags) {
	flags := &commandFlags{}

	command := &cobra.Command{
		Use:   "privacyidea-sshkeys <user>",
		Short: "Print the SSH keys privacyIDEA assigns to a user on this machine.",
		Long: "Fetches the SSH public keys attached to this machine for <user> from privacyIDEA\n" +
			"and prints them one per line. Intended for sshd's AuthorizedKeysCommand.",
		Args:          cobra.ExactArgs(1),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := logging.New(logging.Options{
				Output: stderr,
				Debug:  flags.debug,
				Syslog: flags.syslog,
			})
			if err != nil {
				logger, closeLog, _ = logging.New(logging.Options{Output: stderr, Debug: flags.debug})
				logger.Warn().Err(err).Msg("syslog unavailable, logging to stderr only")
			}
			defer closeLog()

			return run(cmd.Context(), runOptions{
				configPath: flags.configPath,
				user:       args[0],
				noSSLCheck: flags.noSSLCheck,
				timeout:    flags.timeout,
			}, cmd.OutOrStdout(), logger)
		},
	}
	command.SetOut(stdout)
	command.SetErr(stderr)
	command.SetVersionTemplate("privacyidea-sshkeys {{.Version}}\n")

	commandFlagSet := command.Flags()
	commandFlagSet.StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "Path to the INI configuration file")
	commandFlagSet.BoolVar(&flags.noSSLCheck, "nosslcheck", false, "Do not check SSL certificates")
	commandFlagSet.BoolVar(&flags.debug, "debug", false, "Log debug messages and let failures panic with a full trace")
	commandFlagSet.BoolVar(&flags.syslog, "syslog", false, "Also log to syslog (facility AUTH)")
	commandFlagSet.DurationVar(&flags.timeout, "timeout", 0, "Per-request timeout, overrides the config file (e.g. 5s)")

	return command, flags
}
