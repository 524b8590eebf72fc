package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"privacyidea-sshkeys/internal/authkeys"
	"privacyidea-sshkeys/internal/config"
	"privacyidea-sshkeys/internal/privacyidea"
	"privacyidea-sshkeys/providers"
)

type runOptions struct {
	configPath string
	user       string
	noSSLCheck bool
	timeout    time.Duration
}

// run loads the configuration, authenticates, fetches the machine's keys and
// prints the ones that belong to opts.user.
func run(ctx context.Context, opts runOptions, stdout io.Writer, logger zerolog.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		var configErr *config.Error
		if errors.As(err, &configErr) {
			return fail(exitConfig, err)
		}
		return fail(exitRuntime, err)
	}

	noSSLCheck := cfg.NoSSLCheck || opts.noSSLCheck
	timeout := cfg.Timeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}
	if noSSLCheck {
		logger.Warn().Str("url", cfg.URL).Msg("TLS certificate verification is disabled")
	}

	password, err := adminPassword(ctx, cfg)
	if err != nil {
		return fail(exitRuntime, err)
	}

	client := privacyidea.NewClient(privacyidea.Options{
		BaseURL:            cfg.URL,
		InsecureSkipVerify: noSSLCheck,
		Timeout:            timeout,
		UserAgent:          "privacyidea-sshkeys/" + version,
	})

	logger.Debug().Str("url", cfg.URL).Str("admin", cfg.Admin).Msg("authenticating")
	token, err := client.Authenticate(ctx, cfg.Admin, password)
	if err != nil {
		return fail(exitRuntime, err)
	}

	logger.Debug().Str("hostname", cfg.Hostname).Str("user", opts.user).Msg("fetching ssh keys")
	inventory, err := client.FetchSSHKeys(ctx, token, cfg.Hostname, opts.user)
	if err != nil {
		return fail(exitRuntime, err)
	}
	if !inventory.Status {
		logger.Warn().Str("hostname", cfg.Hostname).Str("user", opts.user).Str("reason", inventory.Message).
			Msg("privacyidea refused the ssh key request")
		fmt.Fprintln(stdout, fetchErrorMessage)
		return nil
	}

	keys := authkeys.Select(inventory.Entries, opts.user)
	logKeys(logger, opts.user, len(inventory.Entries), keys)
	if err := authkeys.Write(stdout, keys); err != nil {
		return fail(exitRuntime, err)
	}
	return nil
}

func adminPassword(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.PasswordRef == "" {
		return cfg.Password, nil
	}
	password, err := providers.ResolveSecretReference(ctx, cfg.PasswordRef, providers.DefaultProviders())
	if err != nil {
		return "", errors.WithMessage(err, "resolve admin password")
	}
	return password, nil
}

func logKeys(logger zerolog.Logger, user string, total int, keys []string) {
	logger.Debug().Str("user", user).Int("received", total).Int("matched", len(keys)).Msg("selected ssh keys")
	for _, key := range keys {
		fingerprint, err := authkeys.Fingerprint(key)
		if err != nil {
			logger.Warn().Err(err).Str("user", user).Msg("emitting key that does not parse as an authorized_keys line")
			continue
		}
		logger.Debug().Str("user", user).Str("fingerprint", fingerprint).Msg("emitting key")
	}
}
