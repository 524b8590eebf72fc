// Package env resolves env://NAME references from the process environment.
package env

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"

	"privacyidea-sshkeys/providers"
)

const scheme = "env://"

type provider struct{}

var lookupEnv = os.LookupEnv

func init() {
	providers.RegisterProvider(provider{})
}

func (provider) Name() string {
	return "env"
}

func (provider) Supports(secretRef string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(secretRef)), scheme)
}

func (envProvider provider) Resolve(_ context.Context, secretRef string) (string, error) {
	if !envProvider.Supports(secretRef) {
		return "", errors.New("invalid env secret ref")
	}
	variableName := strings.TrimSpace(strings.TrimSpace(secretRef)[len(scheme):])
	if variableName == "" {
		return "", errors.New("env secret ref is missing a variable name")
	}

	value, exists := lookupEnv(variableName)
	if !exists || strings.TrimSpace(value) == "" {
		return "", errors.Errorf("environment variable %s is not set", variableName)
	}
	return value, nil
}
