// Package infisical resolves infisical://NAME?projectId=...&environment=...
// references through the Infisical Go SDK using universal auth.
package infisical

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"privacyidea-sshkeys/providers"
)

type provider struct{}

func init() {
	providers.RegisterProvider(provider{})
}

func (provider) Name() string {
	return "infisical"
}

func (provider) Supports(secretRef string) bool {
	_, ok := stripInfisicalPrefix(strings.TrimSpace(secretRef))
	return ok
}

func (provider) Resolve(ctx context.Context, secretRef string) (string, error) {
	secretSpec, err := parseSecretRef(secretRef)
	if err != nil {
		return "", err
	}

	resolvedConfig, err := loadSDKRuntimeConfig(secretSpec)
	if err != nil {
		return "", err
	}

	client := newInfisicalSDKClient(ctx, resolvedConfig.siteURL)
	if err := client.LoginUniversalAuth(
		resolvedConfig.clientID,
		resolvedConfig.clientSecret,
		resolvedConfig.organizationSlug,
	); err != nil {
		return "", err
	}

	secretValue, err := client.RetrieveSecret(sdkRetrieveSecretOptions{
		secretKey:   secretSpec.secretName,
		projectID:   resolvedConfig.projectID,
		environment: resolvedConfig.environment,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(secretValue) == "" {
		return "", errors.New("infisical response did not contain a non-empty secret value")
	}
	return secretValue, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
