package infisical

import (
	"context"
	"net/url"
	"os"
	"strings"

	infisicalsdk "github.com/infisical/go-sdk"
	"github.com/pkg/errors"
)

const defaultInfisicalSiteURL = "https://app.infisical.com"

type sdkRuntimeConfig struct {
	siteURL          string
	projectID        string
	environment      string
	clientID         string
	clientSecret     string
	organizationSlug string
}

type sdkRetrieveSecretOptions struct {
	secretKey   string
	projectID   string
	environment string
}

type infisicalSDKClient interface {
	LoginUniversalAuth(clientID, clientSecret, organizationSlug string) error
	RetrieveSecret(options sdkRetrieveSecretOptions) (string, error)
}

type infisicalSDKAdapter struct {
	client infisicalsdk.InfisicalClientInterface
}

var (
	envGetter = os.Getenv

	newInfisicalSDKClient = func(ctx context.Context, siteURL string) infisicalSDKClient {
		return &infisicalSDKAdapter{
			client: infisicalsdk.NewInfisicalClient(ctx, infisicalsdk.Config{SiteUrl: siteURL}),
		}
	}
)

func loadSDKRuntimeConfig(secretSpec secretRefSpec) (sdkRuntimeConfig, error) {
	normalizedSiteURL, err := normalizeInfisicalSiteURL(firstNonEmpty(
		envGetter("INFISICAL_SITE_URL"),
		defaultInfisicalSiteURL,
	))
	if err != nil {
		return sdkRuntimeConfig{}, err
	}

	resolvedConfig := sdkRuntimeConfig{
		siteURL:          normalizedSiteURL,
		clientID:         strings.TrimSpace(envGetter("INFISICAL_UNIVERSAL_AUTH_CLIENT_ID")),
		clientSecret:     strings.TrimSpace(envGetter("INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET")),
		projectID:        firstNonEmpty(secretSpec.projectID, envGetter("INFISICAL_PROJECT_ID")),
		environment:      firstNonEmpty(secretSpec.environment, envGetter("INFISICAL_ENV")),
		organizationSlug: strings.TrimSpace(envGetter("INFISICAL_AUTH_ORGANIZATION_SLUG")),
	}

	if resolvedConfig.clientID == "" {
		return sdkRuntimeConfig{}, errors.New("infisical universal auth client id is required (set INFISICAL_UNIVERSAL_AUTH_CLIENT_ID)")
	}
	if resolvedConfig.clientSecret == "" {
		return sdkRuntimeConfig{}, errors.New("infisical universal auth client secret is required (set INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET)")
	}
	if resolvedConfig.projectID == "" {
		return sdkRuntimeConfig{}, errors.New("infisical project id is required (set INFISICAL_PROJECT_ID or projectId=)")
	}
	if resolvedConfig.environment == "" {
		return sdkRuntimeConfig{}, errors.New("infisical environment is required (set INFISICAL_ENV or environment=)")
	}

	return resolvedConfig, nil
}

func (adapter *infisicalSDKAdapter) LoginUniversalAuth(clientID, clientSecret, organizationSlug string) error {
	authClient := adapter.client.Auth()
	if organizationSlug != "" {
		authClient = authClient.WithOrganizationSlug(organizationSlug)
	}

	if _, err := authClient.UniversalAuthLogin(clientID, clientSecret); err != nil {
		return errors.Wrap(err, "infisical universal auth login failed")
	}
	return nil
}

func (adapter *infisicalSDKAdapter) RetrieveSecret(options sdkRetrieveSecretOptions) (string, error) {
	secret, err := adapter.client.Secrets().Retrieve(infisicalsdk.RetrieveSecretOptions{
		SecretKey:   options.secretKey,
		ProjectID:   options.projectID,
		Environment: options.environment,
	})
	if err != nil {
		return "", errors.Wrap(err, "infisical secret retrieval failed")
	}
	return secret.SecretValue, nil
}

func normalizeInfisicalSiteURL(rawSiteURL string) (string, error) {
	parsedSiteURL, err := url.Parse(strings.TrimSpace(rawSiteURL))
	if err != nil {
		return "", errors.Wrap(err, "invalid infisical site url")
	}
	if !strings.EqualFold(parsedSiteURL.Scheme, "https") {
		return "", errors.New("infisical site url must use https")
	}
	if strings.TrimSpace(parsedSiteURL.Host) == "" {
		return "", errors.New("infisical site url must include a host")
	}
	if parsedSiteURL.Path != "" && parsedSiteURL.Path != "/" {
		return "", errors.New("infisical site url must not include a path")
	}
	return parsedSiteURL.Scheme + "://" + parsedSiteURL.Host, nil
}
