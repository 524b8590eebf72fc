package infisical

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSDKClient struct {
	siteURL    string
	loginCalls int
	loginInput struct {
		clientID         string
		clientSecret     string
		organizationSlug string
	}
	loginErr error

	retrieveCalls int
	retrieveInput sdkRetrieveSecretOptions
	retrieveValue string
	retrieveErr   error
}

func (f *fakeSDKClient) LoginUniversalAuth(clientID, clientSecret, organizationSlug string) error {
	f.loginCalls++
	f.loginInput.clientID = clientID
	f.loginInput.clientSecret = clientSecret
	f.loginInput.organizationSlug = organizationSlug
	return f.loginErr
}

func (f *fakeSDKClient) RetrieveSecret(options sdkRetrieveSecretOptions) (string, error) {
	f.retrieveCalls++
	f.retrieveInput = options
	if f.retrieveErr != nil {
		return "", f.retrieveErr
	}
	return f.retrieveValue, nil
}

func setEnvGetterForTest(t *testing.T, valueMap map[string]string) {
	t.Helper()
	originalEnvGetter := envGetter
	envGetter = func(key string) string {
		return valueMap[key]
	}
	t.Cleanup(func() {
		envGetter = originalEnvGetter
	})
}

func setSDKClientForTest(t *testing.T, fake *fakeSDKClient) {
	t.Helper()
	originalFactory := newInfisicalSDKClient
	newInfisicalSDKClient = func(_ context.Context, siteURL string) infisicalSDKClient {
		fake.siteURL = siteURL
		return fake
	}
	t.Cleanup(func() {
		newInfisicalSDKClient = originalFactory
	})
}

var completeEnv = map[string]string{
	"INFISICAL_UNIVERSAL_AUTH_CLIENT_ID":     "client-1",
	"INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET": "secret-1",
	"INFISICAL_PROJECT_ID":                   "project-env",
	"INFISICAL_ENV":                          "prod",
}

func TestSupports(t *testing.T) {
	assert.True(t, provider{}.Supports("infisical://pi-admin"))
	assert.True(t, provider{}.Supports(" INF://pi-admin"))
	assert.False(t, provider{}.Supports("env://PI"))
	assert.False(t, provider{}.Supports("inf"))
}

func TestParseSecretRef(t *testing.T) {
	spec, err := parseSecretRef("infisical://ops/pi-admin/?projectId=p-1&env=staging")
	require.NoError(t, err)
	assert.Equal(t, secretRefSpec{secretName: "ops/pi-admin", projectID: "p-1", environment: "staging"}, spec)

	_, err = parseSecretRef("infisical://?projectId=p-1")
	assert.ErrorContains(t, err, "missing secret identifier")

	_, err = parseSecretRef("infisical://name?%zz")
	assert.ErrorContains(t, err, "invalid infisical secret ref query")
}

func TestResolveUsesSDK(t *testing.T) {
	setEnvGetterForTest(t, map[string]string{
		"INFISICAL_UNIVERSAL_AUTH_CLIENT_ID":     "client-1",
		"INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET": "secret-1",
		"INFISICAL_AUTH_ORGANIZATION_SLUG":       "uni",
		"INFISICAL_SITE_URL":                     "https://vault.example/",
		"INFISICAL_PROJECT_ID":                   "project-env",
		"INFISICAL_ENV":                          "prod",
	})
	fake := &fakeSDKClient{retrieveValue: "pi-admin-password"}
	setSDKClientForTest(t, fake)

	value, err := provider{}.Resolve(context.Background(), "infisical://pi-admin?environment=dev")
	require.NoError(t, err)
	assert.Equal(t, "pi-admin-password", value)
	assert.Equal(t, "https://vault.example", fake.siteURL)
	assert.Equal(t, "client-1", fake.loginInput.clientID)
	assert.Equal(t, "secret-1", fake.loginInput.clientSecret)
	assert.Equal(t, "uni", fake.loginInput.organizationSlug)
	assert.Equal(t, sdkRetrieveSecretOptions{secretKey: "pi-admin", projectID: "project-env", environment: "dev"}, fake.retrieveInput)
}

func TestResolveLoginFailureSkipsRetrieve(t *testing.T) {
	setEnvGetterForTest(t, completeEnv)
	fake := &fakeSDKClient{loginErr: errors.New("invalid client secret")}
	setSDKClientForTest(t, fake)

	_, err := provider{}.Resolve(context.Background(), "infisical://pi-admin")
	require.Error(t, err)
	assert.Equal(t, 1, fake.loginCalls)
	assert.Equal(t, 0, fake.retrieveCalls)
}

func TestResolveEmptySecret(t *testing.T) {
	setEnvGetterForTest(t, completeEnv)
	setSDKClientForTest(t, &fakeSDKClient{retrieveValue: "   "})

	_, err := provider{}.Resolve(context.Background(), "infisical://pi-admin")
	assert.ErrorContains(t, err, "non-empty secret value")
}

func TestLoadSDKRuntimeConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		drop    string
		extra   map[string]string
		wantMsg string
	}{
		{name: "missingClientID", drop: "INFISICAL_UNIVERSAL_AUTH_CLIENT_ID", wantMsg: "INFISICAL_UNIVERSAL_AUTH_CLIENT_ID"},
		{name: "missingClientSecret", drop: "INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET", wantMsg: "INFISICAL_UNIVERSAL_AUTH_CLIENT_SECRET"},
		{name: "missingProject", drop: "INFISICAL_PROJECT_ID", wantMsg: "INFISICAL_PROJECT_ID"},
		{name: "missingEnvironment", drop: "INFISICAL_ENV", wantMsg: "INFISICAL_ENV"},
		{name: "plainHTTP", extra: map[string]string{"INFISICAL_SITE_URL": "http://vault.example"}, wantMsg: "must use https"},
		{name: "withPath", extra: map[string]string{"INFISICAL_SITE_URL": "https://vault.example/api"}, wantMsg: "must not include a path"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			values := map[string]string{}
			for key, value := range completeEnv {
				if key != testCase.drop {
					values[key] = value
				}
			}
			for key, value := range testCase.extra {
				values[key] = value
			}
			setEnvGetterForTest(t, values)

			_, err := loadSDKRuntimeConfig(secretRefSpec{secretName: "pi-admin"})
			assert.ErrorContains(t, err, testCase.wantMsg)
		})
	}
}
