package infisical

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

type secretRefSpec struct {
	secretName  string
	projectID   string
	environment string
}

func parseSecretRef(secretRef string) (secretRefSpec, error) {
	body, ok := stripInfisicalPrefix(strings.TrimSpace(secretRef))
	if !ok {
		return secretRefSpec{}, errors.New("invalid infisical secret ref")
	}
	body = strings.TrimPrefix(strings.TrimSpace(body), "//")

	secretNamePart := body
	queryString := ""
	if separatorIndex := strings.Index(body, "?"); separatorIndex >= 0 {
		secretNamePart = body[:separatorIndex]
		queryString = body[separatorIndex+1:]
	}

	secretName := strings.Trim(strings.TrimSpace(secretNamePart), "/")
	if secretName == "" {
		return secretRefSpec{}, errors.New("infisical secret ref is missing secret identifier")
	}

	queryValues, err := url.ParseQuery(queryString)
	if err != nil {
		return secretRefSpec{}, errors.Wrap(err, "invalid infisical secret ref query")
	}

	return secretRefSpec{
		secretName: secretName,
		projectID: firstNonEmpty(
			queryValues.Get("projectId"),
			queryValues.Get("projectID"),
			queryValues.Get("workspaceId"),
		),
		environment: firstNonEmpty(
			queryValues.Get("environment"),
			queryValues.Get("env"),
		),
	}, nil
}

func stripInfisicalPrefix(secretRef string) (string, bool) {
	for _, prefix := range []string{"infisical://", "inf://"} {
		if len(secretRef) >= len(prefix) && strings.EqualFold(secretRef[:len(prefix)], prefix) {
			return secretRef[len(prefix):], true
		}
	}
	return "", false
}
