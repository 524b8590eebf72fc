// Package privacyidea talks to the two privacyIDEA endpoints the authorized
// keys command needs: /auth for an admin token and /machine/authitem/ssh for
// the keys attached to a machine.
package privacyidea

import (
	"bytes"
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	authPath    = "/auth"
	sshKeysPath = "/machine/authitem/ssh"

	// AuthorizationHeader carries the token returned by /auth.
	AuthorizationHeader = "PI-Authorization"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. https://privacyidea.example.
	BaseURL string
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// Timeout applies to each request. Zero means no timeout.
	Timeout   time.Duration
	UserAgent string
}

// Client issues requests against one privacyIDEA server. It does not retry.
type Client struct {
	http *resty.Client
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		httpClient.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.InsecureSkipVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402 -- explicitly enabled via nosslcheck
	}
	return &Client{http: httpClient}
}

// Authenticate exchanges admin credentials for a token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	response, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		Post(authPath)
	if err != nil {
		return "", errors.Wrap(err, "privacyidea auth request failed")
	}

	payload, err := decodeEnvelope(response.Body(), response.StatusCode())
	if err != nil {
		return "", errors.WithMessage(err, "privacyidea auth")
	}

	// A failed login carries "value": false, which is simply not a token.
	var value authValue
	if rawValue := bytes.TrimSpace(payload.Result.Value); len(rawValue) > 0 && rawValue[0] == '{' {
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return "", errors.Wrap(err, "decode privacyidea auth token")
		}
	}
	token := strings.TrimSpace(value.Token)
	if token == "" {
		return "", errors.Errorf("privacyidea auth response did not contain a token (HTTP %d)%s",
			response.StatusCode(), serverMessage(payload.Result.Error))
	}
	return token, nil
}

// FetchSSHKeys returns the SSH keys attached to hostname for user. A response
// with status false is returned as an inventory with Status false, not as an
// error.
func (c *Client) FetchSSHKeys(ctx context.Context, token, hostname, user string) (*KeyInventory, error) {
	response, err := c.http.R().
		SetContext(ctx).
		SetHeader(AuthorizationHeader, token).
		SetQueryParams(map[string]string{
			"hostname": hostname,
			"user":     user,
		}).
		Get(sshKeysPath)
	if err != nil {
		return nil, errors.Wrap(err, "privacyidea ssh key request failed")
	}

	payload, err := decodeEnvelope(response.Body(), response.StatusCode())
	if err != nil {
		return nil, errors.WithMessage(err, "privacyidea ssh keys")
	}
	if payload.Result.Status == nil {
		return nil, errors.Errorf("privacyidea ssh keys response has no result.status (HTTP %d)", response.StatusCode())
	}
	if !*payload.Result.Status {
		return &KeyInventory{Status: false, Message: payload.Result.Error.String()}, nil
	}

	var value sshKeysValue
	if len(payload.Result.Value) > 0 {
		if err := json.Unmarshal(payload.Result.Value, &value); err != nil {
			return nil, errors.Wrap(err, "decode privacyidea ssh key list")
		}
	}
	if value.SSH == nil {
		return nil, errors.New("privacyidea ssh keys response has no result.value.ssh")
	}

	entries := make([]SSHKeyEntry, 0, len(*value.SSH))
	for index, item := range *value.SSH {
		if item.SSHKey == nil {
			return nil, errors.Errorf("privacyidea ssh key entry %d has no sshkey", index)
		}
		entry := SSHKeyEntry{SSHKey: *item.SSHKey}
		if item.User != nil {
			entry.User = *item.User
		}
		entries = append(entries, entry)
	}
	return &KeyInventory{Status: true, Entries: entries}, nil
}

func decodeEnvelope(body []byte, statusCode int) (*envelope, error) {
	var payload envelope
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrapf(err, "decode response (HTTP %d)", statusCode)
	}
	return &payload, nil
}

func serverMessage(apiErr *apiError) string {
	if message := apiErr.String(); message != "" {
		return ": " + message
	}
	return ""
}
