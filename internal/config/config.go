// Package config loads the authorized keys command settings from the INI
// file that sshd's AuthorizedKeysCommand reads on every login.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

const (
	// DefaultPath is read when no --config flag is given.
	DefaultPath = "/etc/privacyidea/authorizedkeyscommand"
	// DefaultTimeout bounds each request to the privacyIDEA server.
	DefaultTimeout = 10 * time.Second

	sectionName = "Default"
)

// Config holds the settings of one invocation. It is not modified after Load.
type Config struct {
	URL         string
	Admin       string
	Password    string // #nosec G117 -- runtime-only credential read from a root-owned file
	PasswordRef string
	NoSSLCheck  bool
	Hostname    string
	Timeout     time.Duration
}

// Error reports a problem with the configuration file itself, as opposed to
// a failure while gathering runtime facts such as the local hostname.
type Error struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (configErr *Error) Error() string {
	return fmt.Sprintf("config %s: %v", configErr.Path, configErr.Err)
}

// Unwrap returns the underlying cause.
func (configErr *Error) Unwrap() error {
	return configErr.Err
}

var hostnameFunc = os.Hostname

// Load reads and validates the [Default] section of the file at path.
func Load(path string) (*Config, error) {
	section, err := loadSection(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	cfg, err := fromSection(section)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	if cfg.Hostname == "" {
		hostname, err := hostnameFunc()
		if err != nil {
			return nil, errors.Wrap(err, "determine local hostname")
		}
		cfg.Hostname = hostname
	}
	return cfg, nil
}

func loadSection(path string) (*ini.Section, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is empty")
	}

	// Passwords may contain '#', ';' or a trailing '\', so inline comments
	// and line continuations are not interpreted.
	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:         true,
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		PreserveSurroundedQuote: true,
	}, path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	section, err := file.GetSection(sectionName)
	if err != nil {
		return nil, errors.Errorf("missing section [%s]", sectionName)
	}
	return section, nil
}

func fromSection(section *ini.Section) (*Config, error) {
	rawURL, err := requiredValue(section, "url")
	if err != nil {
		return nil, err
	}
	serverURL, err := normalizeServerURL(rawURL)
	if err != nil {
		return nil, err
	}

	admin, err := requiredValue(section, "admin")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		URL:         serverURL,
		Admin:       admin,
		Password:    optionalValue(section, "password", false),
		PasswordRef: optionalValue(section, "passwordref", true),
		Hostname:    optionalValue(section, "hostname", true),
		Timeout:     DefaultTimeout,
	}

	switch {
	case cfg.Password == "" && cfg.PasswordRef == "":
		return nil, errors.New(`missing required key "password" in section [Default]`)
	case cfg.Password != "" && cfg.PasswordRef != "":
		return nil, errors.New(`keys "password" and "passwordref" are mutually exclusive`)
	}

	// An empty nosslcheck means false.
	if optionalValue(section, "nosslcheck", true) != "" {
		noSSLCheck, err := section.Key("nosslcheck").Bool()
		if err != nil {
			return nil, errors.Wrap(err, "invalid nosslcheck")
		}
		cfg.NoSSLCheck = noSSLCheck
	}

	if rawTimeout := optionalValue(section, "timeout", true); rawTimeout != "" {
		timeout, err := section.Key("timeout").Duration()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid timeout %q", rawTimeout)
		}
		if timeout <= 0 {
			return nil, errors.Errorf("invalid timeout %q: must be > 0", rawTimeout)
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}

func requiredValue(section *ini.Section, key string) (string, error) {
	value := optionalValue(section, key, true)
	if value == "" {
		return "", errors.Errorf("missing required key %q in section [%s]", key, sectionName)
	}
	return value, nil
}

// optionalValue returns the raw value or "" when the key is absent. The
// password is never trimmed.
func optionalValue(section *ini.Section, key string, trim bool) string {
	if !section.HasKey(key) {
		return ""
	}
	value := section.Key(key).String()
	if trim {
		return strings.TrimSpace(value)
	}
	return value
}

func normalizeServerURL(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid url")
	}
	if !strings.EqualFold(parsedURL.Scheme, "https") && !strings.EqualFold(parsedURL.Scheme, "http") {
		return "", errors.Errorf("invalid url %q: scheme must be http or https", rawURL)
	}
	if parsedURL.Host == "" {
		return "", errors.Errorf("invalid url %q: missing host", rawURL)
	}
	return strings.TrimRight(rawURL, "/"), nil
}
