// Package providers resolves secret references such as env://NAME or
// infisical://NAME so the admin password does not have to be stored in the
// configuration file.
package providers

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type Provider interface {
	Name() string
	Supports(ref string) bool
	Resolve(ctx context.Context, ref string) (string, error)
}

var (
	providerRegistryMu sync.RWMutex
	providerRegistry   []Provider
)

// RegisterProvider adds provider unless one with the same name exists.
func RegisterProvider(provider Provider) {
	if provider == nil {
		return
	}

	providerName := strings.TrimSpace(provider.Name())
	if providerName == "" {
		return
	}

	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()

	for _, registeredProvider := range providerRegistry {
		if strings.EqualFold(strings.TrimSpace(registeredProvider.Name()), providerName) {
			return
		}
	}
	providerRegistry = append(providerRegistry, provider)
}

func DefaultProviders() []Provider {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()

	registeredProviders := make([]Provider, len(providerRegistry))
	copy(registeredProviders, providerRegistry)
	return registeredProviders
}

// ResolveSecretReference asks every provider that supports secretRef in turn
// and returns the first non-empty value. Secret values are never trimmed.
func ResolveSecretReference(ctx context.Context, secretRef string, providers []Provider) (string, error) {
	trimmedRef := strings.TrimSpace(secretRef)
	if trimmedRef == "" {
		return "", errors.New("secret reference is empty")
	}

	var resolveErrors []string
	for _, provider := range providers {
		if !provider.Supports(trimmedRef) {
			continue
		}

		resolvedValue, err := provider.Resolve(ctx, trimmedRef)
		if err == nil {
			if strings.TrimSpace(resolvedValue) == "" {
				return "", errors.Errorf("%s returned an empty secret", provider.Name())
			}
			return resolvedValue, nil
		}
		resolveErrors = append(resolveErrors, provider.Name()+": "+err.Error())
	}

	if len(resolveErrors) == 0 {
		return "", errors.Errorf("no provider supports secret reference %q", redactRef(trimmedRef))
	}
	return "", errors.Errorf("resolve %q failed (%s)", redactRef(trimmedRef), strings.Join(resolveErrors, "; "))
}

// redactRef keeps the scheme so operators can tell which provider failed.
func redactRef(secretRef string) string {
	if schemeEnd := strings.Index(secretRef, "://"); schemeEnd >= 0 {
		return secretRef[:schemeEnd+3] + "..."
	}
	return "..."
}
