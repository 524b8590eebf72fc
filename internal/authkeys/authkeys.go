// Package authkeys selects the keys that belong to a local account and writes
// them in the one-key-per-line form sshd reads from AuthorizedKeysCommand.
package authkeys

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"privacyidea-sshkeys/internal/privacyidea"
)

// FallbackUser owns keys that the server returns without a user.
const FallbackUser = "root"

// EffectiveUser returns the account an entry is attributed to.
func EffectiveUser(entry privacyidea.SSHKeyEntry) string {
	if entry.User == "" {
		return FallbackUser
	}
	return entry.User
}

// Select returns the keys whose effective user is user, in inventory order.
// Duplicates are kept.
func Select(entries []privacyidea.SSHKeyEntry, user string) []string {
	var keys []string
	for _, entry := range entries {
		if EffectiveUser(entry) == user {
			keys = append(keys, entry.SSHKey)
		}
	}
	return keys
}

// Write prints each key followed by a newline.
func Write(w io.Writer, keys []string) error {
	buffered := bufio.NewWriter(w)
	for _, key := range keys {
		if _, err := buffered.WriteString(key + "\n"); err != nil {
			return errors.Wrap(err, "write authorized key")
		}
	}
	return errors.Wrap(buffered.Flush(), "write authorized keys")
}

// Fingerprint returns the SHA256 fingerprint of an authorized_keys line. It is
// used for logging only; keys that do not parse are still emitted.
func Fingerprint(key string) (string, error) {
	publicKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key))
	if err != nil {
		return "", errors.Wrap(err, "parse authorized key")
	}
	return ssh.FingerprintSHA256(publicKey), nil
}
