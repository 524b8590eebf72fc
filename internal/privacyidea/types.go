package privacyidea

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SSHKeyEntry is one SSH key attached to the machine. User is empty when the
// key was attached without naming a local account.
type SSHKeyEntry struct {
	User   string
	SSHKey string
}

// KeyInventory is the key list returned for one (hostname, user) pair, in
// server order. When Status is false Entries is nil and Message carries the
// server's error text, if any.
type KeyInventory struct {
	Status  bool
	Entries []SSHKeyEntry
	Message string
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (apiErr *apiError) String() string {
	if apiErr == nil || apiErr.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (code %d)", apiErr.Message, apiErr.Code)
}

// envelope is the common privacyIDEA response shape. Value is decoded only
// once Status is known, because failed requests may carry a non-object value.
type envelope struct {
	Result struct {
		Status *bool               `json:"status"`
		Value  jsoniter.RawMessage `json:"value"`
		Error  *apiError           `json:"error"`
	} `json:"result"`
}

type authValue struct {
	Token string `json:"token"`
}

type sshKeyItem struct {
	User   *string `json:"user"`
	SSHKey *string `json:"sshkey"`
}

type sshKeysValue struct {
	SSH *[]sshKeyItem `json:"ssh"`
}
