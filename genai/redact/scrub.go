// Package redact masks credential values in JSON documents before they are displayed.
package redact

import (
	"encoding/json"
	"strings"
)

// Mask replaces redacted values.
const Mask = "****"

// DefaultKeys are the credential fields of endpoint registry entries and provider payloads.
var DefaultKeys = []string{
	"api_key", "apikey", "authorization", "cdp_token", "access_token", "aws_secret_access_key", "secret", "token",
}

// ScrubJSON marshals value and masks non-empty values of keys (case-insensitive); no keys uses DefaultKeys.
func ScrubJSON(value interface{}, keys ...string) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return ScrubJSONBytes(data, keys...)
}

// ScrubJSONBytes masks values of keys in a JSON document.
func ScrubJSONBytes(data []byte, keys ...string) ([]byte, error) {
	if len(keys) == 0 {
		keys = DefaultKeys
	}
	index := make(map[string]bool, len(keys))
	for _, k := range keys {
		index[strings.ToLower(strings.TrimSpace(k))] = true
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(scrub(v, index))
}

func scrub(v interface{}, keys map[string]bool) interface{} {
	switch actual := v.(type) {
	case map[string]interface{}:
		for k, item := range actual {
			if keys[strings.ToLower(k)] {
				if s, ok := item.(string); ok && s == "" {
					continue
				}
				actual[k] = Mask
				continue
			}
			actual[k] = scrub(item, keys)
		}
	case []interface{}:
		for i := range actual {
			actual[i] = scrub(actual[i], keys)
		}
	}
	return v
}
