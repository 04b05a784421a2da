package api

import (
	"bytes"
	"encoding/json"
)

// Metadata is everything in the server's {success, message, data, errors, timestamp,
// status, path} envelope apart from data.
type Metadata struct {
	Success   *bool    `json:"success"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors"`
	Timestamp string   `json:"timestamp"`
	Status    int      `json:"status"`
	Path      string   `json:"path"`
}

type envelope struct {
	Metadata
	Data json.RawMessage `json:"data"`
}

// isEnvelope reports whether raw is a JSON object carrying a success flag.
func isEnvelope(raw []byte) (*envelope, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	if _, ok := fields["success"]; !ok {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	return &env, true
}

// ExtractData decodes the envelope's data into out, or the whole body when the response
// is not enveloped.
func ExtractData(raw []byte, out any) error {
	if env, ok := isEnvelope(raw); ok {
		if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
			return nil
		}
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}

// ResponseMetadata returns the envelope fields of raw, if it is enveloped.
func ResponseMetadata(raw []byte) (Metadata, bool) {
	env, ok := isEnvelope(raw)
	if !ok {
		return Metadata{}, false
	}
	return env.Metadata, true
}
