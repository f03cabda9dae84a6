package provider

import (
	"encoding/json"
	"fmt"
)

// Settings is the per-family payload of a profile. Exactly one variant is
// set; the variant never changes after creation. The stored JSON shape is
// owned by the per-family encode/decode functions, so nothing outside this
// package reads payload keys by name.
type Settings struct {
	Claude *ClaudeSettings
	Codex  *CodexSettings
	Gemini *GeminiSettings
}

// AppType reports which family the payload belongs to, or "" when no variant
// is set.
func (s *Settings) AppType() AppType {
	switch {
	case s == nil:
		return ""
	case s.Claude != nil:
		return AppClaude
	case s.Codex != nil:
		return AppCodex
	case s.Gemini != nil:
		return AppGemini
	}
	return ""
}

// Validate checks the payload against its family's schema.
func (s *Settings) Validate() error {
	switch s.AppType() {
	case AppClaude:
		return nil
	case AppCodex:
		return s.Codex.validate()
	case AppGemini:
		return nil
	}
	return fmt.Errorf("%w: settings missing", ErrInvalidInput)
}

// Encode serializes the payload into its family's external JSON shape.
// Output is deterministic: object keys are sorted, empty optional fields are
// absent rather than empty.
func (s *Settings) Encode() (json.RawMessage, error) {
	switch s.AppType() {
	case AppClaude:
		return s.Claude.encode()
	case AppCodex:
		return s.Codex.encode()
	case AppGemini:
		return s.Gemini.encode()
	}
	return nil, fmt.Errorf("settings have no variant")
}

// DecodeSettings parses a stored payload for the given family. Unrecognized
// keys survive in the typed struct so a later encode round-trips them.
func DecodeSettings(at AppType, raw json.RawMessage) (*Settings, error) {
	switch at {
	case AppClaude:
		c, err := decodeClaude(raw)
		if err != nil {
			return nil, err
		}
		return &Settings{Claude: c}, nil
	case AppCodex:
		c, err := decodeCodex(raw)
		if err != nil {
			return nil, err
		}
		return &Settings{Codex: c}, nil
	case AppGemini:
		g, err := decodeGemini(raw)
		if err != nil {
			return nil, err
		}
		return &Settings{Gemini: g}, nil
	}
	return nil, fmt.Errorf("%w: unknown app type %q", ErrInvalidInput, at)
}

// Clone returns a deep copy.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	return &Settings{
		Claude: s.Claude.clone(),
		Codex:  s.Codex.clone(),
		Gemini: s.Gemini.clone(),
	}
}

// Secret returns the credential stored in the payload, or "" when the family
// mode stores none (gemini OAuth). Callers mask before display.
func (s *Settings) Secret() string {
	switch s.AppType() {
	case AppClaude:
		return s.Claude.AuthToken
	case AppCodex:
		return s.Codex.APIKey
	case AppGemini:
		return s.Gemini.APIKey
	}
	return ""
}

// BaseURL returns the endpoint the payload points at, or "".
func (s *Settings) BaseURL() string {
	switch s.AppType() {
	case AppClaude:
		return s.Claude.BaseURL
	case AppGemini:
		if s.Gemini.GatewayURL != "" {
			return s.Gemini.GatewayURL
		}
		return s.Gemini.BaseURL
	}
	return ""
}

// Model returns the default-tier model override, or "".
func (s *Settings) Model() string {
	if s.AppType() == AppClaude {
		return s.Claude.Model
	}
	return ""
}

// cloneStringMap copies m, returning nil for nil.
func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneRawMap copies a map of raw JSON values, returning nil for nil.
func cloneRawMap(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
