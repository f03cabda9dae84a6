package provider

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
)

const envCodexAPIKey = "OPENAI_API_KEY"

// DefaultCodexConfig is the config block used when a codex profile is created
// without one.
const DefaultCodexConfig = "base_url = \"https://api.openai.com\"\nmodel = \"gpt-4\""

// CodexSettings is the payload for codex-family tools: an auth block plus a
// free-form TOML config carried as text. The config must parse as TOML before
// it is accepted anywhere.
type CodexSettings struct {
	APIKey string
	Config string

	// ExtraAuth holds auth keys other producers wrote; kept as-is.
	ExtraAuth map[string]string
	// Extra holds top-level payload keys beside "auth" and "config".
	Extra map[string]json.RawMessage
}

func (c *CodexSettings) clone() *CodexSettings {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ExtraAuth = cloneStringMap(c.ExtraAuth)
	cp.Extra = cloneRawMap(c.Extra)
	return &cp
}

func (c *CodexSettings) validate() error {
	if c.Config == "" {
		return nil
	}
	return ValidateTOML(c.Config)
}

// ValidateTOML checks that text parses under the TOML grammar. The parser's
// diagnostic is preserved in the returned error.
func ValidateTOML(text string) error {
	var v map[string]any
	if err := toml.Unmarshal([]byte(text), &v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (c *CodexSettings) encode() (json.RawMessage, error) {
	auth := make(map[string]string, len(c.ExtraAuth)+1)
	for k, v := range c.ExtraAuth {
		auth[k] = v
	}
	if c.APIKey != "" {
		auth[envCodexAPIKey] = c.APIKey
	}

	authRaw, err := json.Marshal(auth)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["auth"] = authRaw
	if c.Config != "" {
		cfgRaw, err := json.Marshal(c.Config)
		if err != nil {
			return nil, err
		}
		out["config"] = cfgRaw
	}
	return json.Marshal(out)
}

func decodeCodex(raw json.RawMessage) (*CodexSettings, error) {
	c := &CodexSettings{}
	if len(raw) == 0 {
		return c, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("codex payload: %w", err)
	}
	for k, v := range top {
		switch k {
		case "auth", "config":
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]json.RawMessage)
			}
			c.Extra[k] = v
		}
	}
	if authRaw, ok := top["auth"]; ok {
		var auth map[string]string
		if err := json.Unmarshal(authRaw, &auth); err != nil {
			return nil, fmt.Errorf("codex auth block: %w", err)
		}
		for k, v := range auth {
			if k == envCodexAPIKey {
				c.APIKey = v
				continue
			}
			if c.ExtraAuth == nil {
				c.ExtraAuth = make(map[string]string)
			}
			c.ExtraAuth[k] = v
		}
	}
	if cfgRaw, ok := top["config"]; ok {
		if err := json.Unmarshal(cfgRaw, &c.Config); err != nil {
			return nil, fmt.Errorf("codex config block: %w", err)
		}
	}
	return c, nil
}
