package provider

import (
	"encoding/json"
	"fmt"
)

// Env keys the claude codec manages. Everything else in the env block is
// preserved verbatim.
const (
	envClaudeAuthToken = "ANTHROPIC_AUTH_TOKEN"
	envClaudeBaseURL   = "ANTHROPIC_BASE_URL"
	envClaudeModel     = "ANTHROPIC_MODEL"
	envClaudeHaiku     = "ANTHROPIC_DEFAULT_HAIKU_MODEL"
	envClaudeSonnet    = "ANTHROPIC_DEFAULT_SONNET_MODEL"
	envClaudeOpus      = "ANTHROPIC_DEFAULT_OPUS_MODEL"
)

// ClaudeSettings is the payload for claude-family tools: an env block the CLI
// reads at startup. The four model overrides are optional; an empty string
// means the key is absent from the stored payload.
type ClaudeSettings struct {
	AuthToken   string
	BaseURL     string
	Model       string
	HaikuModel  string
	SonnetModel string
	OpusModel   string

	// ExtraEnv holds env keys other producers wrote; kept as-is across edits.
	ExtraEnv map[string]string
	// Extra holds top-level payload keys beside "env"; kept as-is.
	Extra map[string]json.RawMessage
}

func (c *ClaudeSettings) clone() *ClaudeSettings {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ExtraEnv = cloneStringMap(c.ExtraEnv)
	cp.Extra = cloneRawMap(c.Extra)
	return &cp
}

func (c *ClaudeSettings) encode() (json.RawMessage, error) {
	env := make(map[string]string, len(c.ExtraEnv)+6)
	for k, v := range c.ExtraEnv {
		env[k] = v
	}
	for k, v := range map[string]string{
		envClaudeAuthToken: c.AuthToken,
		envClaudeBaseURL:   c.BaseURL,
		envClaudeModel:     c.Model,
		envClaudeHaiku:     c.HaikuModel,
		envClaudeSonnet:    c.SonnetModel,
		envClaudeOpus:      c.OpusModel,
	} {
		if v != "" {
			env[k] = v
		}
	}

	envRaw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(c.Extra)+1)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["env"] = envRaw
	return json.Marshal(out)
}

func decodeClaude(raw json.RawMessage) (*ClaudeSettings, error) {
	c := &ClaudeSettings{}
	if len(raw) == 0 {
		return c, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("claude payload: %w", err)
	}
	for k, v := range top {
		if k == "env" {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[k] = v
	}
	if envRaw, ok := top["env"]; ok {
		var env map[string]string
		if err := json.Unmarshal(envRaw, &env); err != nil {
			return nil, fmt.Errorf("claude env block: %w", err)
		}
		for k, v := range env {
			switch k {
			case envClaudeAuthToken:
				c.AuthToken = v
			case envClaudeBaseURL:
				c.BaseURL = v
			case envClaudeModel:
				c.Model = v
			case envClaudeHaiku:
				c.HaikuModel = v
			case envClaudeSonnet:
				c.SonnetModel = v
			case envClaudeOpus:
				c.OpusModel = v
			default:
				if c.ExtraEnv == nil {
					c.ExtraEnv = make(map[string]string)
				}
				c.ExtraEnv[k] = v
			}
		}
	}
	return c, nil
}
