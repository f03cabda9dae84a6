package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Env keys the gemini codec manages.
const (
	envGeminiAPIKey     = "GEMINI_API_KEY"
	envGeminiGatewayURL = "GOOGLE_GEMINI_BASE_URL"
	envGeminiBaseURL    = "BASE_URL"
)

// geminiGatewayMarker identifies the hosted PackyCode gateway in a base URL.
const geminiGatewayMarker = "packycode"

// GeminiMode is the auth mode of a gemini payload. It is inferred from the
// payload shape, never stored.
type GeminiMode string

const (
	// GeminiOAuth stores no secrets; the CLI handles Google login itself.
	GeminiOAuth GeminiMode = "oauth"
	// GeminiPackycode uses an API key against the hosted PackyCode gateway.
	GeminiPackycode GeminiMode = "packycode"
	// GeminiGeneric uses an API key against an arbitrary endpoint.
	GeminiGeneric GeminiMode = "generic"
	// GeminiUnknown means the payload shape fits no mode: no API key, but the
	// env block is not empty. Selection UIs fall back to a default option;
	// the payload itself is left alone.
	GeminiUnknown GeminiMode = ""
)

// GeminiSettings is the payload for gemini-family tools: an env block plus a
// config object carried verbatim.
type GeminiSettings struct {
	APIKey     string
	GatewayURL string // hosted gateway endpoint
	BaseURL    string // generic endpoint

	// ExtraEnv holds env keys other producers wrote; kept as-is.
	ExtraEnv map[string]string
	// Config is the config object, round-tripped untouched. Encoded as {}
	// when empty.
	Config json.RawMessage
	// Extra holds top-level payload keys beside "env" and "config".
	Extra map[string]json.RawMessage
}

func (g *GeminiSettings) clone() *GeminiSettings {
	if g == nil {
		return nil
	}
	cp := *g
	cp.ExtraEnv = cloneStringMap(g.ExtraEnv)
	cp.Config = append(json.RawMessage(nil), g.Config...)
	cp.Extra = cloneRawMap(g.Extra)
	return &cp
}

// Mode infers the auth mode from the payload shape: an API key whose gateway
// URL mentions the hosted gateway is packycode, any other API key is generic,
// a fully empty env block is oauth, anything else is unknown.
func (g *GeminiSettings) Mode() GeminiMode {
	if g.APIKey != "" {
		if strings.Contains(g.GatewayURL, geminiGatewayMarker) {
			return GeminiPackycode
		}
		return GeminiGeneric
	}
	if g.GatewayURL == "" && g.BaseURL == "" && len(g.ExtraEnv) == 0 {
		return GeminiOAuth
	}
	return GeminiUnknown
}

func (g *GeminiSettings) encode() (json.RawMessage, error) {
	env := make(map[string]string, len(g.ExtraEnv)+3)
	for k, v := range g.ExtraEnv {
		env[k] = v
	}
	for k, v := range map[string]string{
		envGeminiAPIKey:     g.APIKey,
		envGeminiGatewayURL: g.GatewayURL,
		envGeminiBaseURL:    g.BaseURL,
	} {
		if v != "" {
			env[k] = v
		}
	}

	envRaw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	cfg := g.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage(`{}`)
	}
	out := make(map[string]json.RawMessage, len(g.Extra)+2)
	for k, v := range g.Extra {
		out[k] = v
	}
	out["env"] = envRaw
	out["config"] = cfg
	return json.Marshal(out)
}

func decodeGemini(raw json.RawMessage) (*GeminiSettings, error) {
	g := &GeminiSettings{}
	if len(raw) == 0 {
		return g, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("gemini payload: %w", err)
	}
	for k, v := range top {
		switch k {
		case "env":
		case "config":
			g.Config = v
		default:
			if g.Extra == nil {
				g.Extra = make(map[string]json.RawMessage)
			}
			g.Extra[k] = v
		}
	}
	if envRaw, ok := top["env"]; ok {
		var env map[string]string
		if err := json.Unmarshal(envRaw, &env); err != nil {
			return nil, fmt.Errorf("gemini env block: %w", err)
		}
		for k, v := range env {
			switch k {
			case envGeminiAPIKey:
				g.APIKey = v
			case envGeminiGatewayURL:
				g.GatewayURL = v
			case envGeminiBaseURL:
				g.BaseURL = v
			default:
				if g.ExtraEnv == nil {
					g.ExtraEnv = make(map[string]string)
				}
				g.ExtraEnv[k] = v
			}
		}
	}
	return g, nil
}
