// Package provider defines the profile data model shared by every surface of
// provdeck: per-family settings payloads, identifier derivation, merge
// semantics, and display masking.
package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AppType identifies which downstream CLI a profile configures.
type AppType string

const (
	AppClaude AppType = "claude"
	AppCodex  AppType = "codex"
	AppGemini AppType = "gemini"
)

// AppTypes returns the supported families in canonical display order.
func AppTypes() []AppType {
	return []AppType{AppClaude, AppCodex, AppGemini}
}

// Valid reports whether a is a supported family.
func (a AppType) Valid() bool {
	switch a {
	case AppClaude, AppCodex, AppGemini:
		return true
	}
	return false
}

// ParseAppType normalizes a user-supplied family name.
func ParseAppType(s string) (AppType, error) {
	a := AppType(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown app type %q", ErrInvalidInput, s)
	}
	return a, nil
}

// Provider is one saved configuration profile for a downstream tool.
// ID and AppType are fixed at creation; everything else is editable.
type Provider struct {
	ID         string
	Name       string
	WebsiteURL string
	AppType    AppType
	Settings   *Settings
	Notes      string
	Icon       string
	IconColor  string
	SortIndex  *int
	CreatedAt  int64
	UpdatedAt  int64
}

// providerJSON is the wire form. The settings payload is kept as raw JSON so
// the per-family codecs control its exact shape.
type providerJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	WebsiteURL string          `json:"website_url,omitempty"`
	AppType    AppType         `json:"app_type"`
	Settings   json.RawMessage `json:"settings_config"`
	Notes      string          `json:"notes,omitempty"`
	Icon       string          `json:"icon,omitempty"`
	IconColor  string          `json:"icon_color,omitempty"`
	SortIndex  *int            `json:"sort_index,omitempty"`
	CreatedAt  int64           `json:"created_at,omitempty"`
	UpdatedAt  int64           `json:"updated_at,omitempty"`
}

func (p *Provider) MarshalJSON() ([]byte, error) {
	raw, err := p.Settings.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode settings for %q: %w", p.ID, err)
	}
	return json.Marshal(providerJSON{
		ID:         p.ID,
		Name:       p.Name,
		WebsiteURL: p.WebsiteURL,
		AppType:    p.AppType,
		Settings:   raw,
		Notes:      p.Notes,
		Icon:       p.Icon,
		IconColor:  p.IconColor,
		SortIndex:  p.SortIndex,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	})
}

func (p *Provider) UnmarshalJSON(data []byte) error {
	var pj providerJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	settings, err := DecodeSettings(pj.AppType, pj.Settings)
	if err != nil {
		return fmt.Errorf("decode settings for %q: %w", pj.ID, err)
	}
	*p = Provider{
		ID:         pj.ID,
		Name:       pj.Name,
		WebsiteURL: pj.WebsiteURL,
		AppType:    pj.AppType,
		Settings:   settings,
		Notes:      pj.Notes,
		Icon:       pj.Icon,
		IconColor:  pj.IconColor,
		SortIndex:  pj.SortIndex,
		CreatedAt:  pj.CreatedAt,
		UpdatedAt:  pj.UpdatedAt,
	}
	return nil
}

// Clone returns a deep copy. The store hands out clones so callers can never
// mutate shared state behind the lock.
func (p *Provider) Clone() *Provider {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Settings = p.Settings.Clone()
	if p.SortIndex != nil {
		idx := *p.SortIndex
		cp.SortIndex = &idx
	}
	return &cp
}

// Validate checks the structural invariants of a fully-built profile.
func (p *Provider) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if !p.AppType.Valid() {
		return fmt.Errorf("%w: unknown app type %q", ErrInvalidInput, p.AppType)
	}
	if p.Settings == nil {
		return fmt.Errorf("%w: settings missing", ErrInvalidInput)
	}
	if got := p.Settings.AppType(); got != p.AppType {
		return fmt.Errorf("%w: settings are for %q, profile is %q", ErrInvalidInput, got, p.AppType)
	}
	if p.SortIndex != nil && *p.SortIndex < 0 {
		return fmt.Errorf("%w: sort index must not be negative", ErrInvalidInput)
	}
	return p.Settings.Validate()
}

// Summary is the display-safe projection of a profile. The secret is masked
// and none of the remaining payload leaves the codec.
type Summary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	AppType      AppType `json:"app_type"`
	WebsiteURL   string  `json:"website_url,omitempty"`
	MaskedSecret string  `json:"masked_secret,omitempty"`
	BaseURL      string  `json:"base_url,omitempty"`
	Model        string  `json:"model,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	SortIndex    *int    `json:"sort_index,omitempty"`
	Active       bool    `json:"active,omitempty"`
}

// Summary projects p for display. Callers that know the active id set Active
// themselves.
func (p *Provider) Summary() Summary {
	s := Summary{
		ID:         p.ID,
		Name:       p.Name,
		AppType:    p.AppType,
		WebsiteURL: p.WebsiteURL,
		Notes:      p.Notes,
		SortIndex:  p.SortIndex,
	}
	if p.Settings != nil {
		if secret := p.Settings.Secret(); secret != "" {
			s.MaskedSecret = Mask(secret)
		}
		s.BaseURL = p.Settings.BaseURL()
		s.Model = p.Settings.Model()
	}
	return s
}
