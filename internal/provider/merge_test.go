package provider

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func claudeDraft(name string) Draft {
	return Draft{
		Name: name,
		Settings: &Settings{Claude: &ClaudeSettings{
			AuthToken: "sk-ant-XXXX1111",
			BaseURL:   "https://x.example",
		}},
	}
}

func TestNew_BuildsProfile(t *testing.T) {
	p, err := New(AppClaude, claudeDraft("Open AI Mirror"), nil, 1700000000)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "open-ai-mirror" {
		t.Errorf("id = %q, want %q", p.ID, "open-ai-mirror")
	}
	if p.CreatedAt != 1700000000 || p.UpdatedAt != 1700000000 {
		t.Errorf("timestamps = %d/%d", p.CreatedAt, p.UpdatedAt)
	}
	if p.SortIndex != nil {
		t.Errorf("sort index = %v, want nil", *p.SortIndex)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestNew_SecondSameName(t *testing.T) {
	first, err := New(AppClaude, claudeDraft("Open AI Mirror"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(AppClaude, claudeDraft("Open AI Mirror"), []string{first.ID}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != "open-ai-mirror-1" {
		t.Errorf("second id = %q, want %q", second.ID, "open-ai-mirror-1")
	}
}

func TestNew_EmptyName(t *testing.T) {
	d := claudeDraft("   ")
	if _, err := New(AppClaude, d, nil, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("New() = %v, want ErrInvalidInput", err)
	}
}

func TestNew_SortIndex(t *testing.T) {
	d := claudeDraft("a")
	d.SortIndex = "3"
	p, err := New(AppClaude, d, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.SortIndex == nil || *p.SortIndex != 3 {
		t.Errorf("sort index = %v, want 3", p.SortIndex)
	}

	for _, bad := range []string{"abc", "-1", "1.5"} {
		d.SortIndex = bad
		if _, err := New(AppClaude, d, nil, 1); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("New(sort_index=%q) = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestNew_SettingsMismatch(t *testing.T) {
	d := claudeDraft("a")
	if _, err := New(AppCodex, d, nil, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("New() = %v, want ErrInvalidInput", err)
	}
}

func TestNew_InvalidCodexConfig(t *testing.T) {
	d := Draft{
		Name:     "broken",
		Settings: &Settings{Codex: &CodexSettings{APIKey: "k", Config: "model = [1,2"}},
	}
	if _, err := New(AppCodex, d, nil, 1); !errors.Is(err, ErrValidation) {
		t.Errorf("New() = %v, want ErrValidation", err)
	}
}

func TestMerge_ResubmitUnchanged(t *testing.T) {
	base, err := New(AppClaude, claudeDraft("Acme"), nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	base.Icon = "sparkle"
	base.IconColor = "#fff"

	// The edit session re-submits every pre-filled value untouched.
	d := Draft{
		Name:       base.Name,
		WebsiteURL: base.WebsiteURL,
		Notes:      base.Notes,
		Settings:   base.Settings.Clone(),
	}
	merged, err := Merge(base, d, 200)
	if err != nil {
		t.Fatal(err)
	}
	if merged.UpdatedAt != 200 {
		t.Errorf("updated_at = %d, want 200", merged.UpdatedAt)
	}
	merged.UpdatedAt = base.UpdatedAt
	if !reflect.DeepEqual(base, merged) {
		t.Errorf("re-submitting pre-filled values changed the profile:\n%+v\n%+v", base, merged)
	}
}

func TestMerge_ClearRemovesField(t *testing.T) {
	d := claudeDraft("Acme")
	d.WebsiteURL = "https://acme.example"
	d.Settings.Claude.Model = "claude-opus-4"
	base, err := New(AppClaude, d, nil, 100)
	if err != nil {
		t.Fatal(err)
	}

	edit := Draft{
		Name: base.Name,
		// website cleared to blank
		Settings: &Settings{Claude: &ClaudeSettings{
			AuthToken: base.Settings.Claude.AuthToken,
			BaseURL:   base.Settings.Claude.BaseURL,
			// model override cleared
		}},
	}
	merged, err := Merge(base, edit, 200)
	if err != nil {
		t.Fatal(err)
	}
	if merged.WebsiteURL != "" {
		t.Errorf("website not cleared: %q", merged.WebsiteURL)
	}
	raw, err := merged.Settings.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if containsKey(t, raw, "ANTHROPIC_MODEL") {
		t.Errorf("cleared model still present: %s", raw)
	}
	if merged.ID != base.ID {
		t.Errorf("id changed on edit: %q -> %q", base.ID, merged.ID)
	}
}

func TestMerge_PreservesUncollectedFields(t *testing.T) {
	base, err := New(AppClaude, claudeDraft("Acme"), nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	base.Icon = "bolt"
	base.IconColor = "#00f"

	edit := Draft{Name: "Renamed", Settings: base.Settings.Clone()}
	merged, err := Merge(base, edit, 200)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Icon != "bolt" || merged.IconColor != "#00f" {
		t.Errorf("display hints lost: icon=%q color=%q", merged.Icon, merged.IconColor)
	}
	if merged.CreatedAt != 100 {
		t.Errorf("created_at changed: %d", merged.CreatedAt)
	}
	if merged.ID != base.ID {
		t.Errorf("id changed on rename: %q", merged.ID)
	}
}

func TestMerge_TrimsValues(t *testing.T) {
	base, err := New(AppClaude, claudeDraft("Acme"), nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	edit := Draft{
		Name:       "  Acme Two  ",
		WebsiteURL: " https://two.example ",
		Notes:      " note ",
		Settings:   base.Settings.Clone(),
	}
	merged, err := Merge(base, edit, 200)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Name != "Acme Two" || merged.WebsiteURL != "https://two.example" || merged.Notes != "note" {
		t.Errorf("fields not trimmed: %q %q %q", merged.Name, merged.WebsiteURL, merged.Notes)
	}
}

// containsKey reports whether the encoded payload contains the given env key.
func containsKey(t *testing.T, raw []byte, key string) bool {
	t.Helper()
	return strings.Contains(string(raw), `"`+key+`"`)
}
