package provider

import "testing"

func TestGenerateID_Normalization(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Open AI Mirror", "open-ai-mirror"},
		{"claude", "claude"},
		{"My Provider (EU)", "my-provider--eu"},
		{"a_b-c", "a_b-c"},
		{"  spaced  ", "spaced"},
		{"Héllo!", "h-llo"},
		{"UPPER123", "upper123"},
		{"!!!", "-"},
		{"", "-"},
	}
	for _, tt := range tests {
		if got := GenerateID(tt.name, nil); got != tt.want {
			t.Errorf("GenerateID(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGenerateID_CollisionSuffix(t *testing.T) {
	existing := []string{"open-ai-mirror"}
	if got := GenerateID("Open AI Mirror", existing); got != "open-ai-mirror-1" {
		t.Errorf("got %q, want %q", got, "open-ai-mirror-1")
	}

	existing = []string{"x", "x-1", "x-2"}
	if got := GenerateID("x", existing); got != "x-3" {
		t.Errorf("got %q, want %q", got, "x-3")
	}
}

func TestGenerateID_NeverReturnsExisting(t *testing.T) {
	existing := []string{"p", "p-1", "p-2", "p-3", "p-4"}
	got := GenerateID("P", existing)
	for _, id := range existing {
		if got == id {
			t.Fatalf("GenerateID returned existing id %q", got)
		}
	}
}

func TestGenerateID_Deterministic(t *testing.T) {
	existing := []string{"acme", "acme-1"}
	a := GenerateID("Acme", existing)
	b := GenerateID("Acme", existing)
	if a != b {
		t.Errorf("GenerateID not deterministic: %q vs %q", a, b)
	}
}

func TestGenerateID_EmptyBaseCollision(t *testing.T) {
	if got := GenerateID("", []string{"-"}); got != "--1" {
		t.Errorf("got %q, want %q", got, "--1")
	}
}
