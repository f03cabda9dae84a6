package provider

import (
	"fmt"
	"strconv"
	"strings"
)

// Draft carries the raw field values one add or edit session produced. Values
// are final: the input layer has already substituted the pre-filled current
// value for fields the user kept, so a blank here means absent (create) or
// explicitly cleared (edit). Settings is the fully-built payload for the
// session, with untouched keys carried over from the existing profile.
type Draft struct {
	Name       string
	WebsiteURL string
	Notes      string
	SortIndex  string
	Settings   *Settings
}

// New builds a freshly-created profile from a draft. The id is derived from
// the name and made unique against existingIDs; now becomes both timestamps.
func New(at AppType, d Draft, existingIDs []string, now int64) (*Provider, error) {
	name, err := d.validate(at)
	if err != nil {
		return nil, err
	}
	idx, err := parseSortIndex(d.SortIndex)
	if err != nil {
		return nil, err
	}
	return &Provider{
		ID:         GenerateID(name, existingIDs),
		Name:       name,
		WebsiteURL: strings.TrimSpace(d.WebsiteURL),
		AppType:    at,
		Settings:   d.Settings.Clone(),
		Notes:      strings.TrimSpace(d.Notes),
		SortIndex:  idx,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Merge applies a draft to an existing profile, field by field. Id, app type,
// creation time, and the display hints the edit session does not collect
// (icon, icon color) pass through untouched.
func Merge(base *Provider, d Draft, now int64) (*Provider, error) {
	name, err := d.validate(base.AppType)
	if err != nil {
		return nil, err
	}
	idx, err := parseSortIndex(d.SortIndex)
	if err != nil {
		return nil, err
	}
	merged := base.Clone()
	merged.Name = name
	merged.WebsiteURL = strings.TrimSpace(d.WebsiteURL)
	merged.Settings = d.Settings.Clone()
	merged.Notes = strings.TrimSpace(d.Notes)
	merged.SortIndex = idx
	merged.UpdatedAt = now
	return merged, nil
}

// validate checks the draft's required fields and settings payload, returning
// the trimmed name.
func (d Draft) validate(at AppType) (string, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if !at.Valid() {
		return "", fmt.Errorf("%w: unknown app type %q", ErrInvalidInput, at)
	}
	if d.Settings.AppType() != at {
		return "", fmt.Errorf("%w: settings do not match app type %q", ErrInvalidInput, at)
	}
	if err := d.Settings.Validate(); err != nil {
		return "", err
	}
	return name, nil
}

// parseSortIndex maps a raw sort index to its stored form: blank means none,
// anything else must be a non-negative integer.
func parseSortIndex(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: sort index must be a non-negative integer, got %q", ErrInvalidInput, raw)
	}
	return &n, nil
}
