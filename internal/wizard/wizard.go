// Package wizard drives the interactive add and edit flows for provider
// profiles.
package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/pkg/cli"
)

// Wizard collects provider fields interactively. Flows report ok=false when
// the user cancels at any prompt; the store is never touched on cancel.
type Wizard struct {
	p *cli.Prompter
}

// New creates a Wizard using the given Prompter.
func New(p *cli.Prompter) *Wizard {
	return &Wizard{p: p}
}

// RunAdd drives the add flow for one family and returns the finished
// profile, ready to store. The user reviews a masked summary and confirms
// before anything is handed back.
func (w *Wizard) RunAdd(at provider.AppType, existingIDs []string) (*provider.Provider, bool, error) {
	_, _ = fmt.Fprintf(w.p.Out, "\n  New %s provider\n\n", at)

	d, ok, err := w.collect(at, nil)
	if !ok || err != nil {
		return nil, false, err
	}
	p, err := provider.New(at, d, existingIDs, time.Now().Unix())
	if err != nil {
		return nil, false, err
	}

	w.render("Review", p)
	yes, ok, err := w.p.Confirm("Save this provider?", true)
	if !ok || err != nil {
		return nil, false, err
	}
	if !yes {
		return nil, false, nil
	}
	return p, true, nil
}

// RunEdit drives the edit flow over an existing profile and returns the
// draft. The caller merges it against the latest stored copy, so a concurrent
// edit cannot be clobbered with stale fields.
func (w *Wizard) RunEdit(current *provider.Provider) (provider.Draft, bool, error) {
	_, _ = fmt.Fprintf(w.p.Out, "\n  Edit %s (%s)\n\n", current.Name, current.ID)

	d, ok, err := w.collect(current.AppType, current)
	if !ok || err != nil {
		return provider.Draft{}, false, err
	}
	// Surfaces a bad sort index or name now, before the caller commits, and
	// gives the review step something concrete to show.
	merged, err := provider.Merge(current, d, time.Now().Unix())
	if err != nil {
		return provider.Draft{}, false, err
	}

	w.render("Review changes", merged)
	yes, ok, err := w.p.Confirm("Save changes?", true)
	if !ok || err != nil {
		return provider.Draft{}, false, err
	}
	if !yes {
		return provider.Draft{}, false, nil
	}
	return d, true, nil
}

// collect walks the shared field order: name, website, family settings,
// optional fields.
func (w *Wizard) collect(at provider.AppType, current *provider.Provider) (provider.Draft, bool, error) {
	var d provider.Draft

	name, website, notes, sortIndex := "", "", "", ""
	if current != nil {
		name = current.Name
		website = current.WebsiteURL
		notes = current.Notes
		if current.SortIndex != nil {
			sortIndex = strconv.Itoa(*current.SortIndex)
		}
	}

	v, ok, err := w.p.Ask("Provider name (e.g. OpenAI)", name)
	if !ok || err != nil {
		return d, false, err
	}
	d.Name = v

	v, ok, err = w.p.Ask("Website URL (e.g. https://openai.com)", website)
	if !ok || err != nil {
		return d, false, err
	}
	d.WebsiteURL = v

	var cur *provider.Settings
	if current != nil {
		cur = current.Settings
	}
	var settings *provider.Settings
	switch at {
	case provider.AppClaude:
		settings, ok, err = w.claudeSettings(cur)
	case provider.AppCodex:
		settings, ok, err = w.codexSettings(cur)
	case provider.AppGemini:
		settings, ok, err = w.geminiSettings(cur)
	default:
		return d, false, fmt.Errorf("%w: unknown app type %q", provider.ErrInvalidInput, at)
	}
	if !ok || err != nil {
		return d, false, err
	}
	d.Settings = settings

	_, _ = fmt.Fprintln(w.p.Out, "\nOptional fields")
	v, ok, err = w.p.Ask("Notes", notes)
	if !ok || err != nil {
		return d, false, err
	}
	d.Notes = v

	v, ok, err = w.p.Ask("Sort index", sortIndex)
	if !ok || err != nil {
		return d, false, err
	}
	d.SortIndex = v

	return d, true, nil
}

// claudeSettings collects the claude env block. Fields the session does not
// touch, including env keys other producers wrote, ride along unchanged.
func (w *Wizard) claudeSettings(cur *provider.Settings) (*provider.Settings, bool, error) {
	var c provider.ClaudeSettings
	if cur != nil && cur.Claude != nil {
		c = *cur.Clone().Claude
	}

	_, _ = fmt.Fprintln(w.p.Out, "\nClaude settings")
	v, ok, err := w.p.AskSecret("API key (e.g. sk-ant-...)", provider.Mask(c.AuthToken), c.AuthToken)
	if !ok || err != nil {
		return nil, false, err
	}
	c.AuthToken = v

	v, ok, err = w.p.Ask("Base URL (e.g. https://api.anthropic.com)", c.BaseURL)
	if !ok || err != nil {
		return nil, false, err
	}
	c.BaseURL = v

	models, ok, err := w.p.Confirm("Configure model names?", false)
	if !ok || err != nil {
		return nil, false, err
	}
	if models {
		fields := []struct {
			label string
			value *string
		}{
			{"Default model", &c.Model},
			{"Haiku model", &c.HaikuModel},
			{"Sonnet model", &c.SonnetModel},
			{"Opus model", &c.OpusModel},
		}
		for _, f := range fields {
			v, ok, err := w.p.Ask(f.label, *f.value)
			if !ok || err != nil {
				return nil, false, err
			}
			*f.value = v
		}
	}

	return &provider.Settings{Claude: &c}, true, nil
}

// codexSettings collects the codex key and TOML config. The current config,
// or the built-in default, is always offered first; hand-entered TOML must
// parse before it is accepted.
func (w *Wizard) codexSettings(cur *provider.Settings) (*provider.Settings, bool, error) {
	var c provider.CodexSettings
	if cur != nil && cur.Codex != nil {
		c = *cur.Clone().Codex
	}

	_, _ = fmt.Fprintln(w.p.Out, "\nCodex settings")
	v, ok, err := w.p.AskSecret("OpenAI API key (e.g. sk-...)", provider.Mask(c.APIKey), c.APIKey)
	if !ok || err != nil {
		return nil, false, err
	}
	c.APIKey = v

	base := c.Config
	if base == "" {
		base = provider.DefaultCodexConfig
	}
	_, _ = fmt.Fprintln(w.p.Out, "\nCurrent TOML config:")
	for _, line := range strings.Split(base, "\n") {
		_, _ = fmt.Fprintf(w.p.Out, "  %s\n", line)
	}
	keep, ok, err := w.p.Confirm("Use this config?", true)
	if !ok || err != nil {
		return nil, false, err
	}
	cfg := base
	if !keep {
		entered, ok, err := w.p.AskLines("New TOML config")
		if !ok || err != nil {
			return nil, false, err
		}
		if entered != "" {
			cfg = entered
		}
	}
	if err := provider.ValidateTOML(cfg); err != nil {
		return nil, false, err
	}
	c.Config = cfg

	return &provider.Settings{Codex: &c}, true, nil
}

// geminiSettings collects the gemini auth mode and its fields. The selector
// starts on the mode inferred from the current payload; an indeterminate
// shape defaults to the hosted gateway without touching the data.
func (w *Wizard) geminiSettings(cur *provider.Settings) (*provider.Settings, bool, error) {
	var g provider.GeminiSettings
	if cur != nil && cur.Gemini != nil {
		g = *cur.Clone().Gemini
	}

	_, _ = fmt.Fprintln(w.p.Out, "\nGemini settings")
	defaultIdx := 1
	switch g.Mode() {
	case provider.GeminiOAuth:
		defaultIdx = 0
	case provider.GeminiGeneric:
		defaultIdx = 2
	}
	options := []string{"Google OAuth (official)", "PackyCode API key", "Generic API key"}
	choice, ok, err := w.p.Choose("Authentication type", options, defaultIdx)
	if !ok || err != nil {
		return nil, false, err
	}

	switch choice {
	case 0:
		_, _ = fmt.Fprintln(w.p.Out, "  Using Google OAuth: no credentials stored, the CLI signs in by itself.")
		g = provider.GeminiSettings{}
	case 1:
		v, ok, err := w.p.AskSecret("Gemini API key (e.g. pk-...)", provider.Mask(g.APIKey), g.APIKey)
		if !ok || err != nil {
			return nil, false, err
		}
		g.APIKey = v
		v, ok, err = w.p.Ask("Gateway URL (e.g. https://packycode.com/api)", g.GatewayURL)
		if !ok || err != nil {
			return nil, false, err
		}
		g.GatewayURL = v
		g.BaseURL = ""
	case 2:
		v, ok, err := w.p.AskSecret("Gemini API key (e.g. AIza...)", provider.Mask(g.APIKey), g.APIKey)
		if !ok || err != nil {
			return nil, false, err
		}
		g.APIKey = v
		v, ok, err = w.p.Ask("Base URL", g.BaseURL)
		if !ok || err != nil {
			return nil, false, err
		}
		g.BaseURL = v
		g.GatewayURL = ""
	}

	return &provider.Settings{Gemini: &g}, true, nil
}

// ShowSummary prints the stored profile. Secrets appear masked only.
func (w *Wizard) ShowSummary(p *provider.Provider) {
	w.render("Provider saved", p)
}

func (w *Wizard) render(header string, p *provider.Provider) {
	out := w.p.Out
	sum := p.Summary()

	_, _ = fmt.Fprintf(out, "\n  %s\n", header)
	_, _ = fmt.Fprintf(out, "  ID:       %s\n", sum.ID)
	_, _ = fmt.Fprintf(out, "  Name:     %s\n", sum.Name)
	if sum.WebsiteURL != "" {
		_, _ = fmt.Fprintf(out, "  Website:  %s\n", sum.WebsiteURL)
	}
	if sum.MaskedSecret != "" {
		_, _ = fmt.Fprintf(out, "  API key:  %s\n", sum.MaskedSecret)
	}
	if sum.BaseURL != "" {
		_, _ = fmt.Fprintf(out, "  Base URL: %s\n", sum.BaseURL)
	}
	if sum.Model != "" {
		_, _ = fmt.Fprintf(out, "  Model:    %s\n", sum.Model)
	}
	if p.Settings != nil && p.Settings.Codex != nil && p.Settings.Codex.Config != "" {
		lines := strings.Count(p.Settings.Codex.Config, "\n") + 1
		_, _ = fmt.Fprintf(out, "  Config:   %d TOML line(s)\n", lines)
	}
	if sum.Notes != "" {
		_, _ = fmt.Fprintf(out, "  Notes:    %s\n", sum.Notes)
	}
	if sum.SortIndex != nil {
		_, _ = fmt.Fprintf(out, "  Sort:     %d\n", *sum.SortIndex)
	}
	_, _ = fmt.Fprintln(out)
}
