package picker

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/provdeck-ai/provdeck/internal/provider"
)

// Pick runs the selector over items and returns the chosen provider id.
// ok is false when the user cancelled or there was nothing to pick from.
func Pick(title string, items []provider.Summary) (id string, ok bool, err error) {
	if len(items) == 0 {
		return "", false, nil
	}

	final, err := tea.NewProgram(New(title, items)).Run()
	if err != nil {
		return "", false, fmt.Errorf("selector: %w", err)
	}

	m, isModel := final.(Model)
	if !isModel {
		return "", false, fmt.Errorf("selector: unexpected model %T", final)
	}
	id, ok = m.Selection()
	return id, ok, nil
}
