package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/config"
	"github.com/provdeck-ai/provdeck/internal/provider"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the provdeck config",
		RunE:  runConfigShow,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the config with secrets masked",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open the config in $EDITOR",
		Args:  cobra.NoArgs,
		RunE:  runConfigEdit,
	})
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Never print credentials, not even to a local terminal.
	masked := *cfg
	if masked.Server.JWTSecret != "" {
		masked.Server.JWTSecret = provider.Mask(masked.Server.JWTSecret)
	}
	if masked.Server.AdminPasswordHash != "" {
		masked.Server.AdminPasswordHash = provider.Mask(masked.Server.AdminPasswordHash)
	}
	if masked.Storage.DSN != "" {
		masked.Storage.DSN = provider.Mask(masked.Storage.DSN)
	}

	out, err := json.MarshalIndent(&masked, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "# %s\n%s\n", path, out)
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	// Write defaults first so the editor does not open an empty buffer.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	ed := exec.Command(editor, path)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return fmt.Errorf("run editor %q: %w", editor, err)
	}

	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("config is invalid after edit: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "Config saved.")
	return nil
}
