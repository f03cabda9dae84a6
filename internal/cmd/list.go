package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/store"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [app]",
		Short: "List provider profiles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cmd.Context(), cfg, store.Options{Logger: newLogger(cfg)})
	if err != nil {
		return err
	}
	defer closeStore()

	apps := provider.AppTypes()
	if len(args) > 0 {
		at, err := provider.ParseAppType(args[0])
		if err != nil {
			return err
		}
		apps = []provider.AppType{at}
	}

	var rows []provider.Summary
	for _, at := range apps {
		rows = append(rows, st.Summaries(at)...)
	}
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No providers configured. Run `provdeck add` to create one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, " \tAPP\tID\tNAME\tKEY\tURL\tSORT")
	for _, sum := range rows {
		marker := " "
		if sum.Active {
			marker = "*"
		}
		key := sum.MaskedSecret
		if key == "" {
			key = "-"
		}
		url := sum.BaseURL
		if url == "" {
			url = "-"
		}
		sort := "-"
		if sum.SortIndex != nil {
			sort = fmt.Sprintf("%d", *sum.SortIndex)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", marker, sum.AppType, sum.ID, sum.Name, key, url, sort)
	}
	return w.Flush()
}
