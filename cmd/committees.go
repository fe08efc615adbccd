package cmd

import (
	"io"

	"ris-scraper/models"
	"ris-scraper/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCommitteesCommand() *cobra.Command {
	flags := &siteFlags{}
	cmd := &cobra.Command{
		Use:   "committees",
		Short: "List the committees that can be passed to --committee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd, flags)
			if err != nil {
				return err
			}
			defer d.log.Sync()

			f, release, err := d.newFetcher()
			if err != nil {
				return err
			}
			defer release()

			committees, err := scraper.Committees(cmd.Context(), f, d.baseURL)
			if err != nil {
				return err
			}
			renderCommittees(cmd.OutOrStdout(), committees)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// renderCommittees prints committees as a table
func renderCommittees(w io.Writer, committees []models.Committee) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Committee"})
	for _, c := range committees {
		t.AppendRow(table.Row{c.ID, c.Name})
	}
	t.AppendFooter(table.Row{"", len(committees)})
	t.Render()
}
