package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	flags := &siteFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored sessions and agenda without scraping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd, flags)
			if err != nil {
				return err
			}
			defer d.log.Sync()

			ctx := cmd.Context()
			store, err := d.openDB(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			written, err := d.newExporter().Export(ctx, store)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
