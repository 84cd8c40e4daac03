package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDDLCommand creates the ddl command.
func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "ddl",
		Short:        "Print CREATE TABLE statements for every model",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(rootOpts, cmd)
		},
	}
}

func runDDL(opts *RootOptions, cmd *cobra.Command) error {
	db, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	schemas, err := db.Registry.Schemas()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, s := range schemas {
		sql, err := s.CreateTableSQL()
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s;\n", sql)
	}
	return nil
}
