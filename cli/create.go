package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macaronorm/macaron"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var skipLinks bool

	cmd := &cobra.Command{
		Use:          "create [model...]",
		Short:        "Create the tables of the model file and commit",
		Long:         "Create the tables of the named models, or the missing tables of every model when none is named, then commit.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, cmd, args, skipLinks)
		},
	}
	cmd.Flags().BoolVar(&skipLinks, "skip-links", false, "do not create link tables of the named models")

	return cmd
}

func runCreate(opts *RootOptions, cmd *cobra.Command, names []string, skipLinks bool) error {
	db, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Transaction(func(tx *macaron.DB) error {
		if len(names) == 0 {
			return tx.CreateTables()
		}
		for _, name := range names {
			err := tx.Model(name).CreateTable(macaron.TableOptions{Cascade: true, SkipLinkTables: skipLinks})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "created missing tables")
	}
	return nil
}
