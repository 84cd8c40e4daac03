// Package cli implements the macaron command line: DDL output, table
// creation, ad-hoc queries and model file scaffolding.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config string
	Models string
	DSN    string
}

// NewRootCommand creates the root command for the macaron CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "macaron",
		Short: "macaron - a small ORM for SQLite",
		Long:  "Inspect, create and query SQLite databases described by a TOML model file.",
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "settings file (TOML)")
	cmd.PersistentFlags().StringVarP(&opts.Models, "models", "m", "models.toml", "model file (TOML)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database file, overrides the settings file")

	cmd.AddCommand(NewDDLCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewScaffoldCommand(opts))

	return cmd
}

// settings loads the settings file, or the defaults when none is given
func (opts *RootOptions) settings() (*config.File, error) {
	f := config.Default()
	if opts.Config != "" {
		var err error
		if f, err = config.LoadFile(opts.Config); err != nil {
			return nil, err
		}
	}
	if opts.DSN != "" {
		f.DSN = opts.DSN
	}
	return f, nil
}

// open opens the database with every model of the model file registered,
// logs go to the command's stderr
func (opts *RootOptions) open(cmd *cobra.Command) (*macaron.DB, error) {
	f, err := opts.settings()
	if err != nil {
		return nil, err
	}
	if opts.Models == "" {
		return nil, errors.New("no model file given, use --models")
	}
	defs, err := config.LoadModelsFile(opts.Models)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%s declares no models", opts.Models)
	}
	return f.Open(cmd.ErrOrStderr(), defs...)
}
