package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macaronorm/macaron/config"
	"github.com/macaronorm/macaron/schema"
)

// RelationType kind of a scaffolded relationship
type RelationType string

const (
	Many2One  RelationType = "many2one"
	Many2Many RelationType = "many2many"
)

// ScaffoldOptions flags of the scaffold command
type ScaffoldOptions struct {
	Name       string
	Table      string
	Attributes string
	Relations  string
	Write      bool
}

// NewScaffoldCommand creates the scaffold command.
func NewScaffoldCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScaffoldOptions{}

	cmd := &cobra.Command{
		Use:   "scaffold",
		Short: "Generate a model file entry",
		Long: `Generate a [[models]] entry from attribute and relation lists.

  macaron scaffold --name Member --attributes name:char,joined:date \
    --relations team:Team:many2one,songs:Song:many2many`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScaffold(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "model name, e.g. Member")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table name, derived from the model name when empty")
	cmd.Flags().StringVar(&opts.Attributes, "attributes", "", "fields, e.g. name:char,joined:date")
	cmd.Flags().StringVar(&opts.Relations, "relations", "", "relations, e.g. team:Team:many2one,songs:Song:many2many")
	cmd.Flags().BoolVar(&opts.Write, "write", false, "append to the model file instead of printing")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runScaffold(rootOpts *RootOptions, opts *ScaffoldOptions, cmd *cobra.Command) error {
	model, err := Scaffold(opts.Name, opts.Attributes, opts.Relations)
	if err != nil {
		return err
	}
	model.Table = opts.Table
	if _, err := model.Definition(); err != nil {
		return err
	}

	if !opts.Write {
		return config.WriteModels(cmd.OutOrStdout(), model)
	}

	f, err := os.OpenFile(rootOpts.Models, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := appendModel(f, model); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s added to %s\n", model.Name, rootOpts.Models)
	return nil
}

func appendModel(w io.Writer, model config.Model) error {
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return config.WriteModels(w, model)
}

// Scaffold builds a model file entry from name:kind attributes and
// name:Ref:many2one|many2many relations, both comma separated
func Scaffold(name, attributes, relations string) (config.Model, error) {
	model := config.Model{Name: name}
	if name == "" {
		return model, errors.New("model name must be provided")
	}

	for _, a := range splitList(attributes) {
		parts := strings.Split(a, ":")
		if len(parts) != 2 {
			return model, fmt.Errorf("attribute format is invalid: %s", a)
		}
		if _, err := schema.ParseKind(parts[1]); err != nil {
			return model, fmt.Errorf("attribute %s: %w", parts[0], err)
		}
		model.Fields = append(model.Fields, config.ModelField{Name: parts[0], Kind: parts[1]})
	}

	for _, r := range splitList(relations) {
		parts := strings.Split(r, ":")
		if len(parts) != 3 {
			return model, fmt.Errorf("relation format is invalid: %s", r)
		}
		switch RelationType(parts[2]) {
		case Many2One:
			model.ManyToOne = append(model.ManyToOne, config.ModelManyToOne{Name: parts[0], Ref: parts[1]})
		case Many2Many:
			model.ManyToMany = append(model.ManyToMany, config.ModelManyToMany{Name: parts[0], Ref: parts[1]})
		default:
			return model, fmt.Errorf("relation type is invalid: %s", parts[2])
		}
	}
	return model, nil
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
