package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/schema"
)

// QueryOptions flags of the query command
type QueryOptions struct {
	Where  []string
	Order  []string
	Limit  int
	Offset int
	Count  bool
	Format string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <model>",
		Short: "Select rows of a model",
		Long: `Select rows of a model and print them.

Each --where is an attribute path test such as name=Sakura, score__ge=60 or
team__name__in=Sakura,Wakaba; the tests are AND-ed. --order takes attribute
paths, a leading "-" sorts descending.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "attribute test key=value (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.Order, "order", "o", nil, "order by attribute paths")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "maximum number of rows")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matching rows only")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (text|yaml)")

	return cmd
}

func runQuery(rootOpts *RootOptions, opts *QueryOptions, model string, cmd *cobra.Command) error {
	if opts.Format != "text" && opts.Format != "yaml" {
		return fmt.Errorf("invalid format %q: must be text or yaml", opts.Format)
	}
	q, err := ParseWhere(opts.Where)
	if err != nil {
		return err
	}

	db, err := rootOpts.open(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	m := db.Model(model)
	if m.Error != nil {
		return m.Error
	}
	qs := m.All()
	if len(q) > 0 {
		qs = qs.Select(q)
	}
	if len(opts.Order) > 0 {
		qs = qs.OrderBy(opts.Order...)
	}
	if opts.Limit >= 0 {
		qs = qs.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		qs = qs.Offset(opts.Offset)
	}

	out := cmd.OutOrStdout()
	if opts.Count {
		n, err := qs.Count()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil
	}

	objs, err := qs.Objects()
	if err != nil {
		return err
	}
	if opts.Format == "yaml" {
		return writeYAML(out, m.Schema, objs)
	}
	return writeTable(out, m.Schema, objs)
}

// ParseWhere turns key=value tests into a Q. Values of the in, not_in,
// between and not_between operators are comma separated lists, is_null
// takes a bool.
func ParseWhere(tests []string) (macaron.Q, error) {
	q := macaron.Q{}
	for _, test := range tests {
		key, value, ok := strings.Cut(test, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid where %q: want key=value", test)
		}
		if _, dup := q[key]; dup {
			return nil, fmt.Errorf("where key %q given twice", key)
		}

		op := key
		if i := strings.LastIndex(key, "__"); i >= 0 {
			op = key[i+2:]
		}
		switch op {
		case "in", "not_in", "between", "not_between":
			parts := strings.Split(value, ",")
			values := make([]interface{}, len(parts))
			for i, part := range parts {
				values[i] = strings.TrimSpace(part)
			}
			q[key] = values
		case "is_null":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("where %q: %w", test, err)
			}
			q[key] = b
		default:
			if value == "NULL" {
				q[key] = nil
			} else {
				q[key] = value
			}
		}
	}
	return q, nil
}

func writeTable(w io.Writer, s *schema.Schema, objs []*macaron.Object) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	names := s.FieldNames()
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, obj := range objs {
		cells := make([]string, len(names))
		for i, name := range names {
			cells[i] = cell(obj.Get(name))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func cell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return fmt.Sprint(value)
}

func writeYAML(w io.Writer, s *schema.Schema, objs []*macaron.Object) error {
	rows := make([]*yaml.Node, 0, len(objs))
	for _, obj := range objs {
		row := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range s.FieldNames() {
			var value yaml.Node
			if err := value.Encode(obj.Get(name)); err != nil {
				return err
			}
			row.Content = append(row.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, &value)
		}
		rows = append(rows, row)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return enc.Close()
}
