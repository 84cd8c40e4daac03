package macaron

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/macaronorm/macaron/clause"
	"github.com/macaronorm/macaron/schema"
)

type convMode int

const (
	modeObjects convMode = iota
	modeTuples
	modeScalar
)

func (m convMode) String() string {
	switch m {
	case modeTuples:
		return "tuples"
	case modeScalar:
		return "scalars"
	}
	return "objects"
}

// item an entry of the select list. entity is set for "alias".* entries,
// field for columns converted with FromStorage.
type item struct {
	expr   clause.Expression
	entity *schema.Schema
	field  *schema.Field
}

var querySetID atomic.Uint64

// QuerySet lazy, chainable query over a model. Every method building a new
// query returns a copy and leaves the receiver untouched; a failure is kept
// in Error and returned by the terminal operations.
type QuerySet struct {
	Error error

	db       *DB
	schema   *schema.Schema
	wheres   []clause.Expression
	joins    map[string][]clause.Join
	orders   []clause.OrderByColumn
	limit    *int
	offset   *int
	distinct bool
	items    []item
	mode     convMode
	wrappers []clause.Wrapper

	id      uint64
	serial  *atomic.Uint64
	results *resultCache
}

func newQuerySet(db *DB, s *schema.Schema) *QuerySet {
	return &QuerySet{
		db:      db,
		schema:  s,
		joins:   map[string][]clause.Join{},
		items:   []item{entityItem(s.Table, s)},
		id:      querySetID.Add(1),
		serial:  new(atomic.Uint64),
		results: &resultCache{},
	}
}

func entityItem(alias string, s *schema.Schema) item {
	return item{expr: clause.Projection{Table: alias, Name: "*"}, entity: s}
}

func (qs *QuerySet) clone() *QuerySet {
	tx := &QuerySet{
		Error:    qs.Error,
		db:       qs.db,
		schema:   qs.schema,
		wheres:   slices.Clone(qs.wheres),
		joins:    maps.Clone(qs.joins),
		orders:   slices.Clone(qs.orders),
		limit:    qs.limit,
		offset:   qs.offset,
		distinct: qs.distinct,
		items:    slices.Clone(qs.items),
		mode:     qs.mode,
		wrappers: slices.Clone(qs.wrappers),
		id:       querySetID.Add(1),
		serial:   new(atomic.Uint64),
		results:  &resultCache{},
	}
	if tx.joins == nil {
		tx.joins = map[string][]clause.Join{}
	}
	return tx
}

func (qs *QuerySet) addError(err error) *QuerySet {
	if qs.Error == nil {
		qs.Error = err
	}
	return qs
}

// Model schema of the objects the set returns
func (qs *QuerySet) Model() *schema.Schema { return qs.schema }

// Select narrows the set. Arguments are conditions (Q, Raw, And, Or, PK),
// Values maps, or raw SQL followed by its vars. Each call adds one
// parenthesized group AND-ed with the previous ones.
func (qs *QuerySet) Select(args ...interface{}) *QuerySet {
	tx := qs.clone()
	if tx.Error != nil {
		return tx
	}

	conds, err := conditions(args)
	if err != nil {
		return tx.addError(err)
	}
	if len(conds) == 0 {
		return tx
	}

	exprs, err := compileAll(tx, conds)
	if err != nil {
		return tx.addError(err)
	}
	tx.wheres = append(tx.wheres, clause.And(exprs...))
	return tx
}

// Where alias of Select
func (qs *QuerySet) Where(args ...interface{}) *QuerySet {
	return qs.Select(args...)
}

// All copy of the set
func (qs *QuerySet) All() *QuerySet {
	return qs.clone()
}

// Join adds the joins of the relationships crossed by paths without filtering
func (qs *QuerySet) Join(paths ...string) *QuerySet {
	tx := qs.clone()
	if tx.Error != nil {
		return tx
	}
	for _, path := range paths {
		if _, err := tx.resolve(path); err != nil {
			return tx.addError(err)
		}
	}
	return tx
}

// OrderBy sorts by attribute paths, a leading "-" sorts descending. A path
// ending at a relationship sorts by the primary key of its target.
func (qs *QuerySet) OrderBy(paths ...string) *QuerySet {
	tx := qs.clone()
	if tx.Error != nil {
		return tx
	}
	for _, path := range paths {
		desc := strings.HasPrefix(path, "-")
		name := strings.TrimPrefix(path, "-")
		t, err := tx.resolve(name)
		if err != nil {
			return tx.addError(err)
		}
		if t.op != "" {
			return tx.addError(fmt.Errorf("%w: invalid order field name %q", ErrUsage, name))
		}
		tx.orders = append(tx.orders, clause.OrderByColumn{Column: t.column(), Desc: desc})
	}
	return tx
}

// Fields projects attribute paths and aggregates; rows are read with Tuples.
// A path ending at a relationship projects the whole related object.
func (qs *QuerySet) Fields(args ...interface{}) *QuerySet {
	tx := qs.clone()
	if tx.Error != nil {
		return tx
	}
	if len(args) == 0 {
		return tx.addError(fmt.Errorf("%w: Fields needs at least one path", ErrUsage))
	}

	tx.items, tx.mode = nil, modeTuples
	for _, arg := range args {
		var (
			it  item
			err error
		)
		switch v := arg.(type) {
		case string:
			it, err = tx.projection(v)
		case AggregateFunc:
			it, err = v.projection(tx)
		default:
			err = fmt.Errorf("%w: %T cannot be projected", ErrInvalidType, arg)
		}
		if err != nil {
			return tx.addError(err)
		}
		tx.items = append(tx.items, it)
	}
	return tx
}

// Field projects a single path, rows are read with Scalars
func (qs *QuerySet) Field(path interface{}) *QuerySet {
	tx := qs.Fields(path)
	tx.mode = modeScalar
	return tx
}

func (qs *QuerySet) projection(path string) (item, error) {
	t, err := qs.resolve(path)
	if err != nil {
		return item{}, err
	}
	if t.op != "" {
		return item{}, fmt.Errorf("%w: invalid field name %q", ErrUsage, path)
	}
	if t.entity != nil {
		return entityItem(t.alias, t.entity), nil
	}
	return item{expr: clause.Projection(t.column()), field: t.field}, nil
}

// Distinct drops duplicated rows
func (qs *QuerySet) Distinct() *QuerySet {
	tx := qs.clone()
	tx.distinct = true
	return tx
}

// Limit at most n rows, -1 removes the bound
func (qs *QuerySet) Limit(n int) *QuerySet {
	tx := qs.clone()
	tx.limit = &n
	return tx
}

// Offset skips n rows
func (qs *QuerySet) Offset(n int) *QuerySet {
	tx := qs.clone()
	tx.offset = &n
	return tx
}

// Slice rows start to stop relative to the current offset, stop -1 is open ended
func (qs *QuerySet) Slice(start, stop int) *QuerySet {
	tx := qs.clone()
	if start < 0 {
		return tx.addError(fmt.Errorf("%w: negative slice start %d", ErrInvalidValue, start))
	}
	if stop >= 0 && stop < start {
		return tx.addError(fmt.Errorf("%w: slice stop must be larger than start value [start:%d, stop:%d]", ErrInvalidValue, start, stop))
	}

	offset := start
	if qs.offset != nil {
		offset += *qs.offset
	}
	limit := -1
	if stop >= 0 {
		limit = stop - start
	}
	tx.offset, tx.limit = &offset, &limit
	return tx
}

func (qs *QuerySet) joinKeys() []string {
	keys := make([]string, 0, len(qs.joins))
	for key := range qs.joins {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return strings.Count(keys[i], ".") < strings.Count(keys[j], ".")
	})
	return keys
}

func (qs *QuerySet) build() *Statement {
	stmt := &Statement{}
	columns := make([]clause.Expression, len(qs.items))
	for idx, it := range qs.items {
		columns[idx] = it.expr
	}
	clause.Select{Distinct: qs.distinct, Columns: columns}.Build(stmt)
	stmt.WriteByte(' ')
	clause.From{Table: qs.schema.Table}.Build(stmt)

	for _, key := range qs.joinKeys() {
		for _, join := range qs.joins[key] {
			stmt.WriteByte('\n')
			join.Build(stmt)
		}
	}

	if len(qs.wheres) > 0 {
		stmt.WriteByte('\n')
		clause.Where{Exprs: qs.wheres}.Build(stmt)
	}

	if len(qs.orders) > 0 {
		stmt.WriteByte('\n')
		clause.OrderBy{Columns: qs.orders}.Build(stmt)
	}

	if limit := (clause.Limit{Limit: qs.limit, Offset: qs.offset}); !limit.Empty() {
		stmt.WriteByte('\n')
		limit.Build(stmt)
	}
	return stmt
}

// ToSQL compiled statement and its vars, nothing is executed
func (qs *QuerySet) ToSQL() (string, []interface{}) {
	if qs.Error != nil {
		return "", nil
	}
	stmt := qs.build()
	sql := stmt.String()
	for _, wrapper := range qs.wrappers {
		sql = wrapper.Wrap(sql)
	}
	return sql, stmt.Vars
}

func (qs *QuerySet) String() string {
	sql, _ := qs.ToSQL()
	return sql
}

func (qs *QuerySet) subqueryAlias() string {
	return fmt.Sprintf("__t%x_%d", qs.id, qs.serial.Add(1))
}

func (qs *QuerySet) check(mode convMode) error {
	if qs.Error != nil {
		return qs.Error
	}
	if qs.mode != mode {
		return fmt.Errorf("%w: query set returns %s, not %s", ErrUsage, qs.mode, mode)
	}
	return nil
}

// open executes the set and returns its cursor with the row converter
func (qs *QuerySet) open() (*cursor, *factory, error) {
	sql, vars := qs.ToSQL()
	cur, err := qs.db.query(sql, vars...)
	if err != nil {
		return nil, nil, err
	}
	columns, err := cur.Columns()
	if err != nil {
		cur.Close()
		return nil, nil, err
	}
	return cur, &factory{db: qs.db, items: qs.items, mode: qs.mode, columns: columns}, nil
}

func (f *factory) next(cur *cursor) (interface{}, bool, error) {
	if !cur.Next() {
		return nil, false, cur.Err()
	}
	values, err := scanRow(cur, len(f.columns))
	if err != nil {
		return nil, false, err
	}
	v, err := f.convert(values)
	return v, err == nil, err
}

// fetch reads at most n rows, every row when n is negative. A complete
// read replaces the result cache.
func (qs *QuerySet) fetch(n int) ([]interface{}, error) {
	if qs.Error != nil {
		return nil, qs.Error
	}
	cur, f, err := qs.open()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var rows []interface{}
	for n < 0 || len(rows) < n {
		v, ok, err := f.next(cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, v)
	}

	if n < 0 {
		qs.results.fill(rows)
	}
	return rows, nil
}

// Each streams the objects of the set to fc, stopping at its first error
func (qs *QuerySet) Each(fc func(*Object) error) error {
	if err := qs.check(modeObjects); err != nil {
		return err
	}
	cur, f, err := qs.open()
	if err != nil {
		return err
	}
	defer cur.Close()

	for {
		v, ok, err := f.next(cur)
		if err != nil || !ok {
			return err
		}
		if err := fc(v.(*Object)); err != nil {
			return err
		}
	}
}

// Objects every object of the set
func (qs *QuerySet) Objects() ([]*Object, error) {
	if err := qs.check(modeObjects); err != nil {
		return nil, err
	}
	rows, err := qs.fetch(-1)
	if err != nil {
		return nil, err
	}
	objects := make([]*Object, len(rows))
	for idx, row := range rows {
		objects[idx] = row.(*Object)
	}
	return objects, nil
}

// Tuples every row of a set projected with Fields
func (qs *QuerySet) Tuples() ([][]interface{}, error) {
	if err := qs.check(modeTuples); err != nil {
		return nil, err
	}
	rows, err := qs.fetch(-1)
	if err != nil {
		return nil, err
	}
	tuples := make([][]interface{}, len(rows))
	for idx, row := range rows {
		tuples[idx] = row.([]interface{})
	}
	return tuples, nil
}

// Scalars every value of a set projected with Field
func (qs *QuerySet) Scalars() ([]interface{}, error) {
	if err := qs.check(modeScalar); err != nil {
		return nil, err
	}
	return qs.fetch(-1)
}

// At row i of the set: an *Object, a []interface{} tuple or a scalar
// depending on the projection. Rows are read once and cached.
func (qs *QuerySet) At(i int) (interface{}, error) {
	if qs.Error != nil {
		return nil, qs.Error
	}
	if i < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrInvalidValue, i)
	}
	return qs.results.at(qs, i)
}

// First object of the set
func (qs *QuerySet) First() (*Object, error) {
	if err := qs.check(modeObjects); err != nil {
		return nil, err
	}
	rows, err := qs.fetch(1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s object is not found", ErrObjectNotFound, qs.schema.Name)
	}
	return rows[0].(*Object), nil
}

// Get the single object matching the arguments. A lone argument that is not
// a condition is a primary key value.
func (qs *QuerySet) Get(args ...interface{}) (*Object, error) {
	if len(args) == 1 {
		switch args[0].(type) {
		case Condition, Values, map[string]interface{}:
		default:
			args = []interface{}{PK(args[0])}
		}
	}

	tx := qs.Select(args...)
	if err := tx.check(modeObjects); err != nil {
		return nil, err
	}
	rows, err := tx.fetch(2)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%w: %s object is not found", ErrObjectNotFound, qs.schema.Name)
	case 1:
		return rows[0].(*Object), nil
	}
	return nil, fmt.Errorf("%w: Get requires a single %s object", ErrMultipleResults, qs.schema.Name)
}

// Count rows of the set
func (qs *QuerySet) Count() (int64, error) {
	v, err := qs.Aggregate(Count("*"))
	if err != nil {
		return 0, err
	}
	n, _ := v.(int64)
	return n, nil
}

// Aggregate runs agg over the rows of the set. The set is wrapped as a
// subquery, so limit and offset apply before aggregation.
func (qs *QuerySet) Aggregate(agg AggregateFunc) (interface{}, error) {
	if qs.Error != nil {
		return nil, qs.Error
	}

	field, column, err := agg.column(qs.schema)
	if err != nil {
		return nil, err
	}

	tx := qs.clone()
	tx.wrappers = append(tx.wrappers, clause.Aggregate{Func: agg.Name, Column: column, Alias: qs.subqueryAlias()})
	sql, vars := tx.ToSQL()

	cur, err := qs.db.query(sql, vars...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	if !cur.Next() {
		return nil, cur.Err()
	}
	row, err := scanRow(cur, 1)
	if err != nil {
		return nil, err
	}
	return agg.convert(field, row[0])
}

// Delete removes every row of the set and returns how many were deleted
func (qs *QuerySet) Delete() (int64, error) {
	if qs.Error != nil {
		return 0, qs.Error
	}

	tx := qs.clone()
	tx.items, tx.mode = []item{entityItem(qs.schema.Table, qs.schema)}, modeObjects
	tx.wrappers = append(tx.wrappers, clause.DeleteIn{Table: qs.schema.Table, PrimaryKey: qs.schema.PrimaryField.Name})
	sql, vars := tx.ToSQL()

	result, err := qs.db.Exec(sql, vars...)
	if err != nil {
		return 0, err
	}
	qs.results.clear()
	return result.RowsAffected()
}

// resultCache rows already read by At, and the cursor still reading them
type resultCache struct {
	mu   sync.Mutex
	cur  *cursor
	conv *factory
	rows []interface{}
	done bool
}

// reset has to be called with lock
func (rc *resultCache) reset() {
	if rc.cur != nil {
		rc.cur.Close()
	}
	rc.cur, rc.conv, rc.rows, rc.done = nil, nil, nil, false
}

func (rc *resultCache) clear() {
	rc.mu.Lock()
	rc.reset()
	rc.mu.Unlock()
}

func (rc *resultCache) fill(rows []interface{}) {
	rc.mu.Lock()
	rc.reset()
	rc.rows, rc.done = rows, true
	rc.mu.Unlock()
}

func (rc *resultCache) at(qs *QuerySet, i int) (interface{}, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if i < len(rc.rows) {
		return rc.rows[i], nil
	}

	if !rc.done && (rc.cur == nil || rc.cur.interrupted.Load()) {
		// a cursor closed by Bake or Rollback restarts the read
		rc.reset()
		cur, f, err := qs.open()
		if err != nil {
			return nil, err
		}
		rc.cur, rc.conv = cur, f
	}

	for !rc.done && len(rc.rows) <= i {
		v, ok, err := rc.conv.next(rc.cur)
		if err != nil {
			rc.reset()
			return nil, err
		}
		if !ok {
			rc.cur.Close()
			rc.cur, rc.done = nil, true
			break
		}
		rc.rows = append(rc.rows, v)
	}

	if i < len(rc.rows) {
		return rc.rows[i], nil
	}
	return nil, fmt.Errorf("%w: index %d out of range, the set has %d rows", ErrObjectNotFound, i, len(rc.rows))
}
