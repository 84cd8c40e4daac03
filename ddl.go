package macaron

import (
	"fmt"
	"slices"

	"github.com/macaronorm/macaron/clause"
	"github.com/macaronorm/macaron/schema"
)

// ColumnInfo a row of PRAGMA table_info
type ColumnInfo struct {
	CID        int64
	Name       string
	Type       string
	NotNull    bool
	Default    interface{}
	PrimaryKey bool
}

// TableOptions options of CreateTable
type TableOptions struct {
	// Cascade creates missing referenced tables first
	Cascade bool
	// SkipLinkTables leaves the link tables of many-to-many attributes alone
	SkipLinkTables bool
}

// HasTable reports whether table exists
func (db *DB) HasTable(table string) (bool, error) {
	cur, err := db.query("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return false, err
	}
	defer cur.Close()

	if !cur.Next() {
		return false, cur.Err()
	}
	var n int64
	if err := cur.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// TableInfo columns of table, cached until the table is created or dropped
func (db *DB) TableInfo(table string) ([]ColumnInfo, error) {
	c := db.core
	c.mu.Lock()
	columns, ok := c.tables[table]
	c.mu.Unlock()
	if ok {
		return slices.Clone(columns), nil
	}

	cur, err := db.query("PRAGMA table_info(" + clause.Quoted(table) + ")")
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	for cur.Next() {
		var (
			col     ColumnInfo
			notNull int64
			pk      int64
		)
		if err := cur.Scan(&col.CID, &col.Name, &col.Type, &notNull, &col.Default, &pk); err != nil {
			return nil, err
		}
		col.NotNull, col.PrimaryKey = notNull != 0, pk != 0
		columns = append(columns, col)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotExist, table)
	}

	c.mu.Lock()
	c.tables[table] = columns
	c.mu.Unlock()
	return slices.Clone(columns), nil
}

func (db *DB) forget(table string) {
	db.core.mu.Lock()
	delete(db.core.tables, table)
	db.core.mu.Unlock()
}

// HasTable reports whether the model table exists
func (m *Model) HasTable() (bool, error) {
	if m.Error != nil {
		return false, m.Error
	}
	return m.db.HasTable(m.Schema.Table)
}

// TableInfo columns of the model table
func (m *Model) TableInfo() ([]ColumnInfo, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.db.TableInfo(m.Schema.Table)
}

// CreateTable creates the model table followed by the link tables of its
// many-to-many attributes. An existing table fails with ErrTableExists.
func (m *Model) CreateTable(opts TableOptions) error {
	if m.Error != nil {
		return m.Error
	}
	exists, err := m.db.HasTable(m.Schema.Table)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTableExists, m.Schema.Table)
	}
	return m.db.createTable(m.Schema, opts, map[*schema.Schema]bool{})
}

func (db *DB) createTable(s *schema.Schema, opts TableOptions, seen map[*schema.Schema]bool) error {
	seen[s] = true

	for _, ref := range s.References() {
		exists, err := db.HasTable(ref.Table)
		switch {
		case err != nil:
			return err
		case exists || seen[ref]:
			continue
		case !opts.Cascade:
			return fmt.Errorf("%w: %s referenced by %s", ErrTableNotExist, ref.Table, s.Table)
		}
		if err := db.createTable(ref, opts, seen); err != nil {
			return err
		}
	}

	sql, err := s.CreateTableSQL()
	if err != nil {
		return err
	}
	if _, err := db.Exec(sql); err != nil {
		return err
	}
	db.forget(s.Table)

	if opts.SkipLinkTables {
		return nil
	}
	for _, link := range s.LinkSchemas() {
		if seen[link] {
			continue
		}
		exists, err := db.HasTable(link.Table)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := db.createTable(link, opts, seen); err != nil {
			return err
		}
	}
	return nil
}

// DropTable drops the model table, a missing table fails with ErrTableNotExist
func (m *Model) DropTable() error {
	if m.Error != nil {
		return m.Error
	}
	exists, err := m.db.HasTable(m.Schema.Table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotExist, m.Schema.Table)
	}
	if _, err := m.db.Exec("DROP TABLE " + clause.Quoted(m.Schema.Table)); err != nil {
		return err
	}
	m.db.forget(m.Schema.Table)
	return nil
}

// CreateTables creates the missing tables of every registered model,
// referenced tables first
func (db *DB) CreateTables() error {
	schemas, err := db.Registry.Schemas()
	if err != nil {
		return err
	}
	seen := map[*schema.Schema]bool{}
	for _, s := range schemas {
		if seen[s] {
			continue
		}
		exists, err := db.HasTable(s.Table)
		if err != nil {
			return err
		}
		if exists {
			seen[s] = true
			continue
		}
		if err := db.createTable(s, TableOptions{Cascade: true}, seen); err != nil {
			return err
		}
	}
	return nil
}
