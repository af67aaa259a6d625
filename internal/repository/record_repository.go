package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scas-api/internal/models"
)

// QueryObserver receives query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// RecordRepository reads and writes the campus entity tables. Identifiers are always quoted
// so the CamelCase column names survive on Postgres.
type RecordRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewRecordRepository constructs a RecordRepository. observer may be nil.
func NewRecordRepository(db *sqlx.DB, observer QueryObserver) *RecordRepository {
	return &RecordRepository{db: db, observer: observer}
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (r *RecordRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

func specFor(entity models.Entity) (models.EntitySpec, error) {
	spec := entity.Spec()
	if spec.Table == "" {
		return spec, fmt.Errorf("unknown entity %q", entity)
	}
	return spec, nil
}

// ReadAll scans the whole collection in store order.
func (r *RecordRepository) ReadAll(ctx context.Context, entity models.Entity) (models.Table, error) {
	spec, err := specFor(entity)
	if err != nil {
		return models.Table{}, err
	}
	defer r.observe(string(entity)+".read_all", time.Now())

	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", quote(spec.Table)))
	if err != nil {
		return models.Table{}, fmt.Errorf("read %s: %w", spec.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return models.Table{}, fmt.Errorf("read %s columns: %w", spec.Table, err)
	}

	table := models.Table{Entity: entity, Columns: columns, Rows: []models.Row{}}
	for rows.Next() {
		row := make(map[string]interface{}, len(columns))
		if err := rows.MapScan(row); err != nil {
			return models.Table{}, fmt.Errorf("scan %s row: %w", spec.Table, err)
		}
		table.Rows = append(table.Rows, models.Row(row))
	}
	if err := rows.Err(); err != nil {
		return models.Table{}, fmt.Errorf("iterate %s: %w", spec.Table, err)
	}
	return table, nil
}

// Columns returns the column names the stored table actually has.
func (r *RecordRepository) Columns(ctx context.Context, entity models.Entity) ([]string, error) {
	spec, err := specFor(entity)
	if err != nil {
		return nil, err
	}
	defer r.observe(string(entity)+".columns", time.Now())

	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", quote(spec.Table)))
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", spec.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("describe %s columns: %w", spec.Table, err)
	}
	return columns, nil
}

// FindByKey loads a single row. It returns sql.ErrNoRows when the key is unknown.
func (r *RecordRepository) FindByKey(ctx context.Context, entity models.Entity, key string) (models.Row, error) {
	spec, err := specFor(entity)
	if err != nil {
		return nil, err
	}
	defer r.observe(string(entity)+".find_by_key", time.Now())

	query := r.db.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", quote(spec.Table), quote(spec.KeyColumn)))
	rows, err := r.db.QueryxContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", spec.Table, key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("find %s %s: %w", spec.Table, key, err)
		}
		return nil, sql.ErrNoRows
	}
	row := make(map[string]interface{})
	if err := rows.MapScan(row); err != nil {
		return nil, fmt.Errorf("scan %s %s: %w", spec.Table, key, err)
	}
	return models.Row(row), nil
}

// Insert stores a single row using the given column order.
func (r *RecordRepository) Insert(ctx context.Context, entity models.Entity, columns []string, row models.Row) error {
	spec, err := specFor(entity)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("insert %s: no columns", spec.Table)
	}
	defer r.observe(string(entity)+".insert", time.Now())

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		quoted[i] = quote(col)
		placeholders[i] = "?"
		args[i] = row[col]
	}

	query := r.db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(spec.Table), strings.Join(quoted, ", "), strings.Join(placeholders, ", ")))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w: %w", spec.Table, ErrDuplicateKey, err)
		}
		return fmt.Errorf("insert %s: %w", spec.Table, err)
	}
	return nil
}

// UpdateByKey overwrites the given columns of the row identified by key.
// It returns sql.ErrNoRows when nothing matched.
func (r *RecordRepository) UpdateByKey(ctx context.Context, entity models.Entity, key string, columns []string, row models.Row) error {
	spec, err := specFor(entity)
	if err != nil {
		return err
	}
	defer r.observe(string(entity)+".update", time.Now())

	sets := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for _, col := range columns {
		if col == spec.KeyColumn {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = ?", quote(col)))
		args = append(args, row[col])
	}
	if len(sets) == 0 {
		return fmt.Errorf("update %s %s: no columns", spec.Table, key)
	}
	args = append(args, key)

	query := r.db.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quote(spec.Table), strings.Join(sets, ", "), quote(spec.KeyColumn)))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", spec.Table, key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s rows affected: %w", spec.Table, key, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll empties the collection.
func (r *RecordRepository) DeleteAll(ctx context.Context, entity models.Entity) error {
	spec, err := specFor(entity)
	if err != nil {
		return err
	}
	defer r.observe(string(entity)+".delete_all", time.Now())

	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quote(spec.Table))); err != nil {
		return fmt.Errorf("delete %s: %w", spec.Table, err)
	}
	return nil
}

// ReplaceAll deletes every row and inserts the given rows in order. It is not transactional:
// a failure part way leaves the rows inserted so far. The count of inserted rows is returned.
func (r *RecordRepository) ReplaceAll(ctx context.Context, entity models.Entity, columns []string, rows []models.Row) (int, error) {
	if err := r.DeleteAll(ctx, entity); err != nil {
		return 0, err
	}
	for i, row := range rows {
		if err := r.Insert(ctx, entity, columns, row); err != nil {
			return i, fmt.Errorf("replace row %d: %w", i+1, err)
		}
	}
	return len(rows), nil
}

// AddColumns adds any of the given columns the stored table lacks, as TEXT.
// It returns the names that were added.
func (r *RecordRepository) AddColumns(ctx context.Context, entity models.Entity, columns []string) ([]string, error) {
	spec, err := specFor(entity)
	if err != nil {
		return nil, err
	}
	existing, err := r.Columns(ctx, entity)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(existing))
	for _, col := range existing {
		present[col] = struct{}{}
	}

	var added []string
	for _, col := range columns {
		if _, ok := present[col]; ok || strings.TrimSpace(col) == "" {
			continue
		}
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(spec.Table), quote(col), models.KindText)
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return added, fmt.Errorf("add column %s.%s: %w", spec.Table, col, err)
		}
		present[col] = struct{}{}
		added = append(added, col)
	}
	return added, nil
}

// EnsureSchema creates any missing entity table with its declared columns.
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	for _, entity := range models.Entities() {
		spec := entity.Spec()
		defs := make([]string, 0, len(spec.Columns))
		for _, col := range spec.Columns {
			def := fmt.Sprintf("%s %s", quote(col.Name), col.Kind)
			if col.Key {
				def += " PRIMARY KEY"
			}
			defs = append(defs, def)
		}
		ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(spec.Table), strings.Join(defs, ", "))
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure table %s: %w", spec.Table, err)
		}
	}
	return nil
}

// Ping checks the store is reachable.
func (r *RecordRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping record store: %w", err)
	}
	return nil
}
