package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLRecordRepository implements domain.RecordRepository on any
// database.Connection. Dates live in record_dates, one row per field, and
// only the dependency relation is stored; successors are read through the
// inverse index.
type SQLRecordRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRecordRepository creates a new SQL record repository.
func NewSQLRecordRepository(conn database.Connection) *SQLRecordRepository {
	return &SQLRecordRepository{conn: conn, now: time.Now}
}

func (r *SQLRecordRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRecordRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save creates or updates a record and all its date fields.
func (r *SQLRecordRepository) Save(ctx context.Context, record *domain.Record) error {
	return r.inTx(ctx, func(exec database.Executor) error {
		_, err := exec.Exec(ctx, r.q(`INSERT INTO records (id, model, display_name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	model = excluded.model,
	display_name = excluded.display_name,
	updated_at = excluded.updated_at`),
			record.ID().String(),
			record.Model(),
			record.DisplayName(),
			database.FormatTime(record.CreatedAt()),
			database.FormatTime(record.UpdatedAt()),
		)
		if err != nil {
			return fmt.Errorf("save record %s: %w", record.ID(), err)
		}

		for _, field := range record.DateFields() {
			_, err := exec.Exec(ctx, r.q(`INSERT INTO record_dates (record_id, field, value)
VALUES (?, ?, ?)
ON CONFLICT (record_id, field) DO UPDATE SET value = excluded.value`),
				record.ID().String(), field, database.FormatNullTime(record.Date(field)))
			if err != nil {
				return fmt.Errorf("save %s of record %s: %w", field, record.ID(), err)
			}
		}
		return nil
	})
}

// inTx runs fn on the context transaction, or on a transaction of its own.
func (r *SQLRecordRepository) inTx(ctx context.Context, fn func(database.Executor) error) error {
	if tx := database.TxFromContext(ctx); tx != nil {
		return fn(tx)
	}
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Browse loads records in the order of ids, skipping missing ones.
func (r *SQLRecordRepository) Browse(ctx context.Context, fields domain.FieldSet, ids ...uuid.UUID) ([]*domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	exec := r.exec(ctx)

	rows, err := r.loadRows(ctx, exec, keys)
	if err != nil {
		return nil, err
	}
	dates, err := r.loadDates(ctx, exec, keys)
	if err != nil {
		return nil, err
	}
	preds, succs, err := r.loadEdges(ctx, exec, fields.Dependency.Name, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Record, 0, len(ids))
	for _, id := range ids {
		row, ok := rows[id]
		if !ok {
			continue
		}
		out = append(out, domain.RehydrateRecord(row.id, row.model, row.displayName, row.createdAt, row.updatedAt,
			dates[id],
			map[string][]uuid.UUID{
				fields.Dependency.Name:         preds[id],
				fields.DependencyInverted.Name: succs[id],
			},
		))
	}
	return out, nil
}

type recordRow struct {
	id                   uuid.UUID
	model, displayName   string
	createdAt, updatedAt time.Time
}

func (r *SQLRecordRepository) loadRows(ctx context.Context, exec database.Executor, keys []string) (map[uuid.UUID]recordRow, error) {
	query, args, err := database.ExpandIn(r.conn.Driver(),
		`SELECT id, model, display_name, created_at, updated_at FROM records WHERE id IN (?)`, keys)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]recordRow, len(keys))
	for rows.Next() {
		var id, model, name, createdAt, updatedAt string
		if err := rows.Scan(&id, &model, &name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		row := recordRow{model: model, displayName: name}
		if row.id, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("record id %q: %w", id, err)
		}
		if row.createdAt, err = database.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if row.updatedAt, err = database.ParseTime(updatedAt); err != nil {
			return nil, err
		}
		out[row.id] = row
	}
	return out, rows.Err()
}

func (r *SQLRecordRepository) loadDates(ctx context.Context, exec database.Executor, keys []string) (map[uuid.UUID]map[string]*time.Time, error) {
	query, args, err := database.ExpandIn(r.conn.Driver(),
		`SELECT record_id, field, value FROM record_dates WHERE record_id IN (?)`, keys)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load record dates: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]map[string]*time.Time, len(keys))
	for rows.Next() {
		var (
			recordID, field string
			value           *string
		)
		if err := rows.Scan(&recordID, &field, &value); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(recordID)
		if err != nil {
			return nil, fmt.Errorf("record id %q: %w", recordID, err)
		}
		t, err := database.ParseNullTime(value)
		if err != nil {
			return nil, err
		}
		if out[id] == nil {
			out[id] = make(map[string]*time.Time)
		}
		out[id][field] = t
	}
	return out, rows.Err()
}

// loadEdges returns the predecessors and successors of every key through relation.
func (r *SQLRecordRepository) loadEdges(ctx context.Context, exec database.Executor, relation string, keys []string) (map[uuid.UUID][]uuid.UUID, map[uuid.UUID][]uuid.UUID, error) {
	query, args, err := database.ExpandIn(r.conn.Driver(),
		`SELECT record_id, depends_on_id FROM record_dependencies
WHERE relation = ? AND (record_id IN (?) OR depends_on_id IN (?))
ORDER BY record_id, depends_on_id`, relation, keys, keys)
	if err != nil {
		return nil, nil, err
	}
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", relation, err)
	}
	defer rows.Close()

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	preds := make(map[uuid.UUID][]uuid.UUID)
	succs := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var recordID, dependsOnID string
		if err := rows.Scan(&recordID, &dependsOnID); err != nil {
			return nil, nil, err
		}
		record, err := uuid.Parse(recordID)
		if err != nil {
			return nil, nil, fmt.Errorf("record id %q: %w", recordID, err)
		}
		dependsOn, err := uuid.Parse(dependsOnID)
		if err != nil {
			return nil, nil, fmt.Errorf("record id %q: %w", dependsOnID, err)
		}
		if wanted[recordID] {
			preds[record] = append(preds[record], dependsOn)
		}
		if wanted[dependsOnID] {
			succs[dependsOn] = append(succs[dependsOn], record)
		}
	}
	return preds, succs, rows.Err()
}

// WriteDates updates the date fields the record already carries.
func (r *SQLRecordRepository) WriteDates(ctx context.Context, id uuid.UUID, values map[string]*time.Time) error {
	exec := r.exec(ctx)

	var count int
	if err := exec.QueryRow(ctx, r.q(`SELECT COUNT(*) FROM records WHERE id = ?`), id.String()).Scan(&count); err != nil {
		return fmt.Errorf("look up record %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}

	for field, value := range values {
		_, err := exec.Exec(ctx, r.q(`UPDATE record_dates SET value = ? WHERE record_id = ? AND field = ?`),
			database.FormatNullTime(value), id.String(), field)
		if err != nil {
			return fmt.Errorf("write %s of record %s: %w", field, id, err)
		}
	}

	_, err := exec.Exec(ctx, r.q(`UPDATE records SET updated_at = ? WHERE id = ?`),
		database.FormatTime(r.now()), id.String())
	return err
}

// AddDependency stores an edge; adding an existing edge is a no-op.
func (r *SQLRecordRepository) AddDependency(ctx context.Context, relation string, recordID, dependsOnID uuid.UUID) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`INSERT INTO record_dependencies (relation, record_id, depends_on_id)
VALUES (?, ?, ?)
ON CONFLICT (relation, record_id, depends_on_id) DO NOTHING`),
		relation, recordID.String(), dependsOnID.String())
	if err != nil {
		return fmt.Errorf("link %s to %s: %w", recordID, dependsOnID, err)
	}
	return nil
}

// ListByModel loads every record of a model, oldest first.
func (r *SQLRecordRepository) ListByModel(ctx context.Context, model string, fields domain.FieldSet) ([]*domain.Record, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(`SELECT id FROM records WHERE model = ? ORDER BY created_at, id`), model)
	if err != nil {
		return nil, fmt.Errorf("list records of %s: %w", model, err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("record id %q: %w", id, err)
		}
		ids = append(ids, parsed)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	return r.Browse(ctx, fields, ids...)
}
