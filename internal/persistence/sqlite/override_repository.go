package sqlite

import (
	"context"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// OverrideRepository implements persistence.OverrideRepository.
type OverrideRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewOverrideRepository creates a SQLite-backed override repository.
func NewOverrideRepository(pool *ConnectionPool, now func() time.Time) *OverrideRepository {
	if now == nil {
		now = time.Now
	}
	return &OverrideRepository{pool: pool, now: now}
}

// CreateOverride inserts an override record.
func (r *OverrideRepository) CreateOverride(ctx context.Context, override domain.Override) error {
	row, err := persistence.OverrideToRow(override)
	if err != nil {
		return err
	}
	now := r.now().UTC().Format(time.RFC3339)

	_, err = r.pool.DB().ExecContext(ctx,
		`INSERT INTO schedule_overrides (id, schedule_id, date, type, base_entry_id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.ScheduleID, row.Date, row.Type, row.BaseEntryID, nullableBlob(row.Data), now, now,
	)
	return mapError(err)
}

// UpdateOverride replaces a stored override's variant fields.
func (r *OverrideRepository) UpdateOverride(ctx context.Context, override domain.Override) error {
	row, err := persistence.OverrideToRow(override)
	if err != nil {
		return err
	}
	now := r.now().UTC().Format(time.RFC3339)

	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE schedule_overrides SET date = ?, type = ?, base_entry_id = ?, data = ?, updated_at = ?
		 WHERE id = ?`,
		row.Date, row.Type, row.BaseEntryID, nullableBlob(row.Data), now, row.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetOverride loads an override by id.
func (r *OverrideRepository) GetOverride(ctx context.Context, id string) (domain.Override, error) {
	return r.queryOne(ctx,
		`SELECT id, schedule_id, date, type, base_entry_id, data FROM schedule_overrides WHERE id = ?`,
		id,
	)
}

// FindOverrideByEntryAndDate locates the override targeting a base entry on a
// date, if any. One-time overrides never match; they carry no base entry.
func (r *OverrideRepository) FindOverrideByEntryAndDate(ctx context.Context, scheduleID, baseEntryID, date string) (domain.Override, error) {
	return r.queryOne(ctx,
		`SELECT id, schedule_id, date, type, base_entry_id, data FROM schedule_overrides
		 WHERE schedule_id = ? AND base_entry_id = ? AND date = ? AND base_entry_id != ''`,
		scheduleID, baseEntryID, date,
	)
}

func (r *OverrideRepository) queryOne(ctx context.Context, query string, args ...any) (domain.Override, error) {
	var row persistence.OverrideRow
	err := r.pool.DB().QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.ScheduleID, &row.Date, &row.Type, &row.BaseEntryID, &row.Data,
	)
	if err != nil {
		return domain.Override{}, mapError(err)
	}
	return persistence.OverrideFromRow(row)
}

// ListOverrides returns every override of a schedule ordered by date.
func (r *OverrideRepository) ListOverrides(ctx context.Context, scheduleID string) ([]domain.Override, error) {
	return r.queryMany(ctx,
		`SELECT id, schedule_id, date, type, base_entry_id, data FROM schedule_overrides
		 WHERE schedule_id = ? ORDER BY date, id`,
		scheduleID,
	)
}

// ListOverridesInRange returns a schedule's overrides with dates inside the
// inclusive range, ordered by date.
func (r *OverrideRepository) ListOverridesInRange(ctx context.Context, scheduleID, startDate, endDate string) ([]domain.Override, error) {
	return r.queryMany(ctx,
		`SELECT id, schedule_id, date, type, base_entry_id, data FROM schedule_overrides
		 WHERE schedule_id = ? AND date >= ? AND date <= ? ORDER BY date, id`,
		scheduleID, startDate, endDate,
	)
}

func (r *OverrideRepository) queryMany(ctx context.Context, query string, args ...any) ([]domain.Override, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var overrides []domain.Override
	for rows.Next() {
		var row persistence.OverrideRow
		if err := rows.Scan(&row.ID, &row.ScheduleID, &row.Date, &row.Type, &row.BaseEntryID, &row.Data); err != nil {
			return nil, err
		}
		override, err := persistence.OverrideFromRow(row)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, override)
	}
	return overrides, rows.Err()
}

// CountOverridesForEntry reports how many overrides reference the entry. The
// application layer uses this to block deleting entries that are still
// targeted.
func (r *OverrideRepository) CountOverridesForEntry(ctx context.Context, baseEntryID string) (int, error) {
	if baseEntryID == "" {
		return 0, nil
	}
	var count int
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedule_overrides WHERE base_entry_id = ?`,
		baseEntryID,
	).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// DeleteOverride removes an override by id.
func (r *OverrideRepository) DeleteOverride(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM schedule_overrides WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteOverridesForEntry removes every override referencing the entry.
func (r *OverrideRepository) DeleteOverridesForEntry(ctx context.Context, baseEntryID string) error {
	if baseEntryID == "" {
		return nil
	}
	_, err := r.pool.DB().ExecContext(ctx,
		`DELETE FROM schedule_overrides WHERE base_entry_id = ?`,
		baseEntryID,
	)
	return mapError(err)
}

func nullableBlob(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}
