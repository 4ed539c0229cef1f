package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository.
//
// The aggregate is written as a whole: updates replace the schedule's share
// list, phases, and entries in one transaction. Rebuilding the child rows on
// every write keeps positions consistent without diffing.
type ScheduleRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewScheduleRepository creates a SQLite-backed schedule repository.
func NewScheduleRepository(pool *ConnectionPool, now func() time.Time) *ScheduleRepository {
	if now == nil {
		now = time.Now
	}
	return &ScheduleRepository{pool: pool, now: now}
}

// CreateSchedule inserts a schedule aggregate.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	now := r.now().UTC().Format(time.RFC3339)

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO schedules (id, owner_id, name, time_zone, ical_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			schedule.ID, schedule.OwnerID, schedule.Name, schedule.TimeZone, schedule.ICalURL, now, now,
		)
		if err != nil {
			return mapError(err)
		}
		return r.writeChildren(tx, schedule)
	})
}

// UpdateSchedule replaces a stored aggregate with the given state.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	now := r.now().UTC().Format(time.RFC3339)

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE schedules SET name = ?, time_zone = ?, updated_at = ? WHERE id = ?`,
			schedule.Name, schedule.TimeZone, now, schedule.ID,
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

		for _, table := range []string{"schedule_shares", "schedule_phases"} {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE schedule_id = ?`, schedule.ID); err != nil {
				return mapError(err)
			}
		}
		return r.writeChildren(tx, schedule)
	})
}

func (r *ScheduleRepository) writeChildren(tx *sql.Tx, schedule *domain.Schedule) error {
	for _, userID := range schedule.SharedUserIDs {
		if _, err := tx.Exec(
			`INSERT INTO schedule_shares (schedule_id, user_id) VALUES (?, ?)`,
			schedule.ID, userID,
		); err != nil {
			return mapError(err)
		}
	}

	for phasePos, phase := range schedule.Phases {
		if _, err := tx.Exec(
			`INSERT INTO schedule_phases (id, schedule_id, name, start_date, end_date, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			phase.ID, schedule.ID, phase.Name, phase.StartDate, phase.EndDate, phasePos,
		); err != nil {
			return mapError(err)
		}
		for entryPos, entry := range phase.Entries {
			if _, err := tx.Exec(
				`INSERT INTO schedule_entries (id, phase_id, name, day_of_week, start_time_minutes, duration_minutes, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				entry.ID, phase.ID, entry.Name, entry.DayOfWeek, entry.StartTimeMinutes, entry.DurationMinutes, entryPos,
			); err != nil {
				return mapError(err)
			}
		}
	}
	return nil
}

// GetSchedule loads an aggregate by id.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetScheduleByFeedToken loads the aggregate whose iCal URL matches.
func (r *ScheduleRepository) GetScheduleByFeedToken(ctx context.Context, token string) (*domain.Schedule, error) {
	return r.getByColumn(ctx, "ical_url", token)
}

func (r *ScheduleRepository) getByColumn(ctx context.Context, column, value string) (*domain.Schedule, error) {
	var row persistence.ScheduleRow
	err := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, owner_id, name, time_zone, ical_url FROM schedules WHERE `+column+` = ?`,
		value,
	).Scan(&row.ID, &row.OwnerID, &row.Name, &row.TimeZone, &row.ICalURL)
	if err != nil {
		return nil, mapError(err)
	}
	return r.loadAggregate(ctx, row)
}

func (r *ScheduleRepository) loadAggregate(ctx context.Context, row persistence.ScheduleRow) (*domain.Schedule, error) {
	shares, err := r.loadShares(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	phaseRows, err := r.loadPhases(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	entryRows := make(map[string][]persistence.EntryRow, len(phaseRows))
	for _, phaseRow := range phaseRows {
		entries, err := r.loadEntries(ctx, phaseRow.ID)
		if err != nil {
			return nil, err
		}
		entryRows[phaseRow.ID] = entries
	}

	return persistence.AssembleSchedule(row, shares, phaseRows, entryRows)
}

func (r *ScheduleRepository) loadShares(ctx context.Context, scheduleID string) ([]string, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT user_id FROM schedule_shares WHERE schedule_id = ? ORDER BY user_id`,
		scheduleID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var shares []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		shares = append(shares, userID)
	}
	return shares, rows.Err()
}

func (r *ScheduleRepository) loadPhases(ctx context.Context, scheduleID string) ([]persistence.PhaseRow, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, schedule_id, name, start_date, end_date, position
		 FROM schedule_phases WHERE schedule_id = ? ORDER BY position`,
		scheduleID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var phases []persistence.PhaseRow
	for rows.Next() {
		var phase persistence.PhaseRow
		if err := rows.Scan(&phase.ID, &phase.ScheduleID, &phase.Name, &phase.StartDate, &phase.EndDate, &phase.Position); err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}
	return phases, rows.Err()
}

func (r *ScheduleRepository) loadEntries(ctx context.Context, phaseID string) ([]persistence.EntryRow, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, phase_id, name, day_of_week, start_time_minutes, duration_minutes, position
		 FROM schedule_entries WHERE phase_id = ? ORDER BY position`,
		phaseID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.EntryRow
	for rows.Next() {
		var entry persistence.EntryRow
		if err := rows.Scan(&entry.ID, &entry.PhaseID, &entry.Name, &entry.DayOfWeek, &entry.StartTimeMinutes, &entry.DurationMinutes, &entry.Position); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListSchedulesForUser returns every schedule the user owns or has been
// shared, ordered by name then id.
func (r *ScheduleRepository) ListSchedulesForUser(ctx context.Context, userID string) ([]*domain.Schedule, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT DISTINCT s.id, s.owner_id, s.name, s.time_zone, s.ical_url
		 FROM schedules s
		 LEFT JOIN schedule_shares sh ON sh.schedule_id = s.id
		 WHERE s.owner_id = ? OR sh.user_id = ?
		 ORDER BY s.name, s.id`,
		userID, userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var scheduleRows []persistence.ScheduleRow
	for rows.Next() {
		var row persistence.ScheduleRow
		if err := rows.Scan(&row.ID, &row.OwnerID, &row.Name, &row.TimeZone, &row.ICalURL); err != nil {
			return nil, err
		}
		scheduleRows = append(scheduleRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	schedules := make([]*domain.Schedule, 0, len(scheduleRows))
	for _, row := range scheduleRows {
		schedule, err := r.loadAggregate(ctx, row)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule. Shares, phases, entries, and overrides
// cascade through foreign keys.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
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
