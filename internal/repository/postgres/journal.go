package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/courtbook/internal/domain"
)

type JournalRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *JournalRepo) With(db DB) *JournalRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *JournalRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert stores one outcome.
//
// Returns:
//   - error: repository.ErrConflict if an entry with the same id exists.
func (r *JournalRepo) Insert(ctx context.Context, e domain.JournalEntry) error {
	const op = "postgres.JournalRepo.Insert"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO booking_journal
		   (id, session_id, owner_id, schedule_id, reservation_id,
		    campus_id, sport_id, slot_date, outcome, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.SessionID, e.OwnerID,
		nullInt(e.ScheduleID), nullInt(e.ReservationID),
		nullInt(e.Scope.CampusID), nullInt(e.Scope.SportID), nullDate(e.Scope.Date),
		string(e.Outcome), e.Reason, e.CreatedAt,
	)

	return wrapDBErr(op, err)
}

// ListByOwner returns the newest entries of ownerID first.
func (r *JournalRepo) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]domain.JournalEntry, error) {
	const op = "postgres.JournalRepo.ListByOwner"

	rows, err := r.handle().Query(ctx,
		`SELECT id, session_id, owner_id, schedule_id, reservation_id,
		        campus_id, sport_id, slot_date, outcome, reason, created_at
		   FROM booking_journal
		  WHERE owner_id = $1
		  ORDER BY created_at DESC, id
		  LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.JournalEntry, 0, limit)
	for rows.Next() {
		var (
			e                         domain.JournalEntry
			scheduleID, reservationID *int64
			campusID, sportID         *int64
			slotDate                  *time.Time
			outcome                   string
		)

		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.OwnerID, &scheduleID, &reservationID,
			&campusID, &sportID, &slotDate, &outcome, &e.Reason, &e.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		e.ScheduleID = deref(scheduleID)
		e.ReservationID = deref(reservationID)
		e.Scope.CampusID = deref(campusID)
		e.Scope.SportID = deref(sportID)
		if slotDate != nil {
			e.Scope.Date = domain.DateOf(*slotDate)
		}
		e.Outcome = domain.JournalOutcome(outcome)

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func nullInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nullDate(d domain.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
