package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Registration links a participant to an event instance with an attendance
// flag. The reporting engine consumes these for aggregate counts; the admin
// event screens create them and toggle attendance.
type Registration struct {
	ID              uint64
	ParticipantID   uint64
	EventInstanceID uint64
	Attended        bool
	ParticipantName string
}

// ErrRegistrationNotFound is returned when a registration cannot be found.
var ErrRegistrationNotFound = errors.New("registration not found")

// RegistrationRepo encapsulates database queries for event registrations.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo constructs a RegistrationRepo with the provided DB handle.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// ListByInstance returns an event instance's registrations, alphabetically
// by participant.
func (r *RegistrationRepo) ListByInstance(ctx context.Context, eventInstanceID uint64) ([]*Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT er.id, er.participant_id, er.event_instance_id, er.attended,
			CONCAT(p.first_name, ' ', p.last_name)
		 FROM event_registrations er
		 JOIN participants p ON p.id = er.participant_id
		 WHERE er.event_instance_id = ?
		 ORDER BY p.last_name, p.first_name`, eventInstanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		reg := new(Registration)
		if err := rows.Scan(&reg.ID, &reg.ParticipantID, &reg.EventInstanceID,
			&reg.Attended, &reg.ParticipantName); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Create registers a participant for an event instance. A participant may
// register once per instance; duplicates fail with ErrConflict.
func (r *RegistrationRepo) Create(ctx context.Context, participantID, eventInstanceID uint64) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO event_registrations (participant_id, event_instance_id) VALUES (?, ?)`,
		participantID, eventInstanceID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SetAttended flips the attendance flag for one registration.
func (r *RegistrationRepo) SetAttended(ctx context.Context, id uint64, attended bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE event_registrations SET attended = ? WHERE id = ?`, attended, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Re-marking attendance to its current value also affects 0 rows;
		// only a genuinely missing registration is not found.
		var exists uint64
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM event_registrations WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		return err
	}
	return nil
}

// Delete removes a registration.
func (r *RegistrationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM event_registrations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}
