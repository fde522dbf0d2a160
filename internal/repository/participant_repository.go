// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Participant model and repository methods. A
// Participant is either a program beneficiary or, in the donation flow, a
// donor-of-record. Email and phone are optional but globally unique when
// present; that rule lives here, inside the write transactions, because the
// schema alone cannot exclude the row currently being edited.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Participant mirrors the 'participants' table. Email and Phone are
// pointers because both columns are nullable.
type Participant struct {
	ID               uint64
	FirstName        string
	LastName         string
	Email            *string
	Phone            *string
	Street           string
	City             string
	State            string
	Zip              string
	SchoolOrEmployer string
	FieldOfInterest  string
	Role             string // "participant" | "donor"
	CreatedAt        string
	UpdatedAt        string
}

// FullName joins first and last name for display and search results.
func (p *Participant) FullName() string { return p.FirstName + " " + p.LastName }

// ErrParticipantNotFound is returned when a participant cannot be found.
var ErrParticipantNotFound = errors.New("participant not found")

// ParticipantRepo encapsulates all database queries related to participants.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo constructs a ParticipantRepo with the provided DB handle.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

const participantCols = `id, first_name, last_name, email, phone, street, city, state, zip,
	school_or_employer, field_of_interest, role, created_at, updated_at`

func scanParticipant(row interface{ Scan(...any) error }) (*Participant, error) {
	var p Participant
	var email, phone, street, city, state, zip, school, field sql.NullString
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &email, &phone,
		&street, &city, &state, &zip, &school, &field, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		p.Email = &email.String
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	p.Street, p.City, p.State, p.Zip = street.String, city.String, state.String, zip.String
	p.SchoolOrEmployer, p.FieldOfInterest = school.String, field.String
	return &p, nil
}

// Search returns participants whose full name, email or city contains the
// given term, case-insensitively. An empty term returns the full listing.
// Results are stably ordered by last name, first name, then id.
func (r *ParticipantRepo) Search(ctx context.Context, term string) ([]*Participant, error) {
	q := `SELECT ` + participantCols + ` FROM participants`
	var args []any
	if cond, like := searchClause(term,
		"CONCAT(first_name, ' ', last_name)", "email", "city"); cond != "" {
		q += " WHERE " + cond
		for i := 0; i < 3; i++ {
			args = append(args, like)
		}
	}
	q += " ORDER BY last_name, first_name, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches a participant by id. It returns ErrParticipantNotFound
// when no row matches.
func (r *ParticipantRepo) GetByID(ctx context.Context, id uint64) (*Participant, error) {
	const q = `SELECT ` + participantCols + ` FROM participants WHERE id = ?`
	p, err := scanParticipant(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrParticipantNotFound
	}
	return p, err
}

// Create inserts a new participant after checking that the email and phone,
// when present, are not already taken. The check and the insert share one
// transaction so two concurrent writers cannot both pass the check and
// commit. On success the ID field is populated. The error result is named
// so the deferred commit's outcome reaches the caller.
func (r *ParticipantRepo) Create(ctx context.Context, p *Participant) (err error) {
	normalizeContact(p)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = checkContactUnique(ctx, tx, p.Email, p.Phone, 0); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO participants (first_name, last_name, email, phone, street, city, state, zip,
		 school_or_employer, field_of_interest, role)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Street, p.City, p.State, p.Zip,
		p.SchoolOrEmployer, p.FieldOfInterest, p.Role)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrConflict
		}
		return err
	}
	var id int64
	if id, err = res.LastInsertId(); err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update rewrites a participant's fields. The uniqueness pre-check excludes
// the row under edit so a participant can keep their own email. Returns
// ErrParticipantNotFound when the id has no matching row.
func (r *ParticipantRepo) Update(ctx context.Context, p *Participant) (err error) {
	normalizeContact(p)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = checkContactUnique(ctx, tx, p.Email, p.Phone, p.ID); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE participants
		 SET first_name = ?, last_name = ?, email = ?, phone = ?, street = ?, city = ?,
		     state = ?, zip = ?, school_or_employer = ?, field_of_interest = ?, role = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Street, p.City, p.State, p.Zip,
		p.SchoolOrEmployer, p.FieldOfInterest, p.Role, p.ID)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrConflict
		}
		return err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		// MySQL also reports 0 when the row exists but nothing changed;
		// confirm absence before reporting not found.
		var exists uint64
		if err = tx.QueryRowContext(ctx,
			`SELECT id FROM participants WHERE id = ?`, p.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = ErrParticipantNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a participant. The operation is refused with ErrBlocked
// while the participant owns any donation, since the donation ledger keys
// off the participant scope. Otherwise the participant's milestone links,
// event registrations and survey data are removed first, then the row.
func (r *ParticipantRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var donations int64
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM donations WHERE participant_id = ?`, id).Scan(&donations); err != nil {
		return err
	}
	if donations > 0 {
		err = ErrBlocked
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM participant_milestones WHERE participant_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE sr FROM survey_responses sr
		 JOIN survey_submissions ss ON ss.id = sr.submission_id
		 WHERE ss.participant_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE sc FROM survey_comments sc
		 JOIN survey_submissions ss ON ss.id = sc.submission_id
		 WHERE ss.participant_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM survey_submissions WHERE participant_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM event_registrations WHERE participant_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id); err != nil {
		return err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		err = ErrParticipantNotFound
	}
	return err
}

// FindOrCreateByEmail returns the id of the participant with the given
// email, creating a donor-of-record when none exists. The lookup and the
// insert share one transaction; a duplicate-key error from a concurrent
// donor with the same email resolves by re-reading the winner's row, which
// keeps the operation idempotent.
func (r *ParticipantRepo) FindOrCreateByEmail(ctx context.Context, firstName, lastName, email string) (id uint64, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, ErrParticipantNotFound
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM participants WHERE LOWER(email) = ?`, email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO participants (first_name, last_name, email, role) VALUES (?, ?, ?, 'donor')`,
		firstName, lastName, email)
	if err != nil {
		if isDuplicateKey(err) {
			err = tx.QueryRowContext(ctx,
				`SELECT id FROM participants WHERE LOWER(email) = ?`, email).Scan(&id)
			return id, err
		}
		return 0, err
	}
	var newID int64
	if newID, err = res.LastInsertId(); err != nil {
		return 0, err
	}
	return uint64(newID), nil
}

// normalizeContact lowercases and trims the optional contact fields, and
// collapses empty strings to NULL so the unique indexes ignore them.
func normalizeContact(p *Participant) {
	if p.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*p.Email))
		if e == "" {
			p.Email = nil
		} else {
			p.Email = &e
		}
	}
	if p.Phone != nil {
		ph := strings.TrimSpace(*p.Phone)
		if ph == "" {
			p.Phone = nil
		} else {
			p.Phone = &ph
		}
	}
}

// checkContactUnique fails with ErrConflict when another participant row
// already carries the given email or phone. excludeID skips the row being
// edited; pass 0 on insert.
func checkContactUnique(ctx context.Context, tx *sql.Tx, email, phone *string, excludeID uint64) error {
	if email != nil {
		var id uint64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM participants WHERE LOWER(email) = ? AND id <> ?`,
			strings.ToLower(*email), excludeID).Scan(&id)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	if phone != nil {
		var id uint64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM participants WHERE phone = ? AND id <> ?`,
			*phone, excludeID).Scan(&id)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	return nil
}
