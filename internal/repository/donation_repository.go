package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// AnonymousParticipantID is the sentinel participant scope for gifts with
// no donor-of-record. The donations table has no row 0 in participants;
// the sentinel simply buckets all anonymous gifts under one sequence.
const AnonymousParticipantID uint64 = 0

// Donation is one monetary gift. Its identity is the composite pair
// (participant scope, per-scope sequence number); the pair is immutable
// once chosen, so changing the owning participant is a Move, never an
// in-place key mutation.
type Donation struct {
	ParticipantID  uint64
	DonationNumber uint64
	Amount         float64
	DonatedOn      time.Time
	DonorName      string // joined donor name, "Anonymous" for the sentinel scope
}

// Anonymous reports whether the donation sits in the anonymous bucket.
func (d *Donation) Anonymous() bool { return d.ParticipantID == AnonymousParticipantID }

// ErrDonationNotFound is returned when a donation cannot be found.
var ErrDonationNotFound = errors.New("donation not found")

// DonationRepo encapsulates database queries for the donation ledger.
type DonationRepo struct {
	db *sql.DB
}

// NewDonationRepo constructs a DonationRepo with the provided DB handle.
func NewDonationRepo(db *sql.DB) *DonationRepo { return &DonationRepo{db: db} }

const donationCols = `d.participant_id, d.donation_number, d.amount, d.donated_on,
	COALESCE(CONCAT(p.first_name, ' ', p.last_name), 'Anonymous')`

// Search returns donations whose donor name contains the term,
// case-insensitively, newest first. An empty term returns the full ledger.
func (r *DonationRepo) Search(ctx context.Context, term string) ([]*Donation, error) {
	q := `SELECT ` + donationCols + `
		FROM donations d
		LEFT JOIN participants p ON p.id = d.participant_id`
	var args []any
	if cond, like := searchClause(term,
		"COALESCE(CONCAT(p.first_name, ' ', p.last_name), 'Anonymous')"); cond != "" {
		q += " WHERE " + cond
		args = append(args, like)
	}
	q += " ORDER BY d.donated_on DESC, d.participant_id, d.donation_number"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Donation
	for rows.Next() {
		d := new(Donation)
		if err := rows.Scan(&d.ParticipantID, &d.DonationNumber, &d.Amount, &d.DonatedOn, &d.DonorName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByParticipant returns one participant's donations in sequence order.
func (r *DonationRepo) ListByParticipant(ctx context.Context, participantID uint64) ([]*Donation, error) {
	q := `SELECT ` + donationCols + `
		FROM donations d
		LEFT JOIN participants p ON p.id = d.participant_id
		WHERE d.participant_id = ?
		ORDER BY d.donation_number`
	rows, err := r.db.QueryContext(ctx, q, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Donation
	for rows.Next() {
		d := new(Donation)
		if err := rows.Scan(&d.ParticipantID, &d.DonationNumber, &d.Amount, &d.DonatedOn, &d.DonorName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get fetches one donation by its composite key.
func (r *DonationRepo) Get(ctx context.Context, participantID, donationNumber uint64) (*Donation, error) {
	q := `SELECT ` + donationCols + `
		FROM donations d
		LEFT JOIN participants p ON p.id = d.participant_id
		WHERE d.participant_id = ? AND d.donation_number = ?`
	d := new(Donation)
	err := r.db.QueryRowContext(ctx, q, participantID, donationNumber).
		Scan(&d.ParticipantID, &d.DonationNumber, &d.Amount, &d.DonatedOn, &d.DonorName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDonationNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts a new donation, allocating the next sequence number for
// the participant scope. The max-sequence read runs under FOR UPDATE inside
// the insert's transaction so two concurrent gifts for the same scope
// serialize instead of colliding on the same number. On success the
// DonationNumber field carries the allocated value. The error result is
// named so the deferred commit's outcome reaches the caller.
func (r *DonationRepo) Create(ctx context.Context, d *Donation) (err error) {
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

	if d.DonationNumber, err = nextDonationNumber(ctx, tx, d.ParticipantID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO donations (participant_id, donation_number, amount, donated_on)
		 VALUES (?, ?, ?, ?)`,
		d.ParticipantID, d.DonationNumber, d.Amount, d.DonatedOn.Format("2006-01-02"))
	return err
}

// Update rewrites a donation's amount and date. The composite key never
// changes here; use Move to change the owning participant.
func (r *DonationRepo) Update(ctx context.Context, participantID, donationNumber uint64, amount float64, donatedOn time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE donations SET amount = ?, donated_on = ?
		 WHERE participant_id = ? AND donation_number = ?`,
		amount, donatedOn.Format("2006-01-02"), participantID, donationNumber)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "row missing" from "nothing changed".
		var one int
		err = r.db.QueryRowContext(ctx,
			`SELECT 1 FROM donations WHERE participant_id = ? AND donation_number = ?`,
			participantID, donationNumber).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDonationNotFound
		}
		return err
	}
	return nil
}

// Move re-keys a donation under a new participant scope, rewriting its
// amount and date in the same step, and returns the new sequence number.
// Lock, delete and reinsert happen in one transaction, so a crash
// mid-operation cannot leave the donation deleted without its replacement
// and an owner change never splits from the field rewrite.
func (r *DonationRepo) Move(ctx context.Context, participantID, donationNumber, newParticipantID uint64, amount float64, donatedOn time.Time) (newNumber uint64, err error) {
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

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM donations
		 WHERE participant_id = ? AND donation_number = ? FOR UPDATE`,
		participantID, donationNumber).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrDonationNotFound
		return 0, err
	}
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM donations WHERE participant_id = ? AND donation_number = ?`,
		participantID, donationNumber); err != nil {
		return 0, err
	}
	if newNumber, err = nextDonationNumber(ctx, tx, newParticipantID); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO donations (participant_id, donation_number, amount, donated_on)
		 VALUES (?, ?, ?, ?)`,
		newParticipantID, newNumber, amount, donatedOn.Format("2006-01-02")); err != nil {
		return 0, err
	}
	return newNumber, nil
}

// Delete removes one donation by its composite key.
func (r *DonationRepo) Delete(ctx context.Context, participantID, donationNumber uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM donations WHERE participant_id = ? AND donation_number = ?`,
		participantID, donationNumber)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDonationNotFound
	}
	return nil
}

// nextDonationNumber allocates max(existing)+1 for the scope. FOR UPDATE
// locks the scope's rows (and the gap beyond them) so concurrent inserts
// for the same scope serialize; sequence values come out gapless 1..N.
func nextDonationNumber(ctx context.Context, tx *sql.Tx, participantID uint64) (uint64, error) {
	var max uint64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(donation_number), 0) FROM donations
		 WHERE participant_id = ? FOR UPDATE`,
		participantID).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
