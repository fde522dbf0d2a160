package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Milestone is a reusable achievement definition. Assignments to
// participants live in the participant_milestones link table.
type Milestone struct {
	ID          uint64
	Title       string
	Description string
}

// MilestoneAssignment is one participant-milestone link together with the
// names needed on detail pages, so callers avoid a second lookup per row.
type MilestoneAssignment struct {
	ParticipantID   uint64
	MilestoneID     uint64
	ParticipantName string
	MilestoneTitle  string
	AchievedOn      time.Time
}

// ErrMilestoneNotFound is returned when a milestone cannot be found.
var ErrMilestoneNotFound = errors.New("milestone not found")

// MilestoneRepo encapsulates all database queries related to milestones
// and their participant assignments.
type MilestoneRepo struct {
	db *sql.DB
}

// NewMilestoneRepo constructs a MilestoneRepo with the provided DB handle.
func NewMilestoneRepo(db *sql.DB) *MilestoneRepo { return &MilestoneRepo{db: db} }

// Search returns milestones whose title or description contains the term,
// case-insensitively, ordered by title.
func (r *MilestoneRepo) Search(ctx context.Context, term string) ([]*Milestone, error) {
	q := `SELECT id, title, COALESCE(description, '') FROM milestones`
	var args []any
	if cond, like := searchClause(term, "title", "description"); cond != "" {
		q += " WHERE " + cond
		args = append(args, like, like)
	}
	q += " ORDER BY title, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Milestone
	for rows.Next() {
		m := new(Milestone)
		if err := rows.Scan(&m.ID, &m.Title, &m.Description); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByID fetches a milestone by id, returning ErrMilestoneNotFound when
// no row matches.
func (r *MilestoneRepo) GetByID(ctx context.Context, id uint64) (*Milestone, error) {
	var m Milestone
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(description, '') FROM milestones WHERE id = ?`,
		id).Scan(&m.ID, &m.Title, &m.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMilestoneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new milestone and populates its ID.
func (r *MilestoneRepo) Create(ctx context.Context, m *Milestone) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO milestones (title, description) VALUES (?, ?)`, m.Title, m.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update rewrites a milestone's title and description.
func (r *MilestoneRepo) Update(ctx context.Context, m *Milestone) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE milestones SET title = ?, description = ? WHERE id = ?`,
		m.Title, m.Description, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL also reports 0 when the row exists but nothing changed;
		// confirm absence before reporting not found.
		var exists uint64
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM milestones WHERE id = ?`, m.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMilestoneNotFound
		}
		return err
	}
	return nil
}

// Delete removes a milestone and all participant assignments referencing
// it. The links go first, inside one transaction, so a crash between the
// two deletes cannot orphan assignment rows.
func (r *MilestoneRepo) Delete(ctx context.Context, id uint64) (err error) {
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

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM participant_milestones WHERE milestone_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id); err != nil {
		return err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		err = ErrMilestoneNotFound
	}
	return err
}

// Assign links a participant to a milestone with an achieved date. A
// participant may hold a milestone only once; a second assignment fails
// with ErrConflict via the link table's unique key.
func (r *MilestoneRepo) Assign(ctx context.Context, participantID, milestoneID uint64, achievedOn time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO participant_milestones (participant_id, milestone_id, achieved_on)
		 VALUES (?, ?, ?)`,
		participantID, milestoneID, achievedOn.Format("2006-01-02"))
	if isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// Unassign removes a participant-milestone link.
func (r *MilestoneRepo) Unassign(ctx context.Context, participantID, milestoneID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM participant_milestones WHERE participant_id = ? AND milestone_id = ?`,
		participantID, milestoneID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMilestoneNotFound
	}
	return nil
}

// ListByParticipant returns the milestones a participant has achieved,
// newest first.
func (r *MilestoneRepo) ListByParticipant(ctx context.Context, participantID uint64) ([]*MilestoneAssignment, error) {
	const q = `SELECT pm.participant_id, pm.milestone_id, m.title, pm.achieved_on
		FROM participant_milestones pm
		JOIN milestones m ON m.id = pm.milestone_id
		WHERE pm.participant_id = ?
		ORDER BY pm.achieved_on DESC, m.title`
	return r.listAssignments(ctx, q, participantID)
}

// ListHolders returns the participants who have achieved the given
// milestone, alphabetically.
func (r *MilestoneRepo) ListHolders(ctx context.Context, milestoneID uint64) ([]*MilestoneAssignment, error) {
	const q = `SELECT pm.participant_id, pm.milestone_id,
			CONCAT(p.first_name, ' ', p.last_name), pm.achieved_on
		FROM participant_milestones pm
		JOIN participants p ON p.id = pm.participant_id
		WHERE pm.milestone_id = ?
		ORDER BY p.last_name, p.first_name`
	return r.listAssignments(ctx, q, milestoneID)
}

func (r *MilestoneRepo) listAssignments(ctx context.Context, q string, arg uint64) ([]*MilestoneAssignment, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MilestoneAssignment
	for rows.Next() {
		a := new(MilestoneAssignment)
		var name string
		if err := rows.Scan(&a.ParticipantID, &a.MilestoneID, &name, &a.AchievedOn); err != nil {
			return nil, err
		}
		// The third column is the milestone title in one query and the
		// participant name in the other.
		a.MilestoneTitle, a.ParticipantName = name, name
		out = append(out, a)
	}
	return out, rows.Err()
}
