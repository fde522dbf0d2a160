package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Question numbers are a fixed small enumeration. Number 3 is reserved in
// the numbering scheme: it is never written or read.
const (
	QuestionSatisfaction = 1
	QuestionUsefulness   = 2
	QuestionRecommend    = 4
)

// SurveySubmission is one participant's feedback for one event instance.
// Participant and event names are joined in for the list and detail views.
// Satisfaction carries the question-1 score when one exists.
type SurveySubmission struct {
	ID              uint64
	ParticipantID   uint64
	EventInstanceID uint64
	ParticipantName string
	EventName       string
	SubmittedAt     time.Time
	Satisfaction    *uint8
}

// SurveyResponse is one numbered-question answer tied to a submission.
type SurveyResponse struct {
	SubmissionID   uint64
	QuestionNumber uint8
	Score          uint8
}

// ErrSurveyNotFound is returned when a survey submission cannot be found.
var ErrSurveyNotFound = errors.New("survey submission not found")

// SurveyRepo encapsulates database queries for survey submissions, their
// responses and comments.
type SurveyRepo struct {
	db *sql.DB
}

// NewSurveyRepo constructs a SurveyRepo with the provided DB handle.
func NewSurveyRepo(db *sql.DB) *SurveyRepo { return &SurveyRepo{db: db} }

// Search returns submissions whose participant or event name contains the
// term, newest first. Each row carries the question-1 satisfaction score
// via a left join; minSatisfaction > 0 pre-filters on that score. Fetch the
// remaining responses for the visible set with ResponsesFor — one batched
// query, not one per row.
func (r *SurveyRepo) Search(ctx context.Context, term string, minSatisfaction int) ([]*SurveySubmission, error) {
	q := `SELECT ss.id, ss.participant_id, ss.event_instance_id,
			CONCAT(p.first_name, ' ', p.last_name), t.name, ss.submitted_at, sat.score
		FROM survey_submissions ss
		JOIN participants p ON p.id = ss.participant_id
		JOIN event_instances i ON i.id = ss.event_instance_id
		JOIN event_templates t ON t.id = i.template_id
		LEFT JOIN survey_responses sat
			ON sat.submission_id = ss.id AND sat.question_number = ?`
	args := []any{QuestionSatisfaction}

	var where []string
	if cond, like := searchClause(term,
		"CONCAT(p.first_name, ' ', p.last_name)", "t.name"); cond != "" {
		where = append(where, cond)
		args = append(args, like, like)
	}
	if minSatisfaction > 0 {
		where = append(where, "sat.score >= ?")
		args = append(args, minSatisfaction)
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY ss.submitted_at DESC, ss.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SurveySubmission
	for rows.Next() {
		s := new(SurveySubmission)
		var sat sql.NullInt64
		if err := rows.Scan(&s.ID, &s.ParticipantID, &s.EventInstanceID,
			&s.ParticipantName, &s.EventName, &s.SubmittedAt, &sat); err != nil {
			return nil, err
		}
		if sat.Valid {
			v := uint8(sat.Int64)
			s.Satisfaction = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ResponsesFor fetches every response row for the given submissions in one
// IN query, keyed by submission id. An empty id set returns an empty map
// without touching the database.
func (r *SurveyRepo) ResponsesFor(ctx context.Context, submissionIDs []uint64) (map[uint64][]SurveyResponse, error) {
	out := make(map[uint64][]SurveyResponse, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(submissionIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(submissionIDs))
	for i, id := range submissionIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT submission_id, question_number, score FROM survey_responses
		 WHERE submission_id IN (`+placeholders+`)
		 ORDER BY submission_id, question_number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resp SurveyResponse
		if err := rows.Scan(&resp.SubmissionID, &resp.QuestionNumber, &resp.Score); err != nil {
			return nil, err
		}
		out[resp.SubmissionID] = append(out[resp.SubmissionID], resp)
	}
	return out, rows.Err()
}

// GetSubmission fetches one submission with names joined in.
func (r *SurveyRepo) GetSubmission(ctx context.Context, id uint64) (*SurveySubmission, error) {
	const q = `SELECT ss.id, ss.participant_id, ss.event_instance_id,
			CONCAT(p.first_name, ' ', p.last_name), t.name, ss.submitted_at
		FROM survey_submissions ss
		JOIN participants p ON p.id = ss.participant_id
		JOIN event_instances i ON i.id = ss.event_instance_id
		JOIN event_templates t ON t.id = i.template_id
		WHERE ss.id = ?`
	s := new(SurveySubmission)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.ParticipantID, &s.EventInstanceID,
		&s.ParticipantName, &s.EventName, &s.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Comment returns the free-text feedback for a submission, or "" when the
// participant left none. Only comment #1 is used in practice.
func (r *SurveyRepo) Comment(ctx context.Context, submissionID uint64) (string, error) {
	var body string
	err := r.db.QueryRowContext(ctx,
		`SELECT body FROM survey_comments
		 WHERE submission_id = ? AND comment_number = 1`, submissionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return body, err
}

// Create stores a submission together with its responses and optional
// comment in a single transaction, so a crash between the steps cannot
// leave a submission without its answers. Scores map question number to
// value; the reserved question 3 is never written. The error result is
// named so the deferred commit's outcome reaches the caller.
func (r *SurveyRepo) Create(ctx context.Context, participantID, eventInstanceID uint64, scores map[uint8]uint8, comment string) (id uint64, err error) {
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

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO survey_submissions (participant_id, event_instance_id) VALUES (?, ?)`,
		participantID, eventInstanceID)
	if err != nil {
		return 0, err
	}
	var submissionID int64
	if submissionID, err = res.LastInsertId(); err != nil {
		return 0, err
	}
	for _, qn := range []uint8{QuestionSatisfaction, QuestionUsefulness, QuestionRecommend} {
		score, ok := scores[qn]
		if !ok {
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO survey_responses (submission_id, question_number, score) VALUES (?, ?, ?)`,
			submissionID, qn, score); err != nil {
			return 0, err
		}
	}
	if comment = strings.TrimSpace(comment); comment != "" {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO survey_comments (submission_id, comment_number, body) VALUES (?, 1, ?)`,
			submissionID, comment); err != nil {
			return 0, err
		}
	}
	return uint64(submissionID), nil
}

// Delete removes a submission and its dependent responses and comments,
// children first, in one transaction.
func (r *SurveyRepo) Delete(ctx context.Context, id uint64) (err error) {
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
		`DELETE FROM survey_responses WHERE submission_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM survey_comments WHERE submission_id = ?`, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx,
		`DELETE FROM survey_submissions WHERE id = ?`, id); err != nil {
		return err
	}
	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return err
	}
	if n == 0 {
		err = ErrSurveyNotFound
	}
	return err
}
