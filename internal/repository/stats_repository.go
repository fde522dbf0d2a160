// This file implements the reporting queries behind the dashboard and the
// public impact page. Every aggregate is an independent, side-effect-free
// read; Snapshot issues them as a concurrent batch and joins before
// returning. There is no cross-query consistency guarantee — each number
// reflects the instant its query ran, and small skew between concurrently
// changing figures is accepted.
package repository

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"
)

// MilestoneCount is one row of the per-milestone assignment breakdown.
// Milestones nobody has achieved yet appear with a zero count.
type MilestoneCount struct {
	MilestoneID uint64
	Title       string
	Count       int64
}

// ImpactSnapshot bundles the dashboard KPIs. The averages are nil — not
// zero — when no responses exist for the question; callers must render
// that as "insufficient data" rather than a zero score.
type ImpactSnapshot struct {
	AttendedParticipants int64
	AvgSatisfaction      *float64
	AvgRecommend         *float64
	MilestonesAchieved   int64
	DonationTotal        float64
	MilestoneCounts      []MilestoneCount
}

// StatsRepo runs the read-only aggregate queries for reporting.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo constructs a StatsRepo with the provided DB handle.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Snapshot gathers every dashboard aggregate concurrently and waits for
// all of them before returning. Any single failure fails the snapshot.
func (r *StatsRepo) Snapshot(ctx context.Context) (*ImpactSnapshot, error) {
	var snap ImpactSnapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.AttendedParticipants, err = r.AttendedParticipants(gctx)
		return
	})
	g.Go(func() (err error) {
		snap.AvgSatisfaction, err = r.AverageScore(gctx, QuestionSatisfaction)
		return
	})
	g.Go(func() (err error) {
		snap.AvgRecommend, err = r.AverageScore(gctx, QuestionRecommend)
		return
	})
	g.Go(func() (err error) {
		snap.MilestonesAchieved, err = r.MilestonesAchieved(gctx)
		return
	})
	g.Go(func() (err error) {
		snap.DonationTotal, err = r.DonationTotal(gctx)
		return
	})
	g.Go(func() (err error) {
		snap.MilestoneCounts, err = r.MilestoneCounts(gctx)
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AttendedParticipants counts distinct participants marked attended on any
// event registration.
func (r *StatsRepo) AttendedParticipants(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT participant_id) FROM event_registrations WHERE attended = 1`).Scan(&n)
	return n, err
}

// AverageScore returns the mean response for one question, rounded to one
// decimal, or nil when no responses exist for it.
func (r *StatsRepo) AverageScore(ctx context.Context, questionNumber uint8) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT ROUND(AVG(score), 1) FROM survey_responses WHERE question_number = ?`,
		questionNumber).Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// MilestonesAchieved counts all participant-milestone links.
func (r *StatsRepo) MilestonesAchieved(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participant_milestones`).Scan(&n)
	return n, err
}

// DonationTotal sums the donation ledger across all scopes, anonymous
// included.
func (r *StatsRepo) DonationTotal(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM donations`).Scan(&total)
	return total, err
}

// MilestoneCounts returns the assignment count per milestone. The left
// join keeps milestones with no assignments in the result at zero.
func (r *StatsRepo) MilestoneCounts(ctx context.Context) ([]MilestoneCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.title, COUNT(pm.id)
		 FROM milestones m
		 LEFT JOIN participant_milestones pm ON pm.milestone_id = m.id
		 GROUP BY m.id, m.title
		 ORDER BY m.title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MilestoneCount
	for rows.Next() {
		var mc MilestoneCount
		if err := rows.Scan(&mc.MilestoneID, &mc.Title, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

// CountsForInstance returns how many participants registered for an event
// instance and how many attended, for the event detail screen.
func (r *StatsRepo) CountsForInstance(ctx context.Context, eventInstanceID uint64) (registered, attended int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(attended), 0) FROM event_registrations
		 WHERE event_instance_id = ?`, eventInstanceID).Scan(&registered, &attended)
	return
}
