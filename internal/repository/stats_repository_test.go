package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAverageScoreNilWhenNoResponses(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT ROUND(AVG(score), 1) FROM survey_responses`)).
		WithArgs(uint8(QuestionSatisfaction)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	repo := NewStatsRepo(db)
	avg, err := repo.AverageScore(context.Background(), QuestionSatisfaction)
	if err != nil {
		t.Fatalf("AverageScore: %v", err)
	}
	if avg != nil {
		t.Errorf("avg = %v, want nil for no responses", *avg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAverageScoreRounded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// 5, 4, 5 averages to 4.666..., rounded by SQL to 4.7.
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT ROUND(AVG(score), 1) FROM survey_responses`)).
		WithArgs(uint8(QuestionRecommend)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(4.7))

	repo := NewStatsRepo(db)
	avg, err := repo.AverageScore(context.Background(), QuestionRecommend)
	if err != nil {
		t.Fatalf("AverageScore: %v", err)
	}
	if avg == nil || *avg != 4.7 {
		t.Errorf("avg = %v, want 4.7", avg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMilestoneCountsKeepsZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT m.id, m.title, COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "count"}).
			AddRow(2, "First Interview", 0).
			AddRow(1, "Resume Completed", 5))

	repo := NewStatsRepo(db)
	counts, err := repo.MilestoneCounts(context.Background())
	if err != nil {
		t.Fatalf("MilestoneCounts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("len = %d, want 2", len(counts))
	}
	if counts[0].Count != 0 || counts[1].Count != 5 {
		t.Errorf("counts = %+v, want 0 then 5", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCountsForInstance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*), COALESCE(SUM(attended), 0) FROM event_registrations`)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"registered", "attended"}).AddRow(10, 7))

	repo := NewStatsRepo(db)
	registered, attended, err := repo.CountsForInstance(context.Background(), 3)
	if err != nil {
		t.Fatalf("CountsForInstance: %v", err)
	}
	if registered != 10 || attended != 7 {
		t.Errorf("got %d/%d, want 10/7", registered, attended)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
