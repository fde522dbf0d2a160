package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestResponsesForEmptySetSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	repo := NewSurveyRepo(db)
	out, err := repo.ResponsesFor(context.Background(), nil)
	if err != nil {
		t.Fatalf("ResponsesFor: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestResponsesForBatchesOneQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT submission_id, question_number, score FROM survey_responses`).
		WithArgs(uint64(10), uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"submission_id", "question_number", "score"}).
			AddRow(10, 1, 5).
			AddRow(10, 2, 4).
			AddRow(10, 4, 5).
			AddRow(11, 1, 3))

	repo := NewSurveyRepo(db)
	out, err := repo.ResponsesFor(context.Background(), []uint64{10, 11})
	if err != nil {
		t.Fatalf("ResponsesFor: %v", err)
	}
	if len(out[10]) != 3 {
		t.Errorf("submission 10: %d responses, want 3", len(out[10]))
	}
	if len(out[11]) != 1 || out[11][0].Score != 3 {
		t.Errorf("submission 11 = %+v, want one score of 3", out[11])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSurveyCreateWritesAllChildrenInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO survey_submissions`)).
		WithArgs(uint64(4), uint64(9)).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO survey_responses`)).
		WithArgs(int64(77), uint8(QuestionSatisfaction), uint8(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO survey_responses`)).
		WithArgs(int64(77), uint8(QuestionUsefulness), uint8(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO survey_responses`)).
		WithArgs(int64(77), uint8(QuestionRecommend), uint8(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO survey_comments`)).
		WithArgs(int64(77), "Great workshop").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewSurveyRepo(db)
	id, err := repo.Create(context.Background(), 4, 9, map[uint8]uint8{
		QuestionSatisfaction: 5,
		QuestionUsefulness:   4,
		QuestionRecommend:    5,
	}, "  Great workshop  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 77 {
		t.Errorf("id = %d, want 77", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
