package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func strPtr(s string) *string { return &s }

func TestParticipantCreateEmailConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id FROM participants WHERE LOWER(email) = ? AND id <> ?`)).
		WithArgs("taken@example.org", uint64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectRollback()

	repo := NewParticipantRepo(db)
	p := &Participant{
		FirstName: "Ada",
		LastName:  "Lotz",
		Email:     strPtr("Taken@Example.org"), // normalized before the check
		Role:      "participant",
	}
	if err := repo.Create(context.Background(), p); !errors.Is(err, ErrConflict) {
		t.Errorf("Create error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestParticipantDeleteBlockedByDonations(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM donations WHERE participant_id = ?`)).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	repo := NewParticipantRepo(db)
	if err := repo.Delete(context.Background(), 4); !errors.Is(err, ErrBlocked) {
		t.Errorf("Delete error = %v, want ErrBlocked", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestParticipantDeleteCascadesThenRemoves(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM donations WHERE participant_id = ?`)).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM participant_milestones`)).
		WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE sr FROM survey_responses sr`)).
		WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE sc FROM survey_comments sc`)).
		WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM survey_submissions`)).
		WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM event_registrations`)).
		WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM participants`)).
		WithArgs(uint64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewParticipantRepo(db)
	if err := repo.Delete(context.Background(), 4); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindOrCreateByEmailReusesExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id FROM participants WHERE LOWER(email) = ?`)).
		WithArgs("donor@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectCommit()

	repo := NewParticipantRepo(db)
	id, err := repo.FindOrCreateByEmail(context.Background(), "Dana", "Reyes", "Donor@Example.org ")
	if err != nil {
		t.Fatalf("FindOrCreateByEmail: %v", err)
	}
	if id != 12 {
		t.Errorf("id = %d, want 12", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
