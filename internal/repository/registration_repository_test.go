package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRegistrationSetAttendedNoChangeIsNotMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// Re-marking attendance to its current value affects 0 rows; the row
	// still exists, so the toggle must not report not found.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE event_registrations`)).
		WithArgs(true, uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM event_registrations WHERE id = ?`)).
		WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	repo := NewRegistrationRepo(db)
	if err := repo.SetAttended(context.Background(), 12, true); err != nil {
		t.Errorf("SetAttended: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRegistrationSetAttendedMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE event_registrations`)).
		WithArgs(false, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM event_registrations WHERE id = ?`)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewRegistrationRepo(db)
	if err := repo.SetAttended(context.Background(), 99, false); !errors.Is(err, ErrRegistrationNotFound) {
		t.Errorf("SetAttended error = %v, want ErrRegistrationNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
