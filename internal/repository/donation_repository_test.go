package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDonationCreateAllocatesNextNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COALESCE(MAX(donation_number), 0) FROM donations`)).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO donations`)).
		WithArgs(uint64(5), uint64(4), 25.0, "2026-08-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewDonationRepo(db)
	d := &Donation{
		ParticipantID: 5,
		Amount:        25.0,
		DonatedOn:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DonationNumber != 4 {
		t.Errorf("DonationNumber = %d, want 4", d.DonationNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDonationCreateFirstInScope(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COALESCE(MAX(donation_number), 0) FROM donations`)).
		WithArgs(AnonymousParticipantID).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO donations`)).
		WithArgs(AnonymousParticipantID, uint64(1), 10.0, "2026-08-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewDonationRepo(db)
	d := &Donation{
		ParticipantID: AnonymousParticipantID,
		Amount:        10.0,
		DonatedOn:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DonationNumber != 1 {
		t.Errorf("DonationNumber = %d, want 1", d.DonationNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDonationCreateReportsCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	commitErr := errors.New("commit failed")
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COALESCE(MAX(donation_number), 0) FROM donations`)).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO donations`)).
		WithArgs(uint64(5), uint64(4), 25.0, "2026-08-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(commitErr)

	repo := NewDonationRepo(db)
	d := &Donation{
		ParticipantID: 5,
		Amount:        25.0,
		DonatedOn:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(context.Background(), d); !errors.Is(err, commitErr) {
		t.Errorf("Create error = %v, want commit failure", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDonationMoveReKeysUnderNewScope(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	donatedOn := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM donations`)).
		WithArgs(uint64(5), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM donations`)).
		WithArgs(uint64(5), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COALESCE(MAX(donation_number), 0) FROM donations`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(6))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO donations`)).
		WithArgs(uint64(9), uint64(7), 75.0, "2026-07-15").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewDonationRepo(db)
	newNumber, err := repo.Move(context.Background(), 5, 2, 9, 75.0, donatedOn)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if newNumber != 7 {
		t.Errorf("new number = %d, want 7", newNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDonationMoveMissingRowRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM donations`)).
		WithArgs(uint64(5), uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	repo := NewDonationRepo(db)
	donatedOn := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	if _, err := repo.Move(context.Background(), 5, 99, 9, 20.0, donatedOn); !errors.Is(err, ErrDonationNotFound) {
		t.Errorf("Move error = %v, want ErrDonationNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDonationDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM donations`)).
		WithArgs(uint64(5), uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewDonationRepo(db)
	if err := repo.Delete(context.Background(), 5, 99); !errors.Is(err, ErrDonationNotFound) {
		t.Errorf("Delete error = %v, want ErrDonationNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
