package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEventUpdateInstanceNoChangeIsNotMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// Saving the edit form without changing anything affects 0 rows; the
	// row still exists, so the update must not report not found.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE event_instances`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM event_instances WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	repo := NewEventRepo(db)
	e := &EventInstance{
		ID:       7,
		StartsAt: time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC),
		Location: "Community Hall",
		Capacity: 40,
	}
	if err := repo.UpdateInstance(context.Background(), e); err != nil {
		t.Errorf("UpdateInstance: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEventUpdateInstanceMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE event_instances`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM event_instances WHERE id = ?`)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewEventRepo(db)
	e := &EventInstance{ID: 99}
	if err := repo.UpdateInstance(context.Background(), e); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("UpdateInstance error = %v, want ErrEventNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEventUpdateTemplateNoChangeIsNotMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE event_templates`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM event_templates WHERE id = ?`)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	repo := NewEventRepo(db)
	tpl := &EventTemplate{ID: 3, Name: "STEM Workshop", EventType: "workshop", DefaultCapacity: 25}
	if err := repo.UpdateTemplate(context.Background(), tpl); err != nil {
		t.Errorf("UpdateTemplate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
