package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// EventTemplate is a reusable event definition. Concrete occurrences are
// EventInstance rows referencing it.
type EventTemplate struct {
	ID              uint64
	Name            string
	EventType       string
	Description     string
	DefaultCapacity uint32
}

// EventInstance is one concrete occurrence of a template. Template name and
// type are joined in on reads because every screen shows them.
type EventInstance struct {
	ID         uint64
	TemplateID uint64
	Name       string
	EventType  string
	StartsAt   time.Time
	EndsAt     time.Time
	Location   string
	Capacity   uint32
}

// ErrEventNotFound is returned when an event template or instance cannot
// be found.
var ErrEventNotFound = errors.New("event not found")

// EventRepo encapsulates database queries for event templates and their
// instances.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the provided DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// ListTemplates returns all event templates ordered by name.
func (r *EventRepo) ListTemplates(ctx context.Context) ([]*EventTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, event_type, COALESCE(description, ''), default_capacity
		 FROM event_templates ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EventTemplate
	for rows.Next() {
		t := new(EventTemplate)
		if err := rows.Scan(&t.ID, &t.Name, &t.EventType, &t.Description, &t.DefaultCapacity); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTemplate fetches a template by id.
func (r *EventRepo) GetTemplate(ctx context.Context, id uint64) (*EventTemplate, error) {
	var t EventTemplate
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, event_type, COALESCE(description, ''), default_capacity
		 FROM event_templates WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.EventType, &t.Description, &t.DefaultCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate inserts a new event template and populates its ID.
func (r *EventRepo) CreateTemplate(ctx context.Context, t *EventTemplate) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO event_templates (name, event_type, description, default_capacity)
		 VALUES (?, ?, ?, ?)`,
		t.Name, t.EventType, t.Description, t.DefaultCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// UpdateTemplate rewrites a template's fields.
func (r *EventRepo) UpdateTemplate(ctx context.Context, t *EventTemplate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE event_templates SET name = ?, event_type = ?, description = ?, default_capacity = ?
		 WHERE id = ?`,
		t.Name, t.EventType, t.Description, t.DefaultCapacity, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL also reports 0 when the row exists but nothing changed;
		// confirm absence before reporting not found.
		var exists uint64
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM event_templates WHERE id = ?`, t.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

const instanceCols = `i.id, i.template_id, t.name, t.event_type, i.starts_at, i.ends_at,
	COALESCE(i.location, ''), i.capacity`

// SearchInstances returns event instances whose template name, type or
// location contains the term, case-insensitively, ordered by start time.
// An empty term returns the full listing.
func (r *EventRepo) SearchInstances(ctx context.Context, term string) ([]*EventInstance, error) {
	q := `SELECT ` + instanceCols + `
		FROM event_instances i
		JOIN event_templates t ON t.id = i.template_id`
	var args []any
	if cond, like := searchClause(term, "t.name", "t.event_type", "i.location"); cond != "" {
		q += " WHERE " + cond
		args = append(args, like, like, like)
	}
	q += " ORDER BY i.starts_at, i.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EventInstance
	for rows.Next() {
		e := new(EventInstance)
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.Name, &e.EventType,
			&e.StartsAt, &e.EndsAt, &e.Location, &e.Capacity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListUpcomingInstances returns instances that have not ended yet, for the
// public events page.
func (r *EventRepo) ListUpcomingInstances(ctx context.Context) ([]*EventInstance, error) {
	q := `SELECT ` + instanceCols + `
		FROM event_instances i
		JOIN event_templates t ON t.id = i.template_id
		WHERE i.ends_at >= NOW()
		ORDER BY i.starts_at, i.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EventInstance
	for rows.Next() {
		e := new(EventInstance)
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.Name, &e.EventType,
			&e.StartsAt, &e.EndsAt, &e.Location, &e.Capacity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetInstance fetches an instance with its template fields joined in.
func (r *EventRepo) GetInstance(ctx context.Context, id uint64) (*EventInstance, error) {
	q := `SELECT ` + instanceCols + `
		FROM event_instances i
		JOIN event_templates t ON t.id = i.template_id
		WHERE i.id = ?`
	e := new(EventInstance)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.TemplateID, &e.Name, &e.EventType,
		&e.StartsAt, &e.EndsAt, &e.Location, &e.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateInstance inserts a new occurrence of a template. When capacity is
// zero it defaults from the template, read inside the same transaction so
// a concurrent template edit cannot slip between the read and the insert.
func (r *EventRepo) CreateInstance(ctx context.Context, e *EventInstance) (err error) {
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

	if e.Capacity == 0 {
		if err = tx.QueryRowContext(ctx,
			`SELECT default_capacity FROM event_templates WHERE id = ?`,
			e.TemplateID).Scan(&e.Capacity); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = ErrEventNotFound
			}
			return err
		}
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO event_instances (template_id, starts_at, ends_at, location, capacity)
		 VALUES (?, ?, ?, ?, ?)`,
		e.TemplateID, e.StartsAt, e.EndsAt, e.Location, e.Capacity)
	if err != nil {
		return err
	}
	var id int64
	if id, err = res.LastInsertId(); err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// UpdateInstance rewrites an instance's schedule, location and capacity.
func (r *EventRepo) UpdateInstance(ctx context.Context, e *EventInstance) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE event_instances SET starts_at = ?, ends_at = ?, location = ?, capacity = ?
		 WHERE id = ?`,
		e.StartsAt, e.EndsAt, e.Location, e.Capacity, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// A no-op save of the edit form also affects 0 rows; only a
		// genuinely missing instance is not found.
		var exists uint64
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM event_instances WHERE id = ?`, e.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

// DeleteInstance removes an occurrence together with its registrations and
// survey data. When it was the template's last remaining instance the
// template is removed too, all inside one transaction.
func (r *EventRepo) DeleteInstance(ctx context.Context, id uint64) (err error) {
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

	var templateID uint64
	if err = tx.QueryRowContext(ctx,
		`SELECT template_id FROM event_instances WHERE id = ?`, id).Scan(&templateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrEventNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE sr FROM survey_responses sr
		 JOIN survey_submissions ss ON ss.id = sr.submission_id
		 WHERE ss.event_instance_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE sc FROM survey_comments sc
		 JOIN survey_submissions ss ON ss.id = sc.submission_id
		 WHERE ss.event_instance_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM survey_submissions WHERE event_instance_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM event_registrations WHERE event_instance_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM event_instances WHERE id = ?`, id); err != nil {
		return err
	}
	var remaining int64
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_instances WHERE template_id = ?`,
		templateID).Scan(&remaining); err != nil {
		return err
	}
	if remaining == 0 {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM event_templates WHERE id = ?`, templateID); err != nil {
			return err
		}
	}
	return nil
}
