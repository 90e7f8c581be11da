package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formportal/pkg/applications"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertApplication(ctx context.Context, app applications.Application) error {
	if app.ID == "" {
		return fmt.Errorf("repo: missing application id")
	}
	answers, err := json.Marshal(app.Answers)
	if err != nil {
		return fmt.Errorf("repo: encode answers: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO applications(id,form_id,title,answers,submitted_at) VALUES (?,?,?,?,?)`,
		app.ID, app.FormID, app.Title, string(answers), app.SubmittedAt)
	if err != nil {
		return fmt.Errorf("repo: insert application: %w", err)
	}
	return nil
}

func (r Repo) GetApplication(ctx context.Context, id string) (applications.Application, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id,form_id,title,answers,submitted_at FROM applications WHERE id=?`, id)
	return scanApplication(row.Scan)
}

func (r Repo) ListApplications(ctx context.Context) ([]applications.Application, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,form_id,title,answers,submitted_at FROM applications ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repo: list applications: %w", err)
	}
	defer rows.Close()

	var res []applications.Application
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, app)
	}
	return res, rows.Err()
}

func scanApplication(scan func(dest ...any) error) (applications.Application, error) {
	var app applications.Application
	var answers string
	err := scan(&app.ID, &app.FormID, &app.Title, &answers, &app.SubmittedAt)
	if err == sql.ErrNoRows {
		return app, ErrNotFound
	}
	if err != nil {
		return app, fmt.Errorf("repo: scan application: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &app.Answers); err != nil {
		return app, fmt.Errorf("repo: decode answers: %w", err)
	}
	return app, nil
}
