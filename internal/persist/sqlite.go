package persist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/janjanpower/text-alignment-tool/internal/document"
	"github.com/janjanpower/text-alignment-tool/internal/logging"
)

// SQLite is the persistence gateway over a local SQLite database.
// Entry upserts are keyed (project_id, "index") so an at-least-once
// flush is idempotent.
type SQLite struct {
	db  *sql.DB
	log *logging.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username VARCHAR(50) NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(100) NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	owner_id INTEGER NOT NULL REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS subtitles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	"index" INTEGER NOT NULL,
	start_time VARCHAR(50) NOT NULL,
	end_time VARCHAR(50) NOT NULL,
	text VARCHAR(1000) NOT NULL,
	word_text VARCHAR(1000),
	is_corrected BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	UNIQUE(project_id, "index")
);
CREATE TABLE IF NOT EXISTS corrections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	error_text VARCHAR(255) NOT NULL,
	correction_text VARCHAR(255) NOT NULL,
	created_at DATETIME NOT NULL,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE
);
`

func Open(path string, log *logging.Logger) (*SQLite, error) {
	if log == nil {
		log = logging.NewNop()
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, wrap("open", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, wrap("open", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, wrap("migrate", err)
	}
	return &SQLite{db: db, log: log}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// EnsureUser returns the id for the username, creating the row when
// missing.
func (s *SQLite) EnsureUser(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, wrap("ensure user", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, created_at) VALUES (?, ?)`,
		username, time.Now().UTC())
	if err != nil {
		return 0, wrap("ensure user", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, wrap("ensure user", err)
	}
	return id, nil
}

func (s *SQLite) CreateProject(ctx context.Context, name string, ownerID int64) (document.Project, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, created_at, updated_at, owner_id) VALUES (?, ?, ?, ?)`,
		name, now, now, ownerID)
	if err != nil {
		return document.Project{}, wrap("create project", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return document.Project{}, wrap("create project", err)
	}
	return document.Project{ID: id, Name: name, CreatedAt: now, UpdatedAt: now, OwnerID: ownerID}, nil
}

func (s *SQLite) GetProject(ctx context.Context, id int64) (document.Project, error) {
	var p document.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at, owner_id FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.OwnerID)
	if err != nil {
		return document.Project{}, wrap("get project", err)
	}
	return p, nil
}

func (s *SQLite) FindProject(ctx context.Context, name string, ownerID int64) (document.Project, bool, error) {
	var p document.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at, owner_id FROM projects WHERE name = ? AND owner_id = ?`,
		name, ownerID).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.OwnerID)
	if err == sql.ErrNoRows {
		return document.Project{}, false, nil
	}
	if err != nil {
		return document.Project{}, false, wrap("find project", err)
	}
	return p, true, nil
}

func (s *SQLite) ListProjects(ctx context.Context, ownerID int64) ([]document.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at, owner_id FROM projects WHERE owner_id = ? ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, wrap("list projects", err)
	}
	defer rows.Close()

	var projects []document.Project
	for rows.Next() {
		var p document.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.OwnerID); err != nil {
			return nil, wrap("list projects", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list projects", err)
	}
	return projects, nil
}

// DeleteProject removes the project; entries and rules cascade.
func (s *SQLite) DeleteProject(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return wrap("delete project", err)
}

func (s *SQLite) LoadEntries(ctx context.Context, projectID int64) ([]document.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, "index", start_time, end_time, text, word_text, is_corrected,
		       created_at, updated_at, project_id
		FROM subtitles WHERE project_id = ? ORDER BY "index"`, projectID)
	if err != nil {
		return nil, wrap("load entries", err)
	}
	defer rows.Close()

	var entries []document.Entry
	for rows.Next() {
		var e document.Entry
		var word sql.NullString
		if err := rows.Scan(&e.ID, &e.Index, &e.StartTime, &e.EndTime, &e.Text, &word,
			&e.IsCorrected, &e.CreatedAt, &e.UpdatedAt, &e.ProjectID); err != nil {
			return nil, wrap("load entries", err)
		}
		e.WordText = word.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("load entries", err)
	}
	return entries, nil
}

// SaveEntries upserts the changed entries and trims rows whose ordinal
// fell off the end of the document. docLen is the current document
// length; rows at "index" >= docLen are deleted.
func (s *SQLite) SaveEntries(ctx context.Context, projectID int64, entries []document.Entry, docLen int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("save entries", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO subtitles ("index", start_time, end_time, text, word_text, is_corrected,
		                       created_at, updated_at, project_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, "index") DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			text = excluded.text,
			word_text = excluded.word_text,
			is_corrected = excluded.is_corrected,
			updated_at = excluded.updated_at`)
	if err != nil {
		return wrap("save entries", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range entries {
		created := e.CreatedAt
		if created.IsZero() {
			created = now
		}
		updated := e.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		var word sql.NullString
		if e.WordText != "" {
			word = sql.NullString{String: e.WordText, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, e.Index, string(e.StartTime), string(e.EndTime),
			e.Text, word, e.IsCorrected, created, updated, projectID); err != nil {
			return wrap("save entries", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM subtitles WHERE project_id = ? AND "index" >= ?`, projectID, docLen); err != nil {
		return wrap("save entries", err)
	}

	if err := tx.Commit(); err != nil {
		return wrap("save entries", err)
	}
	s.log.Debugw("entries flushed", "project_id", projectID, "count", len(entries))
	return nil
}

func (s *SQLite) LoadRules(ctx context.Context, projectID int64) ([]document.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, error_text, correction_text, created_at, project_id
		FROM corrections WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, wrap("load rules", err)
	}
	defer rows.Close()

	var rules []document.Rule
	for rows.Next() {
		var r document.Rule
		if err := rows.Scan(&r.ID, &r.ErrorText, &r.CorrectionText, &r.CreatedAt, &r.ProjectID); err != nil {
			return nil, wrap("load rules", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("load rules", err)
	}
	return rules, nil
}

func (s *SQLite) AddRule(ctx context.Context, projectID int64, errorText, correctionText string) (document.Rule, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO corrections (error_text, correction_text, created_at, project_id) VALUES (?, ?, ?, ?)`,
		errorText, correctionText, now, projectID)
	if err != nil {
		return document.Rule{}, wrap("add rule", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return document.Rule{}, wrap("add rule", err)
	}
	return document.Rule{ID: id, ErrorText: errorText, CorrectionText: correctionText, CreatedAt: now, ProjectID: projectID}, nil
}

func (s *SQLite) DeleteRule(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM corrections WHERE id = ?`, id)
	if err != nil {
		return wrap("delete rule", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("delete rule", err)
	}
	if n == 0 {
		return wrap("delete rule", fmt.Errorf("rule %d not found", id))
	}
	return nil
}
