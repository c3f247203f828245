package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"taskpilot/internal/model"
)

// Persisted column names are snake_case; the mapping to the camelCase
// in-pipeline attributes happens here and only here.
const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	text        TEXT NOT NULL,
	folder      TEXT NOT NULL,
	due_date    TEXT,
	due_time    TEXT,
	priority    TEXT NOT NULL DEFAULT 'medium',
	completed   INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS folders (
	user_id  TEXT NOT NULL,
	name     TEXT NOT NULL,
	PRIMARY KEY (user_id, name)
);

CREATE TABLE IF NOT EXISTS settings (
	user_id               TEXT PRIMARY KEY,
	default_timing        TEXT NOT NULL,
	notifications_enabled INTEGER NOT NULL
);
`

// SQLite is the embedded persistent backend.
type SQLite struct {
	db   *sql.DB
	base model.Settings
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is single-writer; serialize access.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db, base: model.DefaultSettings()}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// SetBaseSettings changes the settings a user starts with before ever
// saving their own.
func (s *SQLite) SetBaseSettings(set model.Settings) {
	s.base = set
}

// ForUser binds a user id, seeding the default folders on first use.
func (s *SQLite) ForUser(userID string) Store {
	return &sqliteUser{db: s.db, user: userID, base: s.base}
}

type sqliteUser struct {
	db   *sql.DB
	user string
	base model.Settings
}

func (s *sqliteUser) seedFolders(ctx context.Context) error {
	for _, f := range model.DefaultFolders() {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO folders (user_id, name) VALUES (?, ?)`, s.user, f.Name); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteUser) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	now := time.Now()
	t.ID = model.TaskID("task_" + uuid.NewString())
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, text, folder, due_date, due_time, priority, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, s.user, t.Text, t.Folder, t.DueDate, t.DueTime, t.Priority,
		boolInt(t.Completed), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *sqliteUser) GetTask(ctx context.Context, id model.TaskID) (model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, text, folder, due_date, due_time, priority, completed, created_at, updated_at
		 FROM tasks WHERE id = ? AND user_id = ?`, id, s.user)
	return scanTask(row)
}

func (s *sqliteUser) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, folder, due_date, due_time, priority, completed, created_at, updated_at
		 FROM tasks WHERE user_id = ? ORDER BY created_at DESC`, s.user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqliteUser) UpdateTask(ctx context.Context, id model.TaskID, changes model.TaskChanges) (model.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}

	applyChanges(&t, changes)
	t.UpdatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET text = ?, folder = ?, due_date = ?, due_time = ?, priority = ?, completed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Text, t.Folder, t.DueDate, t.DueTime, t.Priority, boolInt(t.Completed),
		t.UpdatedAt.Format(time.RFC3339Nano), id, s.user)
	if err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (s *sqliteUser) DeleteTask(ctx context.Context, id model.TaskID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, s.user)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *sqliteUser) ListFolders(ctx context.Context) ([]model.Folder, error) {
	if err := s.seedFolders(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM folders WHERE user_id = ? ORDER BY name`, s.user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Folder
	for rows.Next() {
		var f model.Folder
		if err := rows.Scan(&f.Name); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *sqliteUser) CreateFolder(ctx context.Context, name string) (model.Folder, error) {
	if err := s.seedFolders(ctx); err != nil {
		return model.Folder{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO folders (user_id, name) VALUES (?, ?)`, s.user, name)
	if err != nil {
		return model.Folder{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Folder{}, ErrDuplicateFolder
	}
	return model.Folder{Name: name}, nil
}

func (s *sqliteUser) DeleteFolder(ctx context.Context, name string) error {
	if err := s.seedFolders(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM folders WHERE user_id = ? AND name = ?`, s.user, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFolderNotFound
	}
	return nil
}

func (s *sqliteUser) ReassignFolder(ctx context.Context, from, to string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET folder = ?, updated_at = ? WHERE user_id = ? AND folder = ?`,
		to, time.Now().Format(time.RFC3339Nano), s.user, from)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqliteUser) Settings(ctx context.Context) (model.Settings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT default_timing, notifications_enabled FROM settings WHERE user_id = ?`, s.user)

	var set model.Settings
	var enabled int
	err := row.Scan(&set.DefaultTiming, &enabled)
	if err == sql.ErrNoRows {
		return s.base, nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	set.NotificationsEnabled = enabled != 0
	return set, nil
}

func (s *sqliteUser) SaveSettings(ctx context.Context, set model.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (user_id, default_timing, notifications_enabled) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET default_timing = excluded.default_timing,
		 notifications_enabled = excluded.notifications_enabled`,
		s.user, set.DefaultTiming, boolInt(set.NotificationsEnabled))
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var t model.Task
	var completed int
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Text, &t.Folder, &t.DueDate, &t.DueTime, &t.Priority, &completed, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, err
	}

	t.Completed = completed != 0
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
