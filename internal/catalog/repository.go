package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	UpsertVideo(ctx context.Context, video *Video) error
	GetVideo(ctx context.Context, id int64) (*Video, error)
	GetVideoByPath(ctx context.Context, path string) (*Video, error)
	ListVideos(ctx context.Context) ([]*Video, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id int64) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id int64, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id int64, progress int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) UpsertVideo(ctx context.Context, v *Video) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO videos (path, filename, size, mtime, fingerprint, duration, save_file)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			fingerprint = excluded.fingerprint,
			duration = excluded.duration,
			save_file = excluded.save_file,
			updated_at = datetime('now')
		RETURNING id
	`, v.Path, v.Filename, v.Size, v.Mtime.UTC().Format(time.RFC3339), nullString(v.Fingerprint),
		v.Duration, nullString(v.SaveFile)).Scan(&v.ID)
	return err
}

const videoColumns = `id, path, filename, size, mtime, fingerprint, duration, save_file, created_at, updated_at`

func (r *SQLiteRepository) GetVideo(ctx context.Context, id int64) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

func (r *SQLiteRepository) GetVideoByPath(ctx context.Context, path string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE path = ?`, path)
	return scanVideo(row)
}

func scanVideo(row *sql.Row) (*Video, error) {
	var v Video
	var mtime, createdAt, updatedAt sql.NullString
	var fingerprint, saveFile sql.NullString

	err := row.Scan(&v.ID, &v.Path, &v.Filename, &v.Size, &mtime, &fingerprint, &v.Duration, &saveFile, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v.Fingerprint = fingerprint.String
	v.SaveFile = saveFile.String
	v.Mtime, _ = time.Parse(time.RFC3339, mtime.String)
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
	v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt.String)
	return &v, nil
}

func (r *SQLiteRepository) ListVideos(ctx context.Context) ([]*Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		var v Video
		var mtime, createdAt, updatedAt sql.NullString
		var fingerprint, saveFile sql.NullString
		if err := rows.Scan(&v.ID, &v.Path, &v.Filename, &v.Size, &mtime, &fingerprint, &v.Duration, &saveFile, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		v.Fingerprint = fingerprint.String
		v.SaveFile = saveFile.String
		v.Mtime, _ = time.Parse(time.RFC3339, mtime.String)
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt.String)
		v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt.String)
		videos = append(videos, &v)
	}
	return videos, rows.Err()
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO jobs (type, status, video_id, payload, progress, error)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`, j.Type, j.Status, j.VideoID, nullString(j.Payload), j.Progress, nullString(j.Error)).
		Scan(&j.ID, &timeScanner{&j.CreatedAt}, &timeScanner{&j.UpdatedAt})
}

const jobColumns = `id, type, status, video_id, payload, progress, error, created_at, updated_at`

func (r *SQLiteRepository) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	var j Job
	var payload, errMsg sql.NullString
	err := row.Scan(&j.ID, &j.Type, &j.Status, &j.VideoID, &payload, &j.Progress, &errMsg,
		&timeScanner{&j.CreatedAt}, &timeScanner{&j.UpdatedAt})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.Payload = payload.String
	j.Error = errMsg.String
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var payload, errMsg sql.NullString
		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &j.VideoID, &payload, &j.Progress, &errMsg,
			&timeScanner{&j.CreatedAt}, &timeScanner{&j.UpdatedAt}); err != nil {
			return nil, err
		}
		j.Payload = payload.String
		j.Error = errMsg.String
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id int64, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id int64, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeScanner parses sqlite datetime('now') strings into time.Time on scan.
type timeScanner struct {
	t *time.Time
}

func (ts *timeScanner) Scan(src any) error {
	s, ok := src.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t
			return nil
		}
	}
	return nil
}
