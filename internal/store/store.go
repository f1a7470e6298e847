package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trendle/internal/domain"
)

// Store persists workflow aggregates as JSON documents. Projects and
// profile sessions carry a version column; every put is a full-document
// overwrite guarded by a compare-and-swap on that version.
type Store struct {
	DB *sql.DB
}

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the document changed since it was loaded.
	ErrConflict = errors.New("version conflict")
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s Store) CreateProject(ctx context.Context, p domain.Project) error {
	p.Version = 1
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO projects(project_id,doc_json,version,created_at,updated_at) VALUES (?,?,?,?,?)`,
		p.ProjectID, string(doc), p.Version, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s Store) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var doc string
	var version int64
	err := s.DB.QueryRowContext(ctx, `SELECT doc_json,version FROM projects WHERE project_id=?`, id).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return domain.Project{}, ErrNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}
	var p domain.Project
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return domain.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.Version = version
	return p, nil
}

// PutProject overwrites the stored document. The write succeeds only when
// the row still holds the version the project was loaded with; the stored
// version is then incremented.
func (s Store) PutProject(ctx context.Context, p domain.Project) error {
	return s.putProject(ctx, s.DB, p)
}

func (s Store) PutProjectTx(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	return s.putProject(ctx, tx, p)
}

func (s Store) putProject(ctx context.Context, q execer, p domain.Project) error {
	expected := p.Version
	p.Version = expected + 1
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	res, err := q.ExecContext(ctx, `UPDATE projects SET doc_json=?, version=version+1, updated_at=? WHERE project_id=? AND version=?`,
		string(doc), p.UpdatedAt, p.ProjectID, expected)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Either the row is gone or someone else persisted first.
		var v int64
		err := s.DB.QueryRowContext(ctx, `SELECT version FROM projects WHERE project_id=?`, p.ProjectID).Scan(&v)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func (s Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT doc_json,version FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		var doc string
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}
		var p domain.Project
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, err
		}
		p.Version = version
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM projects WHERE project_id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendSegment records an upload row. The project document's own
// uploaded_segments list stays the source of truth; these rows are the
// audit trail.
func (s Store) AppendSegmentTx(ctx context.Context, tx *sql.Tx, projectID string, seg domain.SegmentUpload) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO segments(project_id,segment_name,file_path,filename,uploaded_at) VALUES (?,?,?,?,?)`,
		projectID, seg.SegmentName, seg.FilePath, seg.Filename, seg.UploadedAt)
	return err
}

func (s Store) ListSegments(ctx context.Context, projectID string) ([]domain.SegmentUpload, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT segment_name,file_path,COALESCE(filename,''),uploaded_at FROM segments WHERE project_id=? ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SegmentUpload
	for rows.Next() {
		var seg domain.SegmentUpload
		if err := rows.Scan(&seg.SegmentName, &seg.FilePath, &seg.Filename, &seg.UploadedAt); err != nil {
			return nil, err
		}
		res = append(res, seg)
	}
	return res, rows.Err()
}

func (s Store) CreateSession(ctx context.Context, sess domain.ProfileSession) error {
	sess.Version = 1
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO profile_sessions(session_id,doc_json,version,created_at,updated_at) VALUES (?,?,?,?,?)`,
		sess.SessionID, string(doc), sess.Version, sess.CreatedAt, sess.UpdatedAt)
	return err
}

func (s Store) GetSession(ctx context.Context, id string) (domain.ProfileSession, error) {
	var doc string
	var version int64
	err := s.DB.QueryRowContext(ctx, `SELECT doc_json,version FROM profile_sessions WHERE session_id=?`, id).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return domain.ProfileSession{}, ErrNotFound
	}
	if err != nil {
		return domain.ProfileSession{}, err
	}
	var sess domain.ProfileSession
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return domain.ProfileSession{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess.Version = version
	return sess, nil
}

func (s Store) PutSession(ctx context.Context, sess domain.ProfileSession) error {
	expected := sess.Version
	sess.Version = expected + 1
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE profile_sessions SET doc_json=?, version=version+1, updated_at=? WHERE session_id=? AND version=?`,
		string(doc), sess.UpdatedAt, sess.SessionID, expected)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		var v int64
		err := s.DB.QueryRowContext(ctx, `SELECT version FROM profile_sessions WHERE session_id=?`, sess.SessionID).Scan(&v)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// SeedFormats upserts the catalog entries. Formats are read-only after
// seeding, so an upsert makes re-running init harmless.
func (s Store) SeedFormats(ctx context.Context, formats []domain.Format, now time.Time) error {
	ts := now.UTC().Format(time.RFC3339)
	for _, f := range formats {
		if f.CreatedAt == "" {
			f.CreatedAt = ts
		}
		f.UpdatedAt = ts
		doc, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("marshal format %s: %w", f.FormatID, err)
		}
		_, err = s.DB.ExecContext(ctx, `INSERT INTO formats(format_id,doc_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(format_id) DO UPDATE SET doc_json=excluded.doc_json, updated_at=excluded.updated_at`,
			f.FormatID, string(doc), f.CreatedAt, f.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s Store) GetFormat(ctx context.Context, id string) (domain.Format, error) {
	var doc string
	err := s.DB.QueryRowContext(ctx, `SELECT doc_json FROM formats WHERE format_id=?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return domain.Format{}, ErrNotFound
	}
	if err != nil {
		return domain.Format{}, err
	}
	var f domain.Format
	if err := json.Unmarshal([]byte(doc), &f); err != nil {
		return domain.Format{}, fmt.Errorf("decode format %s: %w", id, err)
	}
	return f, nil
}

// ListFormats returns catalog entries in seed (insertion) order. Tie
// breaking in the matcher depends on this ordering being stable.
func (s Store) ListFormats(ctx context.Context) ([]domain.Format, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT doc_json FROM formats ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Format
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var f domain.Format
		if err := json.Unmarshal([]byte(doc), &f); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

func (s Store) InsertSuggestion(ctx context.Context, sg domain.Suggestion) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO suggestions(id,video_id,type,title,description,confidence,status,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		sg.ID, sg.VideoID, sg.Type, sg.Title, nullable(sg.Description), sg.Confidence, sg.Status, sg.CreatedAt)
	return err
}

func (s Store) GetSuggestion(ctx context.Context, id string) (domain.Suggestion, error) {
	var sg domain.Suggestion
	var desc sql.NullString
	err := s.DB.QueryRowContext(ctx, `SELECT id,video_id,type,title,description,confidence,status,created_at FROM suggestions WHERE id=?`, id).
		Scan(&sg.ID, &sg.VideoID, &sg.Type, &sg.Title, &desc, &sg.Confidence, &sg.Status, &sg.CreatedAt)
	if err == sql.ErrNoRows {
		return sg, ErrNotFound
	}
	if desc.Valid {
		sg.Description = desc.String
	}
	return sg, err
}

func (s Store) ListSuggestions(ctx context.Context, videoID string) ([]domain.Suggestion, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id,video_id,type,title,description,confidence,status,created_at FROM suggestions WHERE video_id=? ORDER BY created_at DESC, id DESC`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Suggestion
	for rows.Next() {
		var sg domain.Suggestion
		var desc sql.NullString
		if err := rows.Scan(&sg.ID, &sg.VideoID, &sg.Type, &sg.Title, &desc, &sg.Confidence, &sg.Status, &sg.CreatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			sg.Description = desc.String
		}
		res = append(res, sg)
	}
	return res, rows.Err()
}

func (s Store) UpdateSuggestionStatus(ctx context.Context, id, status string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE suggestions SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestEvents returns recent events, newest first.
func (s Store) LatestEvents(ctx context.Context, limit int, projectID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,ts,type,COALESCE(project_id,''),entity_kind,COALESCE(entity_id,''),actor_id,COALESCE(payload_json,'') FROM events`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id=?`
		args = append(args, projectID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.ProjectID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
