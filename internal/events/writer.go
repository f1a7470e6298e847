// Package events keeps the append-only audit trail behind the video
// workflow: one row per project mutation or discovery-session turn.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Entity kinds recorded in the trail.
const (
	KindProject        = "project"
	KindProfileSession = "profile_session"
)

// actorSystem marks rows written by the workflow itself rather than an
// authenticated caller.
const actorSystem = "system"

// Payload is the free-form JSON detail attached to an event row.
type Payload map[string]any

// Writer appends event rows inside a caller-owned transaction, so the
// row commits or rolls back together with the mutation it describes.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Project records a project lifecycle event (create, advance, segment
// upload). The project id doubles as the entity id.
func (w Writer) Project(ctx context.Context, tx *sql.Tx, evtType, projectID string, payload Payload) error {
	return w.append(ctx, tx, evtType, projectID, KindProject, projectID, payload)
}

// ProfileSession records a discovery-session turn. Session events carry
// no project id.
func (w Writer) ProfileSession(ctx context.Context, tx *sql.Tx, evtType, sessionID string, payload Payload) error {
	return w.append(ctx, tx, evtType, "", KindProfileSession, sessionID, payload)
}

func (w Writer) append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID string, payload Payload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339), evtType, nullable(projectID), entityKind, nullable(entityID), actorSystem, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
