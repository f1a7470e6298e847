package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trendle/internal/domain"
	"trendle/internal/events"
	"trendle/internal/gateway"
	"trendle/internal/store"
)

const systemPrompt = `You are a friendly brand discovery assistant helping a creator define their video marketing profile. Ask natural follow-up questions to learn about their target customer, product, audience, platform, and the vibes they want their videos to have. Keep replies short and conversational. Never output JSON or lists of fields.`

// Summary attempt outcomes reported per turn. Turns that never reach
// the aggregate gate carry no status at all.
const (
	SummaryComplete   = "complete"
	SummaryIncomplete = "incomplete"
)

// TurnResult is what one message exchange produces.
type TurnResult struct {
	SessionID        string                 `json:"session_id"`
	Message          string                 `json:"message"`
	ProfileData      map[string]string      `json:"profile_data"`
	ConfidenceScores map[string]float64     `json:"confidence_scores"`
	SummaryStatus    string                 `json:"summary_status,omitempty"`
	MissingFields    []string               `json:"missing_fields,omitempty"`
	Summary          *domain.ProfileSummary `json:"profile_summary,omitempty"`
}

// Agent owns profile sessions. Turns on the same session are serialized
// in-process and every persist is version-checked, so a lost update
// surfaces as store.ErrConflict instead of silently dropping fields.
type Agent struct {
	DB        *sql.DB
	Store     store.Store
	Events    events.Writer
	Gateway   gateway.Client
	Threshold float64
	Now       func() time.Time

	locks *store.KeyedMutex
}

func NewAgent(db *sql.DB, st store.Store, ev events.Writer, gw gateway.Client, threshold float64, now func() time.Time) *Agent {
	if now == nil {
		now = time.Now
	}
	if threshold == 0 {
		threshold = 60
	}
	return &Agent{
		DB:        db,
		Store:     st,
		Events:    ev,
		Gateway:   gw,
		Threshold: threshold,
		Now:       now,
		locks:     store.NewKeyedMutex(),
	}
}

func (a *Agent) timestamp() string {
	return a.Now().UTC().Format(time.RFC3339)
}

// NewSession creates an empty session.
func (a *Agent) NewSession(ctx context.Context, userID string) (domain.ProfileSession, error) {
	sess := a.blankSession(uuid.NewString(), userID)
	if err := a.Store.CreateSession(ctx, sess); err != nil {
		return domain.ProfileSession{}, err
	}
	sess.Version = 1
	return sess, nil
}

func (a *Agent) blankSession(id, userID string) domain.ProfileSession {
	ts := a.timestamp()
	return domain.ProfileSession{
		SessionID:        id,
		UserID:           userID,
		ProfileData:      map[string]string{},
		ConfidenceScores: Scores(nil),
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
}

// GetSession loads a session by id.
func (a *Agent) GetSession(ctx context.Context, id string) (domain.ProfileSession, error) {
	return a.Store.GetSession(ctx, id)
}

// ProcessMessage runs one turn: reply via the model, extract fields
// from the user's message, rescore, and attempt the summary once the
// aggregate clears the threshold. A message to an unknown session id
// starts a fresh session under that id.
func (a *Agent) ProcessMessage(ctx context.Context, sessionID, userText string) (TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return TurnResult{}, fmt.Errorf("message must not be empty")
	}
	unlock := a.locks.Lock(sessionID)
	defer unlock()

	sess, err := a.Store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		sess = a.blankSession(sessionID, "")
		if err := a.Store.CreateSession(ctx, sess); err != nil {
			return TurnResult{}, err
		}
		sess.Version = 1
	} else if err != nil {
		return TurnResult{}, err
	}
	if sess.ProfileData == nil {
		sess.ProfileData = map[string]string{}
	}

	ts := a.timestamp()
	sess.Conversation = append(sess.Conversation, domain.ConversationEntry{Role: "user", Content: userText, TS: ts})

	prompt := systemPrompt + "\n\n" + ContextBlock(sess)
	reply, err := a.Gateway.Chat(ctx, prompt, sessionID, userText)
	if err != nil {
		// Keep the user's message; the reply can be retried.
		sess.UpdatedAt = ts
		if perr := a.Store.PutSession(ctx, sess); perr != nil {
			return TurnResult{}, perr
		}
		return TurnResult{}, fmt.Errorf("profile reply: %w", err)
	}

	// Last write wins per field.
	for field, value := range Extract(userText) {
		sess.ProfileData[field] = value
	}
	sess.ConfidenceScores = Scores(sess.ProfileData)

	res := TurnResult{
		SessionID: sessionID,
		Message:   reply,
	}
	if sess.ConfidenceScores["overall"] >= a.Threshold {
		summary, missing := Summarize(sess, a.Threshold, a.timestamp())
		if summary != nil {
			sess.Summary = summary
			sess.SummaryGenerated = true
			res.SummaryStatus = SummaryComplete
			res.Summary = summary
		} else {
			res.SummaryStatus = SummaryIncomplete
			res.MissingFields = missing
		}
	}

	sess.Conversation = append(sess.Conversation, domain.ConversationEntry{Role: "assistant", Content: reply, TS: a.timestamp()})
	sess.UpdatedAt = a.timestamp()
	if err := a.Store.PutSession(ctx, sess); err != nil {
		return TurnResult{}, err
	}
	a.recordTurn(ctx, sess, res.SummaryStatus)

	res.ProfileData = sess.ProfileData
	res.ConfidenceScores = sess.ConfidenceScores
	return res, nil
}

func (a *Agent) recordTurn(ctx context.Context, sess domain.ProfileSession, status string) {
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	payload := events.Payload{"overall": sess.ConfidenceScores["overall"]}
	if status != "" {
		payload["summary_status"] = status
	}
	if err := a.Events.ProfileSession(ctx, tx, "profile.turn", sess.SessionID, payload); err != nil {
		tx.Rollback()
		return
	}
	tx.Commit()
}
