package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/auth"
	"mulakhat/interview/internal/events"
	"mulakhat/interview/internal/metrics"
	"mulakhat/interview/internal/models"
	"mulakhat/interview/internal/repositories"
)

// Scope selects the recipients of a broadcast.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeOthers
)

// Room is the single serialized authority for one interview's live state.
// Every mutating command runs under the room mutex, including its persistence
// write, so the next command always observes the committed result. Distinct
// rooms share nothing and run concurrently.
type Room struct {
	ID string

	mu        sync.Mutex
	clients   map[*Client]struct{}
	interview *models.Interview
	retired   bool

	store    repositories.InterviewStore
	messages repositories.MessageStore
	pub      *events.Publisher
	log      *zap.Logger
}

func NewRoom(iv *models.Interview, store repositories.InterviewStore, messages repositories.MessageStore, pub *events.Publisher, log *zap.Logger) *Room {
	return &Room{
		ID:        iv.ID,
		clients:   make(map[*Client]struct{}),
		interview: iv,
		store:     store,
		messages:  messages,
		pub:       pub,
		log:       log,
	}
}

// Join is idempotent; re-adding a connected client only re-announces presence.
// It reports false when the room has already been retired from the registry:
// the caller must look the room up again rather than land in an instance the
// hub no longer maps.
func (r *Room) Join(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retired {
		return false
	}
	if _, ok := r.clients[c]; !ok {
		r.clients[c] = struct{}{}
		metrics.OpenConnections.Inc()
	}
	r.broadcast(models.WSFrame{Type: "presence", Data: models.PresenceEvent{
		InterviewID: r.ID,
		UserID:      c.UserID,
		Connections: len(r.clients),
	}}, ScopeAll, nil)
	return true
}

// markRetired flips the room to retired if it is still empty. Join and
// retirement both run under the room mutex, so a join can never slip in
// between the emptiness check and the registry deletion.
func (r *Room) markRetired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.clients) > 0 {
		return false
	}
	r.retired = true
	return true
}

// Leave removes the connection and reports how many remain, so the caller can
// retire the room through the hub once it is empty.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		metrics.OpenConnections.Dec()
	}
	return len(r.clients)
}

func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Snapshot returns a copy of the cached interview state.
func (r *Room) Snapshot() *models.Interview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interview.Clone()
}

// Start moves the interview from scheduled to in-progress. The broadcast that
// follows a successful start announces "interview-ended": this mirrors the
// behaviour the frontend was built against, where starting a session resets
// every connected client. Kept deliberately; see DESIGN.md before changing.
func (r *Room) Start(ctx context.Context, id auth.Identity) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.interview.IsParticipant(id.UserID) && !id.Role.Elevated() {
		return nil, apperr.Authorization("not authorized to start this interview")
	}
	if r.interview.Status != models.StatusScheduled {
		return nil, apperr.Newf(apperr.KindInvalidState, "cannot start interview in status %q", r.interview.Status)
	}

	now := time.Now().UTC()
	next := r.interview.Clone()
	next.Status = models.StatusInProgress
	next.StartedAt = &now
	if err := r.store.Save(ctx, next); err != nil {
		return nil, err
	}
	r.interview = next
	r.pub.InterviewStarted(next)

	r.broadcast(models.WSFrame{Type: "interview-ended", Data: models.InterviewEndedEvent{
		InterviewID: r.ID,
		By:          string(models.RoleInterviewer),
		Message:     "Interview ended from interview side",
	}}, ScopeAll, nil)
	return next.Clone(), nil
}

// End completes the interview. Only the interviewer or an elevated role may
// end it; a scheduled interview may be ended without ever starting.
func (r *Room) End(ctx context.Context, id auth.Identity) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interview.InterviewerID != id.UserID && !id.Role.Elevated() {
		return nil, apperr.Authorization("not authorized to end this interview")
	}
	if r.interview.Status != models.StatusInProgress && r.interview.Status != models.StatusScheduled {
		return nil, apperr.Newf(apperr.KindInvalidState, "cannot end interview in status %q", r.interview.Status)
	}

	now := time.Now().UTC()
	next := r.interview.Clone()
	next.Status = models.StatusCompleted
	next.EndedAt = &now
	if err := r.store.Save(ctx, next); err != nil {
		return nil, err
	}
	r.interview = next
	r.pub.InterviewEnded(next)

	r.broadcast(models.WSFrame{Type: "interview-ended", Data: models.InterviewEndedEvent{
		InterviewID: r.ID,
		By:          string(id.Role),
		Message:     "Interview ended from interview side",
	}}, ScopeAll, nil)
	return next.Clone(), nil
}

// SetCurrentQuestion updates the mirrored current-question pointer. An empty
// questionID clears it.
func (r *Room) SetCurrentQuestion(ctx context.Context, id auth.Identity, questionID string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interview.InterviewerID != id.UserID && !id.Role.Elevated() {
		return nil, apperr.Authorization("not authorized to set the current question")
	}

	next := r.interview.Clone()
	next.CurrentQuestion = questionID
	if err := r.store.Save(ctx, next); err != nil {
		return nil, err
	}
	r.interview = next

	r.broadcast(models.WSFrame{Type: "current-question-changed", Data: models.CurrentQuestionChanged{
		InterviewID: r.ID,
		QuestionID:  questionID,
	}}, ScopeAll, nil)
	return next.Clone(), nil
}

// SendMessage persists the message first, then fans it out to every
// connection (sender included, so multiple tabs stay consistent).
func (r *Room) SendMessage(ctx context.Context, id auth.Identity, body string, mtype models.MessageType) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if body == "" {
		return nil, apperr.Validation("message required")
	}
	if len(body) > models.MaxMessageLen {
		return nil, apperr.Validation("message too long")
	}
	if !r.interview.IsParticipant(id.UserID) && !id.Role.Elevated() {
		return nil, apperr.Authorization("not authorized to message this interview")
	}
	if mtype == "" {
		mtype = models.MessageText
	}

	saved, err := r.messages.Append(ctx, &models.Message{
		InterviewID: r.ID,
		SenderID:    id.UserID,
		Body:        body,
		Type:        mtype,
	})
	if err != nil {
		return nil, err
	}

	r.broadcast(models.WSFrame{Type: "receive-message", Data: saved}, ScopeAll, nil)
	return saved, nil
}

// InterviewPatch is a partial update of scheduling metadata; nil fields are
// left untouched.
type InterviewPatch struct {
	Title       *string
	Description *string
	ScheduledAt *time.Time
	Duration    *int
	QuestionIDs []string
}

// UpdateDetails patches the interview's scheduling metadata. Lifecycle fields
// are not reachable from here; those move only through Start and End.
func (r *Room) UpdateDetails(ctx context.Context, id auth.Identity, patch InterviewPatch) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interview.InterviewerID != id.UserID && !id.Role.Elevated() {
		return nil, apperr.Authorization("not authorized to update this interview")
	}

	next := r.interview.Clone()
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.ScheduledAt != nil {
		next.ScheduledAt = *patch.ScheduledAt
	}
	if patch.Duration != nil {
		next.Duration = *patch.Duration
	}
	if patch.QuestionIDs != nil {
		next.QuestionIDs = append([]string(nil), patch.QuestionIDs...)
	}
	if err := r.store.Save(ctx, next); err != nil {
		return nil, err
	}
	r.interview = next
	return next.Clone(), nil
}

// SubmitCode upserts the candidate's submission for one question; repeat
// submissions for the same question overwrite in place.
func (r *Room) SubmitCode(ctx context.Context, id auth.Identity, questionID, code, language string) (*models.Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if questionID == "" || code == "" {
		return nil, apperr.Validation("missing questionId or code")
	}
	if r.interview.CandidateID != id.UserID {
		return nil, apperr.Authorization("only the candidate can submit code")
	}

	now := time.Now().UTC()
	next := r.interview.Clone()
	if sub := next.FindSubmission(questionID); sub != nil {
		sub.Code = code
		sub.Language = language
		sub.SubmittedAt = now
		sub.TestResults = nil
	} else {
		next.CandidateCode = append(next.CandidateCode, models.Submission{
			QuestionID:  questionID,
			Code:        code,
			Language:    language,
			SubmittedAt: now,
		})
	}
	if err := r.store.Save(ctx, next); err != nil {
		return nil, err
	}
	r.interview = next
	return next.Clone(), nil
}

// RecordTestResults stores a grading outcome on the live submission for the
// question, when one exists. Grading without a prior submission is fine; the
// verdicts are simply not recorded.
func (r *Room) RecordTestResults(ctx context.Context, questionID string, verdicts []models.TestVerdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.interview.Clone()
	sub := next.FindSubmission(questionID)
	if sub == nil {
		return nil
	}
	sub.TestResults = make([]models.TestResult, len(verdicts))
	for i, v := range verdicts {
		sub.TestResults[i] = models.TestResult{Index: v.Index, Passed: v.Passed}
	}
	if err := r.store.Save(ctx, next); err != nil {
		return err
	}
	r.interview = next
	return nil
}

// Relay fans a transient event out to the other connections. No persistence,
// no authorization beyond membership, at-most-once.
func (r *Room) Relay(eventType string, payload any, sender *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[sender]; !ok {
		return
	}
	r.broadcast(models.WSFrame{Type: eventType, Data: payload}, ScopeOthers, sender)
}

// Broadcast delivers a frame to the room from outside the command path (used
// by the websocket end-interview relay, which goes to every connection).
func (r *Room) Broadcast(frame models.WSFrame, scope Scope, sender *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast(frame, scope, sender)
}

// broadcast runs under the room mutex so delivery order matches command order.
func (r *Room) broadcast(frame models.WSFrame, scope Scope, sender *Client) {
	for c := range r.clients {
		if scope == ScopeOthers && c == sender {
			continue
		}
		c.Send(frame)
		metrics.BroadcastsTotal.Inc()
	}
}
