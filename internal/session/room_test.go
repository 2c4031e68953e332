package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/auth"
	"mulakhat/interview/internal/models"
	"mulakhat/interview/internal/repositories/memory"
)

type frameCapture struct {
	mu     sync.Mutex
	frames []models.WSFrame
}

func newFrameCapture() *frameCapture { return &frameCapture{} }

func (c *frameCapture) hook(frame models.WSFrame) {
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	c.mu.Unlock()
}

func (c *frameCapture) list() []models.WSFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.WSFrame, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *frameCapture) types() []string {
	var out []string
	for _, f := range c.list() {
		out = append(out, f.Type)
	}
	return out
}

func seedInterview(t *testing.T, store *memory.InterviewStore) *models.Interview {
	t.Helper()
	iv, err := store.Create(context.Background(), &models.Interview{
		Title:         "Backend screen",
		InterviewerID: "ivr-1",
		CandidateID:   "cand-1",
		QuestionIDs:   []string{"q1", "q2"},
		Status:        models.StatusScheduled,
		Duration:      60,
	})
	if err != nil {
		t.Fatalf("seed interview: %v", err)
	}
	return iv
}

func newTestRoom(t *testing.T) (*Room, *memory.InterviewStore, *memory.MessageStore) {
	t.Helper()
	store := memory.NewInterviewStore()
	messages := memory.NewMessageStore()
	iv := seedInterview(t, store)
	return NewRoom(iv, store, messages, nil, zap.NewNop()), store, messages
}

func joinClient(t *testing.T, room *Room, userID string, role models.Role) (*Client, *frameCapture) {
	t.Helper()
	c := NewClient(nil, userID, role)
	capture := newFrameCapture()
	c.SetSendHook(capture.hook)
	if !room.Join(c) {
		t.Fatalf("join refused for %s", userID)
	}
	return c, capture
}

func interviewer() auth.Identity {
	return auth.Identity{UserID: "ivr-1", Role: models.RoleInterviewer}
}

func candidate() auth.Identity {
	return auth.Identity{UserID: "cand-1", Role: models.RoleCandidate}
}

func TestJoinIsIdempotent(t *testing.T) {
	room, _, _ := newTestRoom(t)
	c, capture := joinClient(t, room, "cand-1", models.RoleCandidate)
	if !room.Join(c) {
		t.Fatalf("duplicate join refused")
	}

	if got := room.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after duplicate join, got %d", got)
	}
	// presence is re-announced on the duplicate join
	if got := capture.types(); len(got) != 2 || got[0] != "presence" || got[1] != "presence" {
		t.Fatalf("expected two presence frames, got %v", got)
	}
}

func TestStartHappyPath(t *testing.T) {
	room, store, _ := newTestRoom(t)
	_, capture := joinClient(t, room, "cand-1", models.RoleCandidate)

	iv, err := room.Start(context.Background(), interviewer())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if iv.Status != models.StatusInProgress {
		t.Fatalf("expected in-progress, got %s", iv.Status)
	}
	if iv.StartedAt == nil {
		t.Fatalf("expected startedAt to be set")
	}

	persisted, err := store.Get(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("load persisted: %v", err)
	}
	if persisted.Status != models.StatusInProgress {
		t.Fatalf("persisted status %s, expected in-progress", persisted.Status)
	}

	// Start announces interview-ended to the room; clients are built to reset
	// the session on it. Covered here so nobody "fixes" it silently.
	types := capture.types()
	if types[len(types)-1] != "interview-ended" {
		t.Fatalf("expected interview-ended broadcast after start, got %v", types)
	}
}

func TestStartRejectsWrongStatus(t *testing.T) {
	room, store, _ := newTestRoom(t)
	_, capture := joinClient(t, room, "cand-1", models.RoleCandidate)

	if _, err := room.Start(context.Background(), interviewer()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	framesAfterStart := len(capture.list())

	_, err := room.Start(context.Background(), interviewer())
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}

	if got := len(capture.list()); got != framesAfterStart {
		t.Fatalf("rejected start must not broadcast, frames %d -> %d", framesAfterStart, got)
	}

	persisted, _ := store.Get(context.Background(), room.ID)
	first := persisted.StartedAt
	if first == nil {
		t.Fatalf("startedAt should survive the rejected start")
	}
}

func TestStartAuthorization(t *testing.T) {
	room, _, _ := newTestRoom(t)

	_, err := room.Start(context.Background(), auth.Identity{UserID: "stranger", Role: models.RoleInterviewer})
	if !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}

	// candidate may start
	if _, err := room.Start(context.Background(), candidate()); err != nil {
		t.Fatalf("candidate start: %v", err)
	}
}

func TestConcurrentStartProducesOneTransition(t *testing.T) {
	room, _, _ := newTestRoom(t)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := room.Start(context.Background(), interviewer())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var okCount, stateErrCount int
	for err := range errs {
		switch {
		case err == nil:
			okCount++
		case apperr.Is(err, apperr.KindInvalidState):
			stateErrCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 {
		t.Fatalf("expected exactly one successful start, got %d", okCount)
	}
	if stateErrCount != callers-1 {
		t.Fatalf("expected %d invalid-state rejections, got %d", callers-1, stateErrCount)
	}
}

func TestEndFromScheduledAndInProgress(t *testing.T) {
	room, _, _ := newTestRoom(t)
	iv, err := room.End(context.Background(), interviewer())
	if err != nil {
		t.Fatalf("end from scheduled: %v", err)
	}
	if iv.Status != models.StatusCompleted || iv.EndedAt == nil {
		t.Fatalf("unexpected end result: %+v", iv)
	}

	// completed is terminal
	if _, err := room.End(context.Background(), interviewer()); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state ending a completed interview, got %v", err)
	}
}

func TestEndRequiresInterviewerOrElevated(t *testing.T) {
	room, _, _ := newTestRoom(t)
	if _, err := room.End(context.Background(), candidate()); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("candidate must not end, got %v", err)
	}
	if _, err := room.End(context.Background(), auth.Identity{UserID: "adm", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("admin end: %v", err)
	}
}

func TestSetCurrentQuestionBroadcasts(t *testing.T) {
	room, store, _ := newTestRoom(t)
	_, capture := joinClient(t, room, "cand-1", models.RoleCandidate)

	if _, err := room.SetCurrentQuestion(context.Background(), interviewer(), "q2"); err != nil {
		t.Fatalf("set current question: %v", err)
	}
	persisted, _ := store.Get(context.Background(), room.ID)
	if persisted.CurrentQuestion != "q2" {
		t.Fatalf("expected q2 persisted, got %q", persisted.CurrentQuestion)
	}

	frames := capture.list()
	last := frames[len(frames)-1]
	if last.Type != "current-question-changed" {
		t.Fatalf("expected current-question-changed, got %s", last.Type)
	}
	ev := last.Data.(models.CurrentQuestionChanged)
	if ev.QuestionID != "q2" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// clearing the pointer is allowed
	iv, err := room.SetCurrentQuestion(context.Background(), interviewer(), "")
	if err != nil {
		t.Fatalf("clear current question: %v", err)
	}
	if iv.CurrentQuestion != "" {
		t.Fatalf("expected cleared pointer, got %q", iv.CurrentQuestion)
	}
}

func TestSendMessagePersistsBeforeFanout(t *testing.T) {
	room, _, messages := newTestRoom(t)
	_, senderCapture := joinClient(t, room, "cand-1", models.RoleCandidate)
	_, peerCapture := joinClient(t, room, "ivr-1", models.RoleInterviewer)

	msg, err := room.SendMessage(context.Background(), candidate(), "hello", models.MessageText)
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.ID == "" || msg.Type != models.MessageText {
		t.Fatalf("unexpected message: %+v", msg)
	}

	// both sender and peer receive the persisted message
	for name, capture := range map[string]*frameCapture{"sender": senderCapture, "peer": peerCapture} {
		frames := capture.list()
		last := frames[len(frames)-1]
		if last.Type != "receive-message" {
			t.Fatalf("%s: expected receive-message, got %s", name, last.Type)
		}
		got := last.Data.(*models.Message)
		if got.ID != msg.ID || got.Body != "hello" {
			t.Fatalf("%s: broadcast differs from persisted message: %+v", name, got)
		}
	}

	stored, err := messages.ListByInterview(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != msg.ID {
		t.Fatalf("expected persisted message, got %+v", stored)
	}
}

func TestSendMessageValidation(t *testing.T) {
	room, _, _ := newTestRoom(t)

	if _, err := room.SendMessage(context.Background(), candidate(), "", models.MessageText); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("empty body must fail validation, got %v", err)
	}
	long := make([]byte, models.MaxMessageLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := room.SendMessage(context.Background(), candidate(), string(long), models.MessageText); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("oversized body must fail validation, got %v", err)
	}
	if _, err := room.SendMessage(context.Background(), auth.Identity{UserID: "stranger", Role: models.RoleCandidate}, "hi", models.MessageText); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("stranger must not message, got %v", err)
	}
}

func TestSubmitCodeOverwritesInPlace(t *testing.T) {
	room, store, _ := newTestRoom(t)

	if _, err := room.SubmitCode(context.Background(), candidate(), "q1", "print(1)", "python"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := room.SubmitCode(context.Background(), candidate(), "q1", "print(2)", "python"); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	persisted, _ := store.Get(context.Background(), room.ID)
	if len(persisted.CandidateCode) != 1 {
		t.Fatalf("expected one submission for (interview, question), got %d", len(persisted.CandidateCode))
	}
	if persisted.CandidateCode[0].Code != "print(2)" {
		t.Fatalf("expected latest code, got %q", persisted.CandidateCode[0].Code)
	}
}

func TestSubmitCodeCandidateOnly(t *testing.T) {
	room, _, _ := newTestRoom(t)
	if _, err := room.SubmitCode(context.Background(), interviewer(), "q1", "x", "python"); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("interviewer must not submit, got %v", err)
	}
}

func TestRelayScopeOthers(t *testing.T) {
	room, _, _ := newTestRoom(t)
	sender, senderCapture := joinClient(t, room, "cand-1", models.RoleCandidate)
	_, peerCapture := joinClient(t, room, "ivr-1", models.RoleInterviewer)
	senderBefore := len(senderCapture.list())

	room.Relay("code-update", map[string]any{"interviewId": room.ID, "code": "x"}, sender)

	peerFrames := peerCapture.list()
	if peerFrames[len(peerFrames)-1].Type != "code-update" {
		t.Fatalf("peer should receive code-update, got %v", peerCapture.types())
	}
	if got := len(senderCapture.list()); got != senderBefore {
		t.Fatalf("sender must not receive its own relay echo")
	}
}

func TestRelayRequiresMembership(t *testing.T) {
	room, _, _ := newTestRoom(t)
	_, peerCapture := joinClient(t, room, "ivr-1", models.RoleInterviewer)
	before := len(peerCapture.list())

	outsider := NewClient(nil, "cand-1", models.RoleCandidate)
	room.Relay("code-update", "x", outsider)

	if got := len(peerCapture.list()); got != before {
		t.Fatalf("relay from a non-member must be dropped")
	}
}

// failingStore wraps the memory store and fails Save on demand.
type failingStore struct {
	*memory.InterviewStore
	failSave bool
}

func (s *failingStore) Save(ctx context.Context, iv *models.Interview) error {
	if s.failSave {
		return apperr.Wrap(apperr.KindStorage, "save interview", errors.New("write failed"))
	}
	return s.InterviewStore.Save(ctx, iv)
}

func TestFailedPersistenceSuppressesBroadcastAndMutation(t *testing.T) {
	store := &failingStore{InterviewStore: memory.NewInterviewStore()}
	iv := seedInterview(t, store.InterviewStore)
	room := NewRoom(iv, store, memory.NewMessageStore(), nil, zap.NewNop())
	_, capture := joinClient(t, room, "cand-1", models.RoleCandidate)
	before := len(capture.list())

	store.failSave = true
	_, err := room.Start(context.Background(), interviewer())
	if !apperr.Is(err, apperr.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if got := len(capture.list()); got != before {
		t.Fatalf("broadcast must not follow a failed write")
	}
	if snap := room.Snapshot(); snap.Status != models.StatusScheduled || snap.StartedAt != nil {
		t.Fatalf("room state must be unchanged after failed write: %+v", snap)
	}

	// the room recovers once the store does
	store.failSave = false
	if _, err := room.Start(context.Background(), interviewer()); err != nil {
		t.Fatalf("start after recovery: %v", err)
	}
}

func TestRecordTestResults(t *testing.T) {
	room, store, _ := newTestRoom(t)
	if _, err := room.SubmitCode(context.Background(), candidate(), "q1", "code", "python"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	verdicts := []models.TestVerdict{
		{Index: 0, Passed: true},
		{Index: 1, Passed: false, IsHidden: true},
	}
	if err := room.RecordTestResults(context.Background(), "q1", verdicts); err != nil {
		t.Fatalf("record: %v", err)
	}

	persisted, _ := store.Get(context.Background(), room.ID)
	results := persisted.CandidateCode[0].TestResults
	if len(results) != 2 || !results[0].Passed || results[1].Passed {
		t.Fatalf("unexpected recorded results: %+v", results)
	}

	// no submission for q2: recording is a no-op, not an error
	if err := room.RecordTestResults(context.Background(), "q2", verdicts); err != nil {
		t.Fatalf("record without submission: %v", err)
	}
}
