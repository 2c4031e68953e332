package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/auth"
	"mulakhat/interview/internal/grading"
	"mulakhat/interview/internal/judge"
	"mulakhat/interview/internal/models"
	"mulakhat/interview/internal/repositories"
	"mulakhat/interview/internal/session"
)

type Handlers struct {
	hub       *session.Hub
	store     repositories.InterviewStore
	questions repositories.QuestionStore
	messages  repositories.MessageStore
	judge     judge.Executor
	grader    *grading.Engine
	log       *zap.Logger
}

func NewHandlers(hub *session.Hub, store repositories.InterviewStore, questions repositories.QuestionStore, messages repositories.MessageStore, exec judge.Executor, grader *grading.Engine, log *zap.Logger) *Handlers {
	return &Handlers{
		hub:       hub,
		store:     store,
		questions: questions,
		messages:  messages,
		judge:     exec,
		grader:    grader,
		log:       log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// ListInterviews returns the caller's interviews; elevated roles see all.
func (h *Handlers) ListInterviews(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	filter := repositories.InterviewFilter{}
	switch id.Role {
	case models.RoleCandidate:
		filter.CandidateID = id.UserID
	case models.RoleInterviewer:
		filter.InterviewerID = id.UserID
	}
	interviews, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if interviews == nil {
		interviews = []models.Interview{}
	}
	writeJSON(w, http.StatusOK, interviews)
}

type createInterviewRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CandidateID string    `json:"candidateId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Duration    int       `json:"duration"`
	QuestionIDs []string  `json:"questions"`
}

func (h *Handlers) CreateInterview(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	if id.Role != models.RoleInterviewer && !id.Role.Elevated() {
		h.writeErr(w, apperr.Authorization("only interviewers can create interviews"))
		return
	}

	var req createInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperr.Validation("invalid request payload"))
		return
	}
	if req.CandidateID == "" {
		h.writeErr(w, apperr.Validation("candidateId required"))
		return
	}
	if req.ScheduledAt.IsZero() {
		h.writeErr(w, apperr.Validation("scheduledAt required"))
		return
	}
	if len(req.QuestionIDs) > 0 {
		ok, err := h.questions.Exists(r.Context(), req.QuestionIDs)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		if !ok {
			h.writeErr(w, apperr.Validation("some questions not found"))
			return
		}
	}
	if req.Duration <= 0 {
		req.Duration = 60
	}

	created, err := h.store.Create(r.Context(), &models.Interview{
		Title:         req.Title,
		Description:   req.Description,
		InterviewerID: id.UserID,
		CandidateID:   req.CandidateID,
		ScheduledAt:   req.ScheduledAt,
		Duration:      req.Duration,
		QuestionIDs:   req.QuestionIDs,
		Status:        models.StatusScheduled,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) GetInterview(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	iv, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if !iv.IsParticipant(id.UserID) && !id.Role.Elevated() {
		h.writeErr(w, apperr.Authorization("not authorized to access this interview"))
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

type updateInterviewRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	Duration    *int       `json:"duration"`
	QuestionIDs []string   `json:"questions"`
}

// UpdateInterview patches scheduling metadata. It goes through the room so a
// live session observes the change, and only the interviewer or an elevated
// role may call it.
func (h *Handlers) UpdateInterview(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	var req updateInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperr.Validation("invalid request payload"))
		return
	}
	if len(req.QuestionIDs) > 0 {
		ok, err := h.questions.Exists(r.Context(), req.QuestionIDs)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		if !ok {
			h.writeErr(w, apperr.Validation("some questions not found"))
			return
		}
	}

	room, err := h.hub.GetOrCreate(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer h.hub.Retire(interviewID)

	updated, err := room.UpdateDetails(r.Context(), id, session.InterviewPatch{
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		Duration:    req.Duration,
		QuestionIDs: req.QuestionIDs,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) StartInterview(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	room, err := h.hub.GetOrCreate(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer h.hub.Retire(interviewID)

	iv, err := room.Start(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

func (h *Handlers) EndInterview(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	room, err := h.hub.GetOrCreate(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer h.hub.Retire(interviewID)

	iv, err := room.End(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

type setCurrentQuestionRequest struct {
	QuestionID string `json:"questionId"`
}

func (h *Handlers) SetCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	var req setCurrentQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperr.Validation("invalid request payload"))
		return
	}

	room, err := h.hub.GetOrCreate(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer h.hub.Retire(interviewID)

	iv, err := room.SetCurrentQuestion(r.Context(), id, req.QuestionID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"currentQuestion": iv.CurrentQuestion})
}

type submitCodeRequest struct {
	QuestionID string `json:"questionId"`
	Code       string `json:"code"`
	Language   string `json:"language"`
}

func (h *Handlers) SubmitCode(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	var req submitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperr.Validation("invalid request payload"))
		return
	}

	room, err := h.hub.GetOrCreate(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer h.hub.Retire(interviewID)

	if _, err := room.SubmitCode(r.Context(), id, req.QuestionID, req.Code, req.Language); err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "code submitted"})
}

// ExecuteCode is the ad hoc judge passthrough with no question binding.
func (h *Handlers) ExecuteCode(w http.ResponseWriter, r *http.Request) {
	var req judge.ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperr.Validation("invalid request payload"))
		return
	}
	result, err := h.judge.Execute(r.Context(), req)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type runTestsRequest struct {
	QuestionID string `json:"questionId"`
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
}

// RunTests grades a source against a question's suite and, when the candidate
// has a stored submission for that question, records the per-case outcomes.
func (h *Handlers) RunTests(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	var req runTestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperr.Validation("invalid request payload"))
		return
	}
	if req.QuestionID == "" || req.SourceCode == "" || req.LanguageID == 0 {
		h.writeErr(w, apperr.Validation("missing questionId, source_code or language_id"))
		return
	}

	iv, err := h.store.Get(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if !iv.IsParticipant(id.UserID) && !id.Role.Elevated() {
		h.writeErr(w, apperr.Authorization("not authorized to run tests for this interview"))
		return
	}

	question, err := h.questions.Get(r.Context(), req.QuestionID)
	if err != nil {
		h.writeErr(w, err)
		return
	}

	suite, err := h.grader.RunSuite(r.Context(), req.SourceCode, req.LanguageID, question)
	if err != nil {
		h.writeErr(w, err)
		return
	}

	if room, roomErr := h.hub.GetOrCreate(r.Context(), interviewID); roomErr == nil {
		defer h.hub.Retire(interviewID)
		if err := room.RecordTestResults(r.Context(), req.QuestionID, suite.Results); err != nil {
			h.log.Warn("failed to record test results",
				zap.String("interview", interviewID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, suite)
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	iv, err := h.store.Get(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if !iv.IsParticipant(id.UserID) && !id.Role.Elevated() {
		h.writeErr(w, apperr.Authorization("not authorized to read these messages"))
		return
	}

	msgs, err := h.messages.ListByInterview(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type createMessageRequest struct {
	Message     string             `json:"message"`
	MessageType models.MessageType `json:"messageType"`
}

func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErr(w, apperr.Validation("invalid request payload"))
		return
	}

	room, err := h.hub.GetOrCreate(r.Context(), interviewID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	defer h.hub.Retire(interviewID)

	msg, err := room.SendMessage(r.Context(), id, req.Message, req.MessageType)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handlers) writeErr(w http.ResponseWriter, err error) {
	kind, known := apperr.KindOf(err)
	status := http.StatusInternalServerError
	if known {
		switch kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindAuthorization:
			status = http.StatusForbidden
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindInvalidState:
			status = http.StatusConflict
		case apperr.KindUpstream:
			status = http.StatusBadGateway
		}
	}
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		h.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, models.ErrorResponse{Code: kind.String(), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
