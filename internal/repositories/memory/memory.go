// Package memory holds in-process implementations of the store interfaces,
// used by tests and local development without a Mongo instance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/models"
	"mulakhat/interview/internal/repositories"
)

type InterviewStore struct {
	mu         sync.RWMutex
	interviews map[string]*models.Interview
}

func NewInterviewStore() *InterviewStore {
	return &InterviewStore{interviews: make(map[string]*models.Interview)}
}

func (s *InterviewStore) Get(_ context.Context, id string) (*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, apperr.NotFound("interview not found")
	}
	return iv.Clone(), nil
}

func (s *InterviewStore) List(_ context.Context, filter repositories.InterviewFilter) ([]models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Interview
	for _, iv := range s.interviews {
		if filter.InterviewerID != "" && iv.InterviewerID != filter.InterviewerID {
			continue
		}
		if filter.CandidateID != "" && iv.CandidateID != filter.CandidateID {
			continue
		}
		out = append(out, *iv.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return out, nil
}

func (s *InterviewStore) Create(_ context.Context, iv *models.Interview) (*models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := iv.Clone()
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Status == "" {
		cp.Status = models.StatusScheduled
	}
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.interviews[cp.ID] = cp
	return cp.Clone(), nil
}

func (s *InterviewStore) Save(_ context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviews[iv.ID]; !ok {
		return apperr.NotFound("interview not found")
	}
	cp := iv.Clone()
	cp.UpdatedAt = time.Now().UTC()
	s.interviews[iv.ID] = cp
	return nil
}

type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]*models.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{questions: make(map[string]*models.Question)}
}

func (s *QuestionStore) Put(q *models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	s.questions[q.ID] = q
}

func (s *QuestionStore) Get(_ context.Context, id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, apperr.NotFound("question not found")
	}
	cp := *q
	cp.TestCases = append([]models.TestCase(nil), q.TestCases...)
	return &cp, nil
}

func (s *QuestionStore) Exists(_ context.Context, ids []string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.questions[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

type MessageStore struct {
	mu       sync.RWMutex
	messages map[string][]models.Message // interviewID -> creation order
}

func NewMessageStore() *MessageStore {
	return &MessageStore{messages: make(map[string][]models.Message)}
}

func (s *MessageStore) Append(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *msg
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	s.messages[saved.InterviewID] = append(s.messages[saved.InterviewID], saved)
	out := saved
	return &out, nil
}

func (s *MessageStore) ListByInterview(_ context.Context, interviewID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages[interviewID]))
	copy(out, s.messages[interviewID])
	return out, nil
}
