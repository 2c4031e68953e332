package repositories

import (
	"context"

	"mulakhat/interview/internal/models"
)

// InterviewStore is the persisted source of truth for interviews. Rooms cache
// an interview in memory while active and write back through Save.
type InterviewStore interface {
	Get(ctx context.Context, id string) (*models.Interview, error)
	List(ctx context.Context, filter InterviewFilter) ([]models.Interview, error)
	Create(ctx context.Context, iv *models.Interview) (*models.Interview, error)
	Save(ctx context.Context, iv *models.Interview) error
}

// InterviewFilter narrows List to one participant; zero value lists all.
type InterviewFilter struct {
	InterviewerID string
	CandidateID   string
}

type QuestionStore interface {
	Get(ctx context.Context, id string) (*models.Question, error)
	Exists(ctx context.Context, ids []string) (bool, error)
}

type MessageStore interface {
	Append(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListByInterview returns messages in creation-time order, oldest first.
	ListByInterview(ctx context.Context, interviewID string) ([]models.Message, error)
}
