// Package events publishes interview lifecycle changes over Redis pub/sub so
// sibling services (matching, history) can react without polling Mongo.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mulakhat/interview/internal/models"
)

const Channel = "interview_events"

// Publisher is best-effort: a failed publish is logged, never surfaced to the
// caller, since the authoritative write already landed in Mongo.
type Publisher struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewPublisher(rdb *redis.Client, log *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

func (p *Publisher) InterviewStarted(iv *models.Interview) {
	p.publish(iv, string(models.StatusInProgress))
}

func (p *Publisher) InterviewEnded(iv *models.Interview) {
	p.publish(iv, string(models.StatusCompleted))
}

func (p *Publisher) publish(iv *models.Interview, status string) {
	if p == nil || p.rdb == nil {
		return
	}
	event := models.LifecycleEvent{
		InterviewID:   iv.ID,
		Status:        status,
		InterviewerID: iv.InterviewerID,
		CandidateID:   iv.CandidateID,
		At:            time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		p.log.Warn("failed to publish lifecycle event",
			zap.String("interview", iv.ID), zap.Error(err))
	}
}
