package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/models"
)

type MessageRepo struct{ col *mongo.Collection }

func NewMessageRepo(c *Client) *MessageRepo {
	col := c.DB().Collection("messages")
	// Reads replay in creation order; keep that path indexed.
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "interviewId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return &MessageRepo{col: col}
}

func (r *MessageRepo) Append(ctx context.Context, msg *models.Message) (*models.Message, error) {
	saved := *msg
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, saved); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "insert message", err)
	}
	return &saved, nil
}

func (r *MessageRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"interviewId": interviewID}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "list messages", err)
	}
	defer cur.Close(ctx)
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "decode messages", err)
	}
	return out, nil
}
