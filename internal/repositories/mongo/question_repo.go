package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/models"
)

type QuestionRepo struct{ col *mongo.Collection }

func NewQuestionRepo(c *Client) *QuestionRepo {
	return &QuestionRepo{col: c.DB().Collection("questions")}
}

func (r *QuestionRepo) Get(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("question not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "load question", err)
	}
	return &q, nil
}

func (r *QuestionRepo) Exists(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return false, apperr.Wrap(apperr.KindStorage, "count questions", err)
	}
	return n == int64(len(ids)), nil
}
