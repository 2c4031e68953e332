package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/models"
	"mulakhat/interview/internal/repositories"
)

type InterviewRepo struct{ col *mongo.Collection }

func NewInterviewRepo(c *Client) *InterviewRepo {
	return &InterviewRepo{col: c.DB().Collection("interviews")}
}

func (r *InterviewRepo) Get(ctx context.Context, id string) (*models.Interview, error) {
	var iv models.Interview
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&iv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("interview not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "load interview", err)
	}
	return &iv, nil
}

func (r *InterviewRepo) List(ctx context.Context, filter repositories.InterviewFilter) ([]models.Interview, error) {
	query := bson.M{}
	if filter.InterviewerID != "" {
		query["interviewerId"] = filter.InterviewerID
	}
	if filter.CandidateID != "" {
		query["candidateId"] = filter.CandidateID
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "list interviews", err)
	}
	defer cur.Close(ctx)
	var out []models.Interview
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "decode interviews", err)
	}
	return out, nil
}

func (r *InterviewRepo) Create(ctx context.Context, iv *models.Interview) (*models.Interview, error) {
	cp := iv.Clone()
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Status == "" {
		cp.Status = models.StatusScheduled
	}
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt = now, now
	if _, err := r.col.InsertOne(ctx, cp); err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "insert interview", err)
	}
	return cp, nil
}

func (r *InterviewRepo) Save(ctx context.Context, iv *models.Interview) error {
	cp := iv.Clone()
	cp.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": cp.ID}, cp)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "save interview", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("interview not found")
	}
	return nil
}
