package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/buildwise-ai/buildwise-backend/internal/admin/domain"
)

const Collection = "adminRequests"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(Collection)}
}

// EnsureIndexes makes tokens unique and allows one pending request per email.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.StatusPending}),
		},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, req *domain.Request) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": req.Email, "status": domain.StatusPending})
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrDuplicatePending
	}

	_, err = r.coll.InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicatePending
	}
	return err
}

func (r *MongoRepository) Decide(ctx context.Context, token string, status domain.Status, at time.Time) (*domain.Request, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req domain.Request
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"token": token, "status": domain.StatusPending},
		bson.M{"$set": bson.M{"status": status, "reviewedAt": at}},
		opts,
	).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"token": token})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrAlreadyProcessed
}

func (r *MongoRepository) List(ctx context.Context, status domain.Status) ([]domain.Request, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]domain.Request, 0, 16)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
