package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/buildwise-ai/buildwise-backend/internal/users/domain"
)

const Collection = "users"

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(Collection), now: time.Now}
}

// EnsureIndexes makes emails unique across identities.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepository) Get(ctx context.Context, uid string) (*domain.User, error) {
	var u domain.User
	err := r.coll.FindOne(ctx, bson.M{"_id": uid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoRepository) Sync(ctx context.Context, req domain.SyncRequest) (*domain.User, error) {
	now := r.now().UTC()
	set := bson.M{"email": req.Email, "updatedAt": now, "lastLoginAt": now}
	if req.DisplayName != nil {
		set["displayName"] = *req.DisplayName
	}
	if req.PhotoURL != nil {
		set["photoUrl"] = *req.PhotoURL
	}
	if req.Organization != nil {
		set["organization"] = *req.Organization
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"role": domain.RoleUser, "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u domain.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": req.FirebaseUID}, update, opts).Decode(&u)
	if mongo.IsDuplicateKeyError(err) {
		return nil, domain.ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoRepository) Update(ctx context.Context, uid string, req domain.UpdateRequest) (*domain.User, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if req.DisplayName != nil {
		set["displayName"] = *req.DisplayName
	}
	if req.PhotoURL != nil {
		set["photoUrl"] = *req.PhotoURL
	}
	if req.Organization != nil {
		set["organization"] = *req.Organization
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u domain.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": uid}, bson.M{"$set": set}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoRepository) SetRoleByEmail(ctx context.Context, email, role string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": role, "updatedAt": r.now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
