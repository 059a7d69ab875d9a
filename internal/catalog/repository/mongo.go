package repository

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/buildwise-ai/buildwise-backend/internal/catalog/domain"
)

const (
	DesignersCollection = "designers"
	MaterialsCollection = "materials"
	RegionsCollection   = "regions"
)

type MongoRepository struct {
	designers *mongo.Collection
	materials *mongo.Collection
	regions   *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		designers: db.Collection(DesignersCollection),
		materials: db.Collection(MaterialsCollection),
		regions:   db.Collection(RegionsCollection),
	}
}

// exactFold matches field == value ignoring case.
func exactFold(field, value string) bson.M {
	if value == "" {
		return bson.M{}
	}
	return bson.M{field: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]T, 0, 16)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var v T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// upsertAll replaces each document by id in one bulk write.
func upsertAll[T any](ctx context.Context, coll *mongo.Collection, items []T, id func(T) string) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(items))
	for _, it := range items {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id(it)}).
			SetReplacement(it).
			SetUpsert(true))
	}
	if _, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *MongoRepository) ListDesigners(ctx context.Context, specialty string) ([]domain.Designer, error) {
	return findAll[domain.Designer](ctx, r.designers, exactFold("specialty", specialty))
}

func (r *MongoRepository) GetDesigner(ctx context.Context, id string) (*domain.Designer, error) {
	return findByID[domain.Designer](ctx, r.designers, id)
}

func (r *MongoRepository) ListMaterials(ctx context.Context, category string) ([]domain.Material, error) {
	return findAll[domain.Material](ctx, r.materials, exactFold("category", category))
}

func (r *MongoRepository) GetMaterial(ctx context.Context, id string) (*domain.Material, error) {
	return findByID[domain.Material](ctx, r.materials, id)
}

func (r *MongoRepository) ListRegions(ctx context.Context, country string) ([]domain.Region, error) {
	return findAll[domain.Region](ctx, r.regions, exactFold("country", country))
}

func (r *MongoRepository) GetRegion(ctx context.Context, id string) (*domain.Region, error) {
	return findByID[domain.Region](ctx, r.regions, id)
}

func (r *MongoRepository) Upsert(ctx context.Context, seed domain.Seed) (domain.SeedResult, error) {
	var res domain.SeedResult
	var err error
	if res.Designers, err = upsertAll(ctx, r.designers, seed.Designers, func(d domain.Designer) string { return d.ID }); err != nil {
		return res, err
	}
	if res.Materials, err = upsertAll(ctx, r.materials, seed.Materials, func(m domain.Material) string { return m.ID }); err != nil {
		return res, err
	}
	if res.Regions, err = upsertAll(ctx, r.regions, seed.Regions, func(g domain.Region) string { return g.ID }); err != nil {
		return res, err
	}
	return res, nil
}
