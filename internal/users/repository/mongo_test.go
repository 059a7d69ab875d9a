package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/buildwise-ai/buildwise-backend/internal/users/domain"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	userDoc := bson.D{
		{Key: "_id", Value: "uid-1"},
		{Key: "email", Value: "ada@example.com"},
		{Key: "displayName", Value: "Ada"},
		{Key: "role", Value: "user"},
		{Key: "createdAt", Value: created},
		{Key: "updatedAt", Value: created},
	}

	mt.Run("get", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch, userDoc))

		u, err := repo.Get(context.Background(), "uid-1")
		require.NoError(mt, err)
		assert.Equal(mt, "ada@example.com", u.Email)
		require.NotNil(mt, u.DisplayName)
		assert.Equal(mt, "Ada", *u.DisplayName)
		assert.Nil(mt, u.PhotoURL)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "nope")
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("sync upserts without touching role", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: userDoc}))

		u, err := repo.Sync(context.Background(), domain.SyncRequest{FirebaseUID: "uid-1", Email: "ada@example.com"})
		require.NoError(mt, err)
		assert.Equal(mt, "uid-1", u.FirebaseUID)

		cmd := mt.GetStartedEvent().Command
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		assert.Equal(mt, "user", cmd.Lookup("update", "$setOnInsert", "role").StringValue())
		_, err = cmd.LookupErr("update", "$set", "role")
		assert.Error(mt, err)
	})

	mt.Run("set role by email", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		ok, err := repo.SetRoleByEmail(context.Background(), "ada@example.com", domain.RoleAdmin)
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("sync rejects an email held by another identity", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error collection: db.users index: email_1",
		}))

		_, err := repo.Sync(context.Background(), domain.SyncRequest{FirebaseUID: "uid-2", Email: "ada@example.com"})
		assert.ErrorIs(mt, err, domain.ErrEmailTaken)
	})

	mt.Run("set role by unknown email", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		ok, err := repo.SetRoleByEmail(context.Background(), "ghost@example.com", domain.RoleAdmin)
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}
