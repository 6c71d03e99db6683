package repositories_test

import (
	"context"
	"testing"

	"github.com/artifacts-gallery/gallery-api/pkg/gallery/models"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Artifact{}))
	return db
}

func TestArtifactRepository_SaveAndGet(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)

	artifact := &models.Artifact{
		Id:      "a1",
		Email:   "a@x.com",
		Likes:   0,
		LikedBy: models.StringList{},
		Fields:  models.JSONMap{"title": "Vase", "description": "Clay vase"},
	}
	require.NoError(t, repo.Save(context.Background(), artifact))

	got, err := repo.GetArtifactByID(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "Vase", got.Fields["title"])
	assert.Empty(t, got.LikedBy)
}

func TestArtifactRepository_GetUnknownID(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)

	got, err := repo.GetArtifactByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestArtifactRepository_FindByOwner(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Artifact{Id: "a1", Email: "a@x.com"}))
	require.NoError(t, repo.Save(ctx, &models.Artifact{Id: "a2", Email: "b@x.com"}))
	require.NoError(t, repo.Save(ctx, &models.Artifact{Id: "a3", Email: "a@x.com"}))

	got, err := repo.FindByOwner(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestArtifactRepository_FindLikedBy(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Artifact{
		Id: "a1", Email: "a@x.com", Likes: 1, LikedBy: models.StringList{"b@x.com"},
	}))
	// superstring identity must not match b@x.com
	require.NoError(t, repo.Save(ctx, &models.Artifact{
		Id: "a2", Email: "a@x.com", Likes: 1, LikedBy: models.StringList{"bb@x.com"},
	}))
	require.NoError(t, repo.Save(ctx, &models.Artifact{
		Id: "a3", Email: "a@x.com",
	}))

	got, err := repo.FindLikedBy(ctx, "b@x.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].Id)

	got, err = repo.FindLikedBy(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArtifactRepository_UpsertCreatesWithCallerID(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)

	artifact, created, err := repo.Upsert(context.Background(), "custom-id", models.ArtifactInput{
		Email:  "a@x.com",
		Fields: models.JSONMap{"title": "New"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "custom-id", artifact.Id)
	assert.Equal(t, 0, artifact.Likes)
	assert.Empty(t, artifact.LikedBy)
}

func TestArtifactRepository_UpsertMergesFields(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Artifact{
		Id: "a1", Email: "a@x.com", Likes: 2, LikedBy: models.StringList{"b@x.com", "c@x.com"},
		Fields: models.JSONMap{"title": "Old", "description": "Keep me"},
	}))

	_, created, err := repo.Upsert(ctx, "a1", models.ArtifactInput{
		Fields: models.JSONMap{"title": "New"},
	})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetArtifactByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Fields["title"])
	assert.Equal(t, "Keep me", got.Fields["description"])
	// like state is never touched by an upsert
	assert.Equal(t, 2, got.Likes)
	assert.Len(t, got.LikedBy, 2)
}

func TestArtifactRepository_UpdateLikeStateCAS(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Artifact{
		Id: "a1", Email: "a@x.com", Likes: 0, LikedBy: models.StringList{},
	}))

	ok, err := repo.UpdateLikeState(ctx, "a1", models.StringList{}, models.StringList{"b@x.com"}, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// stale prior set: another writer already moved the state
	ok, err = repo.UpdateLikeState(ctx, "a1", models.StringList{}, models.StringList{"c@x.com"}, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetArtifactByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, models.StringList{"b@x.com"}, got.LikedBy)
}

func TestArtifactRepository_DeleteAbsentID(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewArtifactRepository(db)
	ctx := context.Background()

	count, err := repo.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.Save(ctx, &models.Artifact{Id: "a1", Email: "a@x.com"}))
	count, err = repo.Delete(ctx, "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
