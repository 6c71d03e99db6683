package repositories

import (
	"context"
	"errors"

	"github.com/artifacts-gallery/gallery-api/pkg/gallery/models"
	"gorm.io/gorm"
)

type ArtifactRepository interface {
	Save(ctx context.Context, artifact *models.Artifact) error
	AllArtifacts(ctx context.Context) ([]models.Artifact, error)
	FindByOwner(ctx context.Context, email string) ([]models.Artifact, error)
	FindLikedBy(ctx context.Context, email string) ([]models.Artifact, error)
	GetArtifactByID(ctx context.Context, id string) (*models.Artifact, error)
	Upsert(ctx context.Context, id string, input models.ArtifactInput) (*models.Artifact, bool, error)
	UpdateLikeState(ctx context.Context, id string, prior, next models.StringList, likes int) (bool, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type artifactRepository struct {
	db *gorm.DB
}

func NewArtifactRepository(db *gorm.DB) ArtifactRepository {
	return &artifactRepository{db: db}
}

func (r *artifactRepository) Save(ctx context.Context, artifact *models.Artifact) error {
	return r.db.WithContext(ctx).Create(artifact).Error
}

func (r *artifactRepository) AllArtifacts(ctx context.Context) ([]models.Artifact, error) {
	var artifacts []models.Artifact
	if err := r.db.WithContext(ctx).Find(&artifacts).Error; err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (r *artifactRepository) FindByOwner(ctx context.Context, email string) ([]models.Artifact, error) {
	var artifacts []models.Artifact
	if err := r.db.WithContext(ctx).Where("email = ?", email).Find(&artifacts).Error; err != nil {
		return nil, err
	}
	return artifacts, nil
}

// FindLikedBy narrows on the serialized liked_by column first, then confirms
// membership on the decoded set. The LIKE match alone can over-select when
// one identity is a substring of another.
func (r *artifactRepository) FindLikedBy(ctx context.Context, email string) ([]models.Artifact, error) {
	var candidates []models.Artifact
	pattern := `%"` + email + `"%`
	if err := r.db.WithContext(ctx).Where("liked_by LIKE ?", pattern).Find(&candidates).Error; err != nil {
		return nil, err
	}

	artifacts := make([]models.Artifact, 0, len(candidates))
	for _, a := range candidates {
		if a.LikedBy.Contains(email) {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

func (r *artifactRepository) GetArtifactByID(ctx context.Context, id string) (*models.Artifact, error) {
	var artifact models.Artifact
	err := r.db.WithContext(ctx).First(&artifact, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &artifact, nil
}

// Upsert inserts a record under the caller-supplied id, or merge-sets the
// given fields into the existing record. Fields not mentioned stay untouched.
func (r *artifactRepository) Upsert(ctx context.Context, id string, input models.ArtifactInput) (*models.Artifact, bool, error) {
	existing, err := r.GetArtifactByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		artifact := &models.Artifact{
			Id:      id,
			Email:   input.Email,
			Likes:   0,
			LikedBy: models.StringList{},
			Fields:  input.Fields,
		}
		if artifact.Fields == nil {
			artifact.Fields = models.JSONMap{}
		}
		if err := r.Save(ctx, artifact); err != nil {
			return nil, false, err
		}
		return artifact, true, nil
	}

	if input.Email != "" {
		existing.Email = input.Email
	}
	if existing.Fields == nil {
		existing.Fields = models.JSONMap{}
	}
	for k, v := range input.Fields {
		existing.Fields[k] = v
	}

	err = r.db.WithContext(ctx).Model(&models.Artifact{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email":  existing.Email,
			"fields": existing.Fields,
		}).Error
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// UpdateLikeState persists a reconciled like state, conditional on the liker
// set not having moved since it was read. Returns false when another writer
// won the race.
func (r *artifactRepository) UpdateLikeState(ctx context.Context, id string, prior, next models.StringList, likes int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Artifact{}).
		Where("id = ? AND liked_by = ?", id, prior).
		Updates(map[string]interface{}{
			"likes":    likes,
			"liked_by": next,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *artifactRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Artifact{}, "id = ?", id)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
