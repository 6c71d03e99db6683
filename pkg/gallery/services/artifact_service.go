package services

import (
	"context"
	"log"

	problem "github.com/artifacts-gallery/gallery-api/pkg/gallery/helpers/problem"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/middleware"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/models"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// toggleAttempts bounds the compare-and-swap loop when concurrent toggles
// hit the same artifact.
const toggleAttempts = 3

// GalleryService implementeert de artifact store gateway en de like
// reconciliation engine bovenop de repository.
type GalleryService struct {
	repo repositories.ArtifactRepository
}

// NewGalleryService Constructor-functie
func NewGalleryService(repo repositories.ArtifactRepository) *GalleryService {
	return &GalleryService{repo: repo}
}

// CreateArtifact persists a new submission. The store assigns the id and the
// like state always starts empty, whatever the caller sent.
func (s *GalleryService) CreateArtifact(ctx context.Context, input models.ArtifactInput) (*models.Artifact, error) {
	artifact := &models.Artifact{
		Id:      uuid.New().String(),
		Email:   input.Email,
		Likes:   0,
		LikedBy: models.StringList{},
		Fields:  input.Fields,
	}
	if artifact.Fields == nil {
		artifact.Fields = models.JSONMap{}
	}
	if err := s.repo.Save(ctx, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// ListArtifacts returns every artifact, or just the verified caller's own
// when an owner email is requested.
func (s *GalleryService) ListArtifacts(ctx context.Context, ownerEmail string, p *middleware.Principal) ([]models.Artifact, error) {
	if ownerEmail == "" {
		return s.repo.AllArtifacts(ctx)
	}
	if err := middleware.AuthorizeOwnerScope(ownerEmail, p); err != nil {
		return nil, err
	}
	return s.repo.FindByOwner(ctx, ownerEmail)
}

// ListLikedArtifacts returns the artifacts the verified caller has liked.
// An absent email and a failing store query both yield an empty sequence,
// never an error; that leniency is part of the read path's contract.
func (s *GalleryService) ListLikedArtifacts(ctx context.Context, viewerEmail string, p *middleware.Principal) ([]models.Artifact, error) {
	if viewerEmail == "" {
		return []models.Artifact{}, nil
	}
	if err := middleware.AuthorizeOwnerScope(viewerEmail, p); err != nil {
		return nil, err
	}
	artifacts, err := s.repo.FindLikedBy(ctx, viewerEmail)
	if err != nil {
		log.Printf("[WARN] liked query failed for %s: %v", viewerEmail, err)
		return []models.Artifact{}, nil
	}
	return artifacts, nil
}

// GetArtifact fetches one artifact annotated with the viewer-relative
// isLiked flag. An empty viewer email always reads as not liked.
func (s *GalleryService) GetArtifact(ctx context.Context, id, viewerEmail string) (*models.ArtifactView, error) {
	artifact, err := s.repo.GetArtifactByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, problem.NewNotFound(id, "Artifact not found")
	}
	return &models.ArtifactView{
		Artifact: *artifact,
		IsLiked:  viewerEmail != "" && artifact.LikedBy.Contains(viewerEmail),
	}, nil
}

// UpsertArtifact merge-sets fields into the record at id, creating it under
// that id when absent.
func (s *GalleryService) UpsertArtifact(ctx context.Context, id string, input models.ArtifactInput) (*models.UpsertResult, error) {
	artifact, created, err := s.repo.Upsert(ctx, id, input)
	if err != nil {
		return nil, err
	}
	return &models.UpsertResult{Id: artifact.Id, Created: created}, nil
}

// DeleteArtifact removes the record. Unknown ids report zero deletions
// rather than an error.
func (s *GalleryService) DeleteArtifact(ctx context.Context, id string) (*models.DeleteResult, error) {
	count, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.DeleteResult{DeletedCount: count}, nil
}

// reconcileLike computes the new like state for a single toggle. The counter
// is recomputed from the deduplicated set, so it can never go negative and a
// drifted record heals on its next toggle instead of waiting for the audit.
func reconcileLike(likedBy models.StringList, likes int, viewerEmail string, liked bool) (models.StringList, int, bool) {
	isLiked := likedBy.Contains(viewerEmail)
	switch {
	case liked && !isLiked:
		next := append(likedBy.Dedup(), viewerEmail)
		return next, len(next), true
	case !liked && isLiked:
		next := likedBy.Dedup().Without(viewerEmail)
		return next, len(next), true
	default:
		return likedBy, likes, false
	}
}

// ToggleLike applies an idempotent like/unlike for one viewer. The persist
// is conditional on the liker set still matching what was read, retried a
// few times so concurrent toggles on the same artifact don't lose updates.
func (s *GalleryService) ToggleLike(ctx context.Context, id, viewerEmail string, liked bool) (*models.LikeStatus, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		artifact, err := s.repo.GetArtifactByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if artifact == nil {
			return nil, problem.NewNotFound(id, "Artifact not found")
		}

		next, likes, changed := reconcileLike(artifact.LikedBy, artifact.Likes, viewerEmail, liked)
		if !changed {
			return &models.LikeStatus{Likes: artifact.Likes, IsLiked: liked}, nil
		}

		ok, err := s.repo.UpdateLikeState(ctx, id, artifact.LikedBy, next, likes)
		if err != nil {
			return nil, err
		}
		if ok {
			return &models.LikeStatus{Likes: likes, IsLiked: next.Contains(viewerEmail)}, nil
		}
		// liker set moved underneath us, re-read and reapply
	}
	return nil, problem.NewInternalServerError("like state is contended, try again")
}

// AuditLikeCounters repairs every artifact whose counter disagrees with its
// deduplicated liker set. Runs from the daily job; fan-out is capped so a
// large gallery doesn't flood the store.
func (s *GalleryService) AuditLikeCounters(ctx context.Context) error {
	artifacts, err := s.repo.AllArtifacts(ctx)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(4)
	g, ctx := errgroup.WithContext(ctx)
	repaired := 0
	for _, artifact := range artifacts {
		deduped := artifact.LikedBy.Dedup()
		if artifact.Likes == len(deduped) && len(deduped) == len(artifact.LikedBy) {
			continue
		}
		repaired++

		a := artifact
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			next := a.LikedBy.Dedup()
			ok, err := s.repo.UpdateLikeState(ctx, a.Id, a.LikedBy, next, len(next))
			if err != nil {
				return err
			}
			if !ok {
				// a live toggle got there first, leave it alone
				log.Printf("[INFO] audit skipped contended artifact %s", a.Id)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if repaired > 0 {
		log.Printf("[INFO] like audit repaired %d of %d artifacts", repaired, len(artifacts))
	}
	return nil
}
