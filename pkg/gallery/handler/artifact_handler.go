package handler

import (
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/middleware"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/models"
	"github.com/artifacts-gallery/gallery-api/pkg/gallery/services"
	"github.com/gin-gonic/gin"
)

// ArtifactsAPIController binds HTTP requests to the GalleryService
type ArtifactsAPIController struct {
	Service  *services.GalleryService
	Verifier *middleware.Verifier
}

// NewArtifactsAPIController creates a new controller
func NewArtifactsAPIController(s *services.GalleryService, v *middleware.Verifier) *ArtifactsAPIController {
	return &ArtifactsAPIController{Service: s, Verifier: v}
}

// CreateArtifact handles POST /artifacts
func (c *ArtifactsAPIController) CreateArtifact(ctx *gin.Context, body *models.ArtifactInput) (*models.Artifact, error) {
	return c.Service.CreateArtifact(ctx.Request.Context(), *body)
}

// ListArtifacts handles GET /artifacts. The route is open, but asking for an
// owner's artifacts requires a bearer token for that same identity.
func (c *ArtifactsAPIController) ListArtifacts(ctx *gin.Context, p *models.ListArtifactsParams) ([]models.Artifact, error) {
	var principal *middleware.Principal
	if p.Email != "" {
		var err error
		principal, err = c.Verifier.VerifyCredential(ctx.GetHeader("Authorization"))
		if err != nil {
			return nil, err
		}
	}
	return c.Service.ListArtifacts(ctx.Request.Context(), p.Email, principal)
}

// ListLikedArtifacts handles GET /artifacts/liked; RequireIdentity already
// verified the token.
func (c *ArtifactsAPIController) ListLikedArtifacts(ctx *gin.Context, p *models.LikedArtifactsParams) ([]models.Artifact, error) {
	return c.Service.ListLikedArtifacts(ctx.Request.Context(), p.Email, middleware.PrincipalFrom(ctx))
}

// RetrieveArtifact handles GET /artifacts/:id
func (c *ArtifactsAPIController) RetrieveArtifact(ctx *gin.Context, params *models.GetArtifactParams) (*models.ArtifactView, error) {
	return c.Service.GetArtifact(ctx.Request.Context(), params.Id, params.Email)
}

// UpsertArtifact handles PUT /artifacts/:id
func (c *ArtifactsAPIController) UpsertArtifact(ctx *gin.Context, body *models.UpsertArtifactInput) (*models.UpsertResult, error) {
	return c.Service.UpsertArtifact(ctx.Request.Context(), body.Id, body.ArtifactInput)
}

// ToggleLike handles PATCH /artifacts/:id/like
func (c *ArtifactsAPIController) ToggleLike(ctx *gin.Context, body *models.ToggleLikeInput) (*models.LikeStatus, error) {
	return c.Service.ToggleLike(ctx.Request.Context(), body.Id, body.Email, *body.Liked)
}

// DeleteArtifact handles DELETE /artifacts/:id
func (c *ArtifactsAPIController) DeleteArtifact(ctx *gin.Context, params *models.ArtifactParams) (*models.DeleteResult, error) {
	return c.Service.DeleteArtifact(ctx.Request.Context(), params.Id)
}
