package models

import "encoding/json"

type ArtifactParams struct {
	Id string `path:"id"`
}

type ListArtifactsParams struct {
	Email string `query:"email"`
}

type LikedArtifactsParams struct {
	Email string `query:"email"`
}

type GetArtifactParams struct {
	Id    string `path:"id"`
	Email string `query:"email"` // viewer, optional
}

// ToggleLikeInput is the PATCH /artifacts/:id/like body.
type ToggleLikeInput struct {
	Id    string `path:"id" json:"-"`
	Email string `json:"email" binding:"required,email"`
	Liked *bool  `json:"liked" binding:"required"`
}

// ArtifactInput is a submitted artifact document: the owner email plus any
// number of opaque fields, kept verbatim.
type ArtifactInput struct {
	Email  string
	Fields JSONMap
}

func (in *ArtifactInput) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if email, ok := raw["email"].(string); ok {
		in.Email = email
	}
	// id/likes/likedBy are store-managed, never taken from the caller
	delete(raw, "id")
	delete(raw, "email")
	delete(raw, "likes")
	delete(raw, "likedBy")
	delete(raw, "isLiked")
	in.Fields = JSONMap(raw)
	return nil
}

// UpsertArtifactInput is the PUT /artifacts/:id body: a partial document
// whose fields are merged into the stored record.
type UpsertArtifactInput struct {
	Id string `path:"id" json:"-"`
	ArtifactInput
}

func (in *UpsertArtifactInput) UnmarshalJSON(data []byte) error {
	return in.ArtifactInput.UnmarshalJSON(data)
}
