/*
 * Artifacts Gallery API v1
 *
 * Backend van de Artifacts Gallery (user-submitted artifact records)
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Artifact is the sole persisted entity: a user-submitted record with an
// owner, a denormalized like counter and the set of viewers that liked it.
// All other submitted fields are opaque and pass through unchanged.
type Artifact struct {
	Id      string     `gorm:"column:id;primaryKey" json:"id"`
	Email   string     `gorm:"column:email;index" json:"email,omitempty"`
	Likes   int        `gorm:"column:likes" json:"likes"`
	LikedBy StringList `gorm:"column:liked_by;type:text" json:"likedBy"`
	Fields  JSONMap    `gorm:"column:fields;type:text" json:"-"`
}

// ArtifactView is de externe view van een Artifact: the record plus the
// viewer-relative isLiked annotation.
type ArtifactView struct {
	Artifact
	IsLiked bool `json:"isLiked"`
}

// LikeStatus is the result of a like toggle.
type LikeStatus struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}

// DeleteResult reports how many records a delete affected. Deleting an
// absent id is not an error, it simply affects zero records.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

// UpsertResult reports whether a PUT inserted a new record or merged into an
// existing one.
type UpsertResult struct {
	Id      string `json:"id"`
	Created bool   `json:"created"`
}

// MarshalJSON flattens the opaque Fields into the top-level object so callers
// get back the same document shape they submitted.
func (a Artifact) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.Fields)+4)
	for k, v := range a.Fields {
		out[k] = v
	}
	out["id"] = a.Id
	if a.Email != "" {
		out["email"] = a.Email
	}
	out["likes"] = a.Likes
	out["likedBy"] = a.LikedBy
	return json.Marshal(out)
}

// MarshalJSON flattens the embedded Artifact and appends isLiked.
func (v ArtifactView) MarshalJSON() ([]byte, error) {
	raw, err := v.Artifact.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out["isLiked"] = v.IsLiked
	return json.Marshal(out)
}

// StringList is a JSON-encoded text column holding a set of identities.
type StringList []string

// Contains reports set membership.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// Without returns a copy with every occurrence of s removed.
func (l StringList) Without(s string) StringList {
	out := make(StringList, 0, len(l))
	for _, v := range l {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// Dedup returns a copy with duplicates removed, first occurrence wins.
func (l StringList) Dedup() StringList {
	seen := make(map[string]struct{}, len(l))
	out := make(StringList, 0, len(l))
	for _, v := range l {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSONColumn(src, (*[]string)(l))
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// JSONMap is a JSON-encoded text column holding opaque owner-supplied fields.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}
	b, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src interface{}) error {
	return scanJSONColumn(src, (*map[string]interface{})(m))
}

func scanJSONColumn(src, dst interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
