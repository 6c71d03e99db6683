package middleware

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	problem "github.com/artifacts-gallery/gallery-api/pkg/gallery/helpers/problem"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const principalKey = "principal"

// Principal is the identity resolved from a verified bearer credential.
type Principal struct {
	Email   string
	Subject string
}

// ServiceCredential is the identity-provider credential blob, provided as
// base64-encoded JSON in the environment.
type ServiceCredential struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens against the public half of the service
// credential's signing key. A zero Verifier rejects everything, which lets
// the server boot without identity-provider configuration.
type Verifier struct {
	key *rsa.PublicKey
}

// NewVerifier decodes the base64 JSON credential blob and extracts the
// verification key.
func NewVerifier(credentialB64 string) (*Verifier, error) {
	raw, err := base64.StdEncoding.DecodeString(credentialB64)
	if err != nil {
		return nil, fmt.Errorf("credential is not valid base64: %w", err)
	}
	var cred ServiceCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("credential is not valid JSON: %w", err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cred.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("credential private_key: %w", err)
	}
	return &Verifier{key: &priv.PublicKey}, nil
}

// VerifyCredential maps an Authorization header to a verified principal.
// Missing header, missing Bearer prefix, bad signature, expired token or a
// token without an email claim all come back as Unauthorized.
func (v *Verifier) VerifyCredential(authHeader string) (*Principal, error) {
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, problem.NewUnauthorized("Missing or invalid Authorization header")
	}
	if v == nil || v.key == nil {
		return nil, problem.NewUnauthorized("Identity verification is not configured")
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil || !token.Valid {
		return nil, problem.NewUnauthorized("Invalid or expired access token")
	}
	if claims.Email == "" {
		return nil, problem.NewUnauthorized("Access token has no email claim")
	}

	return &Principal{Email: claims.Email, Subject: claims.Subject}, nil
}

// AuthorizeOwnerScope enforces that a caller only requests records scoped to
// their own verified identity.
func AuthorizeOwnerScope(requestedEmail string, p *Principal) error {
	if p == nil || requestedEmail != p.Email {
		return problem.NewForbidden("email", "email does not match the verified identity")
	}
	return nil
}

// RequireIdentity guards a route group: the bearer token must verify before
// the handler runs. The principal ends up in the request context.
func RequireIdentity(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := v.VerifyCredential(c.GetHeader("Authorization"))
		if err != nil {
			apiErr, ok := err.(problem.APIError)
			if !ok {
				apiErr = problem.NewUnauthorized("Invalid access token")
			}
			c.Header("Content-Type", "application/problem+json")
			c.AbortWithStatusJSON(apiErr.Status, apiErr)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireIdentity, or nil.
func PrincipalFrom(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}
