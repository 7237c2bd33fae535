package devtoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Params captures the claims required to mint a token for local and CI environments. No environment
// variables are read so the builder stays deterministic for tooling.
type Params struct {
	UserID       string        // uid/sub (required)
	Email        string        // email claim (required)
	Name         string        // display name (optional)
	TenantID     string        // tenantId claim; required unless IsSuperAdmin
	RoleID       string        // roleId claim (optional)
	IsSuperAdmin bool          // isSuperAdmin custom claim
	ExpiresIn    time.Duration // relative expiry; default 1h if zero
	Issuer       string        // optional; defaults to "posbill-dev"
}

// Claims validates p and returns the payload shared by the unsigned and signed builders.
func Claims(p Params, now time.Time) (map[string]interface{}, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return nil, errors.New("userID is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return nil, errors.New("email is required")
	}
	if !p.IsSuperAdmin && strings.TrimSpace(p.TenantID) == "" {
		return nil, errors.New("tenantID is required for non super-admin tokens")
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	issuer := p.Issuer
	if strings.TrimSpace(issuer) == "" {
		issuer = "posbill-dev"
	}

	payload := map[string]interface{}{
		"iss":          issuer,
		"uid":          p.UserID,
		"sub":          p.UserID,
		"iat":          now.Unix(),
		"exp":          now.Add(expiresIn).Unix(),
		"email":        p.Email,
		"isSuperAdmin": p.IsSuperAdmin,
	}
	if p.Name != "" {
		payload["name"] = p.Name
	}
	if p.TenantID != "" {
		payload["tenantId"] = p.TenantID
	}
	if p.RoleID != "" {
		payload["roleId"] = p.RoleID
	}

	return payload, nil
}

// BuildUnsignedToken returns a JWT string with alg "none" and no signature, accepted by the API when
// AUTH_PROVIDER=dev.
func BuildUnsignedToken(p Params, now time.Time) (string, error) {
	payload, err := Claims(p, now)
	if err != nil {
		return "", err
	}

	header := map[string]interface{}{
		"alg": "none",
		"typ": "JWT",
	}

	headerSegment, err := encodeSegment(header)
	if err != nil {
		return "", err
	}

	payloadSegment, err := encodeSegment(payload)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s.%s", headerSegment, payloadSegment), nil
}

// BuildSignedToken returns an HS256 JWT accepted by the API when AUTH_PROVIDER=jwt.
func BuildSignedToken(p Params, now time.Time, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("secret is required")
	}

	payload, err := Claims(p, now)
	if err != nil {
		return "", err
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(payload)).SignedString(secret)
}

func encodeSegment(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
