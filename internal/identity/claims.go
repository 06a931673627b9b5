package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GroupsClaim is the claim carrying group membership; GroupsClaimFallback is
// read when it is absent.
const (
	GroupsClaim         = "cognito:groups"
	GroupsClaimFallback = "groups"
)

// Claims are the identity fields read from an ID token.
type Claims struct {
	Email     string
	Name      string
	Groups    []string
	ExpiresAt time.Time
}

// Expired reports whether the token expired before now. Tokens without exp
// never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes the token payload without verifying its signature; the
// backend verifies every request.
func ParseClaims(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("parse id token: %w", err)
	}

	claims := Claims{
		Email:  stringClaim(mapClaims, "email"),
		Name:   stringClaim(mapClaims, "name"),
		Groups: groupsClaim(mapClaims),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func groupsClaim(claims jwt.MapClaims) []string {
	raw, ok := claims[GroupsClaim]
	if !ok {
		raw = claims[GroupsClaimFallback]
	}
	switch v := raw.(type) {
	case []any:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}
		return groups
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
