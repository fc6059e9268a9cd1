package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// InviteService issues and verifies signed table-invite tokens. A token ties
// an invite code to a match so joining by code cannot be replayed against a
// different table.
type InviteService struct {
	secret string
	issuer string
	ttl    time.Duration
}

// NewInviteService constructs an InviteService. ttl <= 0 defaults to one hour.
func NewInviteService(secret, issuer string, ttl time.Duration) *InviteService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &InviteService{secret: secret, issuer: issuer, ttl: ttl}
}

// GenerateToken signs an invite token for the given match and invite code.
func (s *InviteService) GenerateToken(matchID, code, userID string) (string, error) {
	if s == nil || s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("invite service config is incomplete")
	}
	if matchID == "" || code == "" {
		return "", fmt.Errorf("match id and invite code are required")
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"exp": time.Now().Add(s.ttl).Unix(),
		"mid": matchID,
		"cod": code,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken validates an invite token and returns the match ID and invite
// code it was issued for.
func (s *InviteService) VerifyToken(tokenString string) (matchID, code string, err error) {
	if s == nil || s.secret == "" {
		return "", "", fmt.Errorf("invite service config is incomplete")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid invite token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid invite token claims")
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return "", "", fmt.Errorf("invite token issuer mismatch")
	}
	matchID, _ = claims["mid"].(string)
	code, _ = claims["cod"].(string)
	if matchID == "" || code == "" {
		return "", "", fmt.Errorf("invite token missing match claims")
	}
	return matchID, code, nil
}
