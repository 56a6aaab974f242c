package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "token"

// ErrUnknownRole is returned when a token carries a role the portal does not know.
var ErrUnknownRole = errors.New("unknown role in token")

// Claims defines the structure of the JWT claims.
type Claims struct {
	Role      models.Role `json:"role"`
	SubjectID string      `json:"sid"`
	jwt.RegisteredClaims
}

// Principal is the verified identity behind a request.
type Principal struct {
	Role      models.Role
	SubjectID utils.SixID
}

// GenerateJWT creates a signed token for the given role and subject.
func GenerateJWT(role models.Role, subjectID utils.SixID, secretKey string, ttl time.Duration) (string, error) {
	if !role.Valid() {
		return "", ErrUnknownRole
	}
	now := time.Now()
	claims := &Claims{
		Role:      role,
		SubjectID: subjectID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   subjectID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT verifies a JWT string and returns the claims if valid.
func ValidateJWT(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid JWT")
	}
	if !claims.Role.Valid() {
		return nil, ErrUnknownRole
	}
	return claims, nil
}

// PrincipalFromToken validates the token and returns the typed identity it carries.
func PrincipalFromToken(tokenString, secretKey string) (*Principal, error) {
	claims, err := ValidateJWT(tokenString, secretKey)
	if err != nil {
		return nil, err
	}
	subjectID, err := utils.ParseSixID(claims.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in JWT: %w", err)
	}
	return &Principal{Role: claims.Role, SubjectID: subjectID}, nil
}
