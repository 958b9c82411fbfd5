package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/response"
)

// Context keys set by AuthMiddleware.
const (
	ActorKey = "actor"
	RoleKey  = "role"
)

const tokenIssuer = "anggaran-api"

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an access token for subject with the given role.
func GenerateAccessToken(subject string, role models.Role, secret string, ttl time.Duration) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := &JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken validates a signed token and returns its claims.
func ParseAccessToken(tokenString, secret string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid access token")
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("access token is missing subject or role")
	}
	return claims, nil
}

// AuthMiddleware identifies the caller and sets the actor and role in the
// context. A request carrying X-API-Key is checked against serviceKey;
// anything else must present a Bearer token signed with secret.
func AuthMiddleware(secret, serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(apiKeyHeader) != "" {
			if err := checkServiceKey(c, serviceKey); err != nil {
				response.Error(c, err)
				return
			}
			c.Set(ActorKey, ServiceActor)
			c.Set(RoleKey, models.RoleAdmin)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			response.Error(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ActorKey, claims.Subject)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		current, _ := role.(models.Role)
		for _, allowed := range roles {
			if current == allowed {
				c.Next()
				return
			}
		}
		response.Error(c, apperrors.WithMessage(apperrors.ErrForbidden,
			fmt.Sprintf("role %q may not perform this operation", current)))
	}
}
