package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/homefoods/backend/internal/types"
)

type stubValidator map[string]*types.TokenClaims

func (v stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, errors.New("token is malformed")
}

func claims(subject, role string) *types.TokenClaims {
	return &types.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}, Role: role}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := stubValidator{
		"admin-token": claims("ops@homefoods", types.RoleAdmin),
		"guest-token": claims("guest", "viewer"),
	}

	r := gin.New()
	r.POST("/foods", AuthMiddleware(validator), RequireRole(types.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(SubjectKey), "role": c.GetString(RoleKey)})
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"error":"missing authorization header"}`},
		{"wrong scheme", "Basic admin-token", http.StatusUnauthorized, `{"error":"invalid authorization header format"}`},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, `{"error":"token is malformed"}`},
		{"wrong role", "Bearer guest-token", http.StatusForbidden, `{"error":"forbidden: admin access required"}`},
		{"admin", "Bearer admin-token", http.StatusOK, `{"subject":"ops@homefoods","role":"admin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/foods", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := serve(r, req)
			assert.Equal(t, tt.status, rr.Code)
			assert.JSONEq(t, tt.body, rr.Body.String())
		})
	}
}
