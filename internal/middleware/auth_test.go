package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"quizhub/internal/service"

	"github.com/gin-gonic/gin"
)

func newTestRouter(jwtService *service.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	jwtService := service.NewJWTService("middleware-test-secret", 1)
	router := newTestRouter(jwtService)

	token, err := jwtService.GenerateToken("abc123")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	foreign, err := service.NewJWTService("other-secret", 1).GenerateToken("abc123")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	testCases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}
