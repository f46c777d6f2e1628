package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp
}

func TestHandleAPIErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"validation", apperrors.NewValidationError("semester is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"reference", apperrors.NewReferenceNotFoundError("User", "9"), http.StatusUnprocessableEntity, dto.ErrorCodeReferenceNotFound},
		{"conflict", apperrors.ErrAlreadyRegistered, http.StatusConflict, dto.ErrorCodeConflict},
		{"wrapped conflict", fmt.Errorf("register: %w", apperrors.ErrAlreadyEnrolled), http.StatusConflict, dto.ErrorCodeConflict},
		{"forbidden", apperrors.NewForbiddenError("only students can register"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"not found", apperrors.ErrExamNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"invalid state", apperrors.NewInvalidStateError("no student profile"), http.StatusConflict, dto.ErrorCodeInvalidState},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"expired", auth.ErrExpiredToken, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"reset token", apperrors.ErrPasswordResetTokenUsed, http.StatusBadRequest, dto.ErrorCodeInvalidToken},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			HandleAPIError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestHandleAPIErrorUsesCustomMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HandleAPIError(c, apperrors.NewReferenceNotFoundError("Student", "221033"))

	resp := decodeError(t, w)
	assert.Equal(t, "Student not found: 221033", resp.Error.Message)
}

type fakeValidator struct {
	claims *auth.Claims
	err    error
}

func (f fakeValidator) ValidateAndExtractClaims(string) (*auth.Claims, error) {
	return f.claims, f.err
}

func newAuthRouter(v TokenValidator, roles ...models.RoleType) *gin.Engine {
	m := NewAuthMiddleware(v)
	r := gin.New()
	handlers := []gin.HandlerFunc{m.JWTAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, m.RoleRequired(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		u, ok := GetCurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, "%d:%s", u.ID, u.Role)
	})
	r.GET("/p", handlers...)
	return r
}

func TestJWTAuthSetsCurrentUser(t *testing.T) {
	r := newAuthRouter(fakeValidator{claims: &auth.Claims{UserID: 4, Email: "s@uni.edu", RoleType: "STUDENT"}})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4:STUDENT", w.Body.String())
}

func TestJWTAuthRejectsMissingAndExpired(t *testing.T) {
	r := newAuthRouter(fakeValidator{err: auth.ErrExpiredToken})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, w).Error.Code)
}

func TestRoleRequired(t *testing.T) {
	v := fakeValidator{claims: &auth.Claims{UserID: 2, RoleType: "STAFF"}}

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer t")

	w := httptest.NewRecorder()
	newAuthRouter(v, models.RoleAdministrator).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	newAuthRouter(v, models.RoleStaff, models.RoleAdministrator).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindJSONReportsFieldErrors(t *testing.T) {
	r := gin.New()
	r.POST("/courses", func(c *gin.Context) {
		var req dto.CourseRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/courses",
		strings.NewReader(`{"courseCode":"VP","semester":7,"academicYear":2025}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "courseName", resp.Error.Field)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeBadRequest, decodeError(t, w).Error.Code)
}

func TestRateLimitDisabledWithoutClient(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(nil, RateLimitConfig{Requests: 1}), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
