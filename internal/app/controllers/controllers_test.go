package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/middleware"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenTable map[string]*auth.Claims

func (t tokenTable) ValidateAndExtractClaims(token string) (*auth.Claims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

var testTokens = tokenTable{
	"admin":  {UserID: 1, Email: "admin@examadmin.local", RoleType: string(models.RoleAdministrator)},
	"staff":  {UserID: 2, Email: "prof@examadmin.local", RoleType: string(models.RoleStaff)},
	"intern": {UserID: 3, Email: "other@examadmin.local", RoleType: string(models.RoleStaff)},
}

// courseOwners maps course id to the staff user assigned to it
type courseOwners map[int64]int64

func (o courseOwners) CanManageCourse(_ context.Context, userID int64, role models.RoleType, courseID int64) error {
	if role == models.RoleAdministrator || o[courseID] == userID {
		return nil
	}
	return apperrors.NewForbiddenError("you are not assigned to this course")
}

func (o courseOwners) CanManageExam(ctx context.Context, userID int64, role models.RoleType, examID int64) error {
	// exams share ids with their course in these tests
	return o.CanManageCourse(ctx, userID, role, examID)
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	mw := middleware.NewAuthMiddleware(testTokens)
	authz := courseOwners{7: 2}

	r.GET("/items/:id", func(ctx *gin.Context) {
		id, ok := pathID(ctx, "id")
		if !ok {
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(id))
	})
	r.GET("/courses/:id/roster", mw.JWTAuth(), func(ctx *gin.Context) {
		id, ok := pathID(ctx, "id")
		if !ok || !canManageCourse(ctx, authz, id) {
			return
		}
		sendCSV(ctx, "roster.csv", []byte("studentIndex\n201001\n"))
	})
	r.POST("/upload", func(ctx *gin.Context) {
		name, content, ok := readUpload(ctx)
		if !ok {
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"name": name, "content": string(content)})
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPathID(t *testing.T) {
	r := newTestRouter()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Data)

	for _, bad := range []string{"abc", "0", "-3"} {
		w = serve(r, httptest.NewRequest(http.MethodGet, "/items/"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestCourseScopedAccess(t *testing.T) {
	r := newTestRouter()
	get := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/courses/7/roster", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return serve(r, req)
	}

	w := get("staff")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="roster.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "studentIndex\n201001\n", w.Body.String())

	assert.Equal(t, http.StatusOK, get("admin").Code)
	assert.Equal(t, http.StatusForbidden, get("intern").Code)
	assert.Equal(t, http.StatusUnauthorized, get("").Code)
	assert.Equal(t, http.StatusUnauthorized, get("forged").Code)
}

func TestReadUpload(t *testing.T) {
	r := newTestRouter()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "attendance.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("201001\n201002\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "attendance.csv", got["name"])
	assert.Equal(t, "201001\n201002\n", got["content"])
}

func TestReadUploadMissingField(t *testing.T) {
	r := newTestRouter()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	cases := []struct {
		name     string
		ping     error
		status   int
		database string
	}{
		{"up", nil, http.StatusOK, "up"},
		{"db down", errors.New("connection refused"), http.StatusServiceUnavailable, "down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthController(pingFunc(func(context.Context) error { return tc.ping }), nil)
			r := gin.New()
			r.GET("/health", h.Health)

			w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tc.status, w.Code)

			var resp struct {
				Data map[string]string `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.database, resp.Data["database"])
			assert.Equal(t, "disabled", resp.Data["redis"])
		})
	}
}
