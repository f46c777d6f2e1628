package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		query string
		page  int
		size  int
	}{
		{"/", 1, DefaultPageSize},
		{"/?page=3&size=5", 3, 5},
		{"/?page=0&size=500", 1, DefaultPageSize},
		{"/?page=x&size=y", 1, DefaultPageSize},
	}
	for _, tt := range tests {
		p := ParsePageRequest(testContext(tt.query))
		assert.Equal(t, tt.page, p.Page, tt.query)
		assert.Equal(t, tt.size, p.Size, tt.query)
	}
}

func TestParseIDParam(t *testing.T) {
	c := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "42"}, {Key: "bad", Value: "-1"}}

	id, err := ParseIDParam(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseIDParam(c, "bad")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	_, err = ParseIDParam(c, "missing")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 15*time.Minute, ParseDuration("15m", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("soon", time.Hour))
}
