package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examadmin/internal/app/models/dto"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultPage     = 1 // Default page is 1-based
)

// ParsePageRequest extracts pagination parameters from the query string.
// Invalid or out-of-range values fall back to the defaults.
func ParsePageRequest(c *gin.Context) dto.PageRequest {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return dto.PageRequest{Page: page, Size: size}
}
