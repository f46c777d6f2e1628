package middleware

import (
	"github.com/gin-gonic/gin"
)

// BindJSON binds the request body into obj and writes a 400 on failure.
// It returns false when the handler should stop.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		AbortWithValidationError(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters into obj and writes a 400 on failure
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		AbortWithValidationError(c, err)
		return false
	}
	return true
}
