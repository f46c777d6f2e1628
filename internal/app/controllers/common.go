package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/middleware"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
	"github.com/yigit/examadmin/internal/pkg/helpers"
)

// MaxUploadSize bounds CSV uploads
const MaxUploadSize = 10 << 20

// CourseAuthorizer decides whether the caller may manage a course or exam
type CourseAuthorizer interface {
	CanManageCourse(ctx context.Context, userID int64, role models.RoleType, courseID int64) error
	CanManageExam(ctx context.Context, userID int64, role models.RoleType, examID int64) error
}

// pathID parses a path id and writes a 400 when it is invalid
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := helpers.ParseIDParam(ctx, name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, false
	}
	return id, true
}

// currentUser returns the authenticated caller or writes a 401
func currentUser(ctx *gin.Context) (middleware.CurrentUser, bool) {
	user, ok := middleware.GetCurrentUser(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return middleware.CurrentUser{}, false
	}
	return user, true
}

// canManageCourse writes a 403 unless the caller is an administrator or assigned to the course
func canManageCourse(ctx *gin.Context, authz CourseAuthorizer, courseID int64) bool {
	user, ok := currentUser(ctx)
	if !ok {
		return false
	}
	if err := authz.CanManageCourse(ctx.Request.Context(), user.ID, user.Role, courseID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return false
	}
	return true
}

// canManageExam is canManageCourse for the exam's course
func canManageExam(ctx *gin.Context, authz CourseAuthorizer, examID int64) bool {
	user, ok := currentUser(ctx)
	if !ok {
		return false
	}
	if err := authz.CanManageExam(ctx.Request.Context(), user.ID, user.Role, examID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return false
	}
	return true
}

// readUpload reads the multipart "file" field
func readUpload(ctx *gin.Context) (string, []byte, bool) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("multipart field \"file\" is required"))
		return "", nil, false
	}
	if fh.Size > MaxUploadSize {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(fmt.Sprintf("file exceeds %d bytes", MaxUploadSize)))
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("failed to open upload: %w", err))
		return "", nil, false
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadSize))
	if err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("failed to read upload: %w", err))
		return "", nil, false
	}
	return fh.Filename, content, true
}

// sendCSV writes content as a CSV attachment
func sendCSV(ctx *gin.Context, filename string, content []byte) {
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", content)
}
