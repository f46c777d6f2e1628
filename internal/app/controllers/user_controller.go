package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/app/services"
	"github.com/yigit/examadmin/internal/middleware"
	"github.com/yigit/examadmin/internal/pkg/helpers"
)

// UserController handles user-related operations
type UserController struct {
	userService  services.UserService
	staffService *services.StaffAssignmentService
	csvService   *services.CSVExchangeService
	logger       zerolog.Logger
}

// NewUserController creates a new user controller
func NewUserController(
	userService services.UserService,
	staffService *services.StaffAssignmentService,
	csvService *services.CSVExchangeService,
	logger zerolog.Logger,
) *UserController {
	return &UserController{
		userService:  userService,
		staffService: staffService,
		csvService:   csvService,
		logger:       logger,
	}
}

// GetMyProfile returns the authenticated user's profile
// @Summary Get my profile
// @Description Returns the caller with the student profile and enrollments for students, or course assignments for staff
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MyProfileResponse} "Profile retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/me [get]
func (c *UserController) GetMyProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	profile, err := c.userService.GetMyProfile(ctx.Request.Context(), user.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// ListUsers returns a page of users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse} "Users retrieved successfully"
// @Failure 403 {object} dto.ErrorResponse "Administrator role required"
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	resp, err := c.userService.ListUsers(ctx.Request.Context(), helpers.ParsePageRequest(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListStaff returns every STAFF user
// @Summary List staff users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse} "Staff retrieved successfully"
// @Router /users/staff [get]
func (c *UserController) ListStaff(ctx *gin.Context) {
	c.listByRole(ctx, models.RoleStaff)
}

// ListStudents returns every STUDENT user
// @Summary List student users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.UserResponse} "Students retrieved successfully"
// @Router /users/students [get]
func (c *UserController) ListStudents(ctx *gin.Context) {
	c.listByRole(ctx, models.RoleStudent)
}

func (c *UserController) listByRole(ctx *gin.Context, role models.RoleType) {
	users, err := c.userService.ListByRole(ctx.Request.Context(), role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// GetUserByID retrieves user information by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "User retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUserByID(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// CreateUser creates a user with any role
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "User"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse} "User created"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(user))
}

// UpdateUser overwrites a user
// @Summary Update user
// @Description Overwrites a user. An empty password keeps the current one. Leaving the STUDENT role removes the student profile.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "User"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "User updated"
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user))
}

// DeleteUser removes a user with its tokens, assignments and student profile
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204 "User deleted"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetAssignedCourses lists the courses a user is assigned to
// @Summary List a user's course assignments
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.AssignmentResponse} "Assignments retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/assigned-courses [get]
func (c *UserController) GetAssignedCourses(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	assignments, err := c.staffService.ListByUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(assignments))
}

// ExportUsers downloads every user as CSV
// @Summary Export users
// @Description Passwords are always exported empty
// @Tags users
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file "users.csv"
// @Router /users/export [get]
func (c *UserController) ExportUsers(ctx *gin.Context) {
	content, err := c.csvService.ExportUsersCSV(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	sendCSV(ctx, "users.csv", content)
}

// ImportUsers creates or updates users from a CSV upload
// @Summary Import users
// @Description Rows are matched by email. A failing row is reported and the others are still applied.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV with header firstName,lastName,email,password,academicRole,studentIndex,major"
// @Success 200 {object} dto.APIResponse{data=dto.UserImportResult} "Import report"
// @Failure 400 {object} dto.ErrorResponse "Missing file or header"
// @Router /users/import [post]
func (c *UserController) ImportUsers(ctx *gin.Context) {
	filename, content, ok := readUpload(ctx)
	if !ok {
		return
	}

	result, err := c.csvService.ImportUsersCSV(ctx.Request.Context(), filename, content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
