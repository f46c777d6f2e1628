package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/app/services"
	"github.com/yigit/examadmin/internal/middleware"
)

// CourseController handles course, staff and roster endpoints
type CourseController struct {
	courses *services.CourseService
	staff   *services.StaffAssignmentService
	csv     *services.CSVExchangeService
	authz   CourseAuthorizer
	logger  zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(
	courses *services.CourseService,
	staff *services.StaffAssignmentService,
	csv *services.CSVExchangeService,
	authz CourseAuthorizer,
	logger zerolog.Logger,
) *CourseController {
	return &CourseController{courses: courses, staff: staff, csv: csv, authz: authz, logger: logger}
}

// List returns every course
// @Summary List courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseResponse}
// @Router /courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.courses.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

// Get returns one course
// @Summary Get course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.courses.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course))
}

// Create inserts a course and assigns its staff
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CourseRequest true "Course with professor and assistant ids"
// @Success 201 {object} dto.APIResponse{data=dto.CourseDetailResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 409 {object} dto.ErrorResponse "Course already exists"
// @Failure 422 {object} dto.ErrorResponse "Unknown staff user ids"
// @Router /courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	course, err := c.courses.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(course))
}

// Update overwrites a course and reconciles its staff
// @Summary Update course
// @Description Staff assignments are reconciled against professorIds and assistantIds: matching rows are kept, others deleted, missing ones created.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.CourseRequest true "Course with professor and assistant ids"
// @Success 200 {object} dto.APIResponse{data=dto.CourseDetailResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 422 {object} dto.ErrorResponse "Unknown staff user ids"
// @Router /courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.CourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	course, err := c.courses.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course))
}

// Delete removes a course with its exams, registrations, enrollments and staff
// @Summary Delete course
// @Tags courses
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.courses.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// EnrolledStudents lists a course's enrollments
// @Summary List enrolled students
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.EnrollmentResponse}
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this course"
// @Router /courses/{id}/enrolled-students [get]
func (c *CourseController) EnrolledStudents(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok || !canManageCourse(ctx, c.authz, id) {
		return
	}
	enrollments, err := c.courses.EnrolledStudents(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollments))
}

// AssignedStaff lists a course's staff assignments
// @Summary List assigned staff
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.AssignmentResponse}
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this course"
// @Router /courses/{id}/assigned-staff [get]
func (c *CourseController) AssignedStaff(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok || !canManageCourse(ctx, c.authz, id) {
		return
	}
	assignments, err := c.staff.ListByCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(assignments))
}

// ExportRoster downloads the enrolled students as CSV
// @Summary Export course roster
// @Tags courses
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {file} file "roster.csv"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this course"
// @Router /courses/{id}/export [get]
func (c *CourseController) ExportRoster(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok || !canManageCourse(ctx, c.authz, id) {
		return
	}
	content, err := c.csv.ExportRosterCSV(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	sendCSV(ctx, fmt.Sprintf("course-%d-roster.csv", id), content)
}

// ImportRoster enrolls the students listed in a CSV upload
// @Summary Import course roster
// @Description The first field of each line is a student index. An unknown or blank index aborts the whole import.
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param file formData file true "Roster CSV"
// @Success 200 {object} dto.APIResponse{data=dto.RosterImportResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing file or blank index"
// @Failure 422 {object} dto.ErrorResponse "Unknown student index"
// @Router /courses/{id}/import [post]
func (c *CourseController) ImportRoster(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok || !canManageCourse(ctx, c.authz, id) {
		return
	}
	filename, content, ok := readUpload(ctx)
	if !ok {
		return
	}
	created, err := c.csv.ImportRosterCSV(ctx.Request.Context(), id, filename, content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RosterImportResponse{Created: created}))
}

// RemoveEnrollment deletes one enrollment of a course
// @Summary Remove enrollment
// @Tags courses
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param enrollmentId path int true "Enrollment ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /courses/{id}/enrollments/{enrollmentId} [delete]
func (c *CourseController) RemoveEnrollment(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	enrollmentID, ok := pathID(ctx, "enrollmentId")
	if !ok {
		return
	}
	if err := c.courses.RemoveEnrollment(ctx.Request.Context(), id, enrollmentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// RemoveAssignment deletes one staff assignment of a course
// @Summary Remove staff assignment
// @Tags courses
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param assignmentId path int true "Assignment ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /courses/{id}/assignments/{assignmentId} [delete]
func (c *CourseController) RemoveAssignment(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	assignmentID, ok := pathID(ctx, "assignmentId")
	if !ok {
		return
	}
	if err := c.staff.Remove(ctx.Request.Context(), id, assignmentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
