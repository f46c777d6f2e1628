package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examadmin/internal/app/models"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/app/services"
	"github.com/yigit/examadmin/internal/middleware"
	"github.com/yigit/examadmin/internal/pkg/apperrors"
)

// ExamController handles exam, registration workflow and attendance endpoints
type ExamController struct {
	exams         *services.ExamService
	registrations *services.RegistrationService
	csv           *services.CSVExchangeService
	authz         CourseAuthorizer
	logger        zerolog.Logger
}

// NewExamController creates a new ExamController
func NewExamController(
	exams *services.ExamService,
	registrations *services.RegistrationService,
	csv *services.CSVExchangeService,
	authz CourseAuthorizer,
	logger zerolog.Logger,
) *ExamController {
	return &ExamController{exams: exams, registrations: registrations, csv: csv, authz: authz, logger: logger}
}

// List returns every exam, or the exams of one course
// @Summary List exams
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param courseId query int false "Only exams of this course"
// @Success 200 {object} dto.APIResponse{data=[]dto.ExamResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /exams [get]
func (c *ExamController) List(ctx *gin.Context) {
	var (
		exams []dto.ExamResponse
		err   error
	)
	if raw := ctx.Query("courseId"); raw != "" {
		courseID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || courseID <= 0 {
			middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("courseId must be a positive integer"))
			return
		}
		exams, err = c.exams.ListByCourse(ctx.Request.Context(), courseID)
	} else {
		exams, err = c.exams.List(ctx.Request.Context())
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exams))
}

// Get returns one exam
// @Summary Get exam
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=dto.ExamResponse}
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id} [get]
func (c *ExamController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	exam, err := c.exams.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exam))
}

// Mine returns the exams relevant to the caller
// @Summary List my exams
// @Description Administrators see every exam, staff the exams of their assigned courses, students the exams of their enrolled courses.
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ExamResponse}
// @Router /exams/mine [get]
func (c *ExamController) Mine(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	exams, err := c.exams.Mine(ctx.Request.Context(), user.ID, user.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exams))
}

// Create schedules an exam
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ExamRequest true "Exam"
// @Success 201 {object} dto.APIResponse{data=dto.ExamResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /exams [post]
func (c *ExamController) Create(ctx *gin.Context) {
	var req dto.ExamRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	exam, err := c.exams.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(exam))
}

// Update overwrites an exam
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param request body dto.ExamRequest true "Exam"
// @Success 200 {object} dto.APIResponse{data=dto.ExamResponse}
// @Failure 404 {object} dto.ErrorResponse "Exam or course not found"
// @Router /exams/{id} [put]
func (c *ExamController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ExamRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	exam, err := c.exams.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exam))
}

// Delete removes an exam and its registrations
// @Summary Delete exam
// @Tags exams
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /exams/{id} [delete]
func (c *ExamController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.exams.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Register registers the calling student for an exam
// @Summary Register for exam
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 403 {object} dto.ErrorResponse "Caller is not a student"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 409 {object} dto.ErrorResponse "Already registered or no student profile"
// @Router /exams/{id}/register [post]
func (c *ExamController) Register(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	reg, err := c.registrations.RegisterCurrentStudent(ctx.Request.Context(), user.Email, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(reg))
}

// RegisteredStudents lists registrations still in REGISTERED
// @Summary List registered students
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.RegistrationResponse}
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this course"
// @Router /exams/{id}/registered-students [get]
func (c *ExamController) RegisteredStudents(ctx *gin.Context) {
	c.listByStatus(ctx, models.ExamStatusRegistered)
}

// AttendedStudents lists registrations marked ATTENDED
// @Summary List attended students
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.RegistrationResponse}
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this course"
// @Router /exams/{id}/attended-students [get]
func (c *ExamController) AttendedStudents(ctx *gin.Context) {
	c.listByStatus(ctx, models.ExamStatusAttended)
}

// AbsentStudents lists registrations marked ABSENT
// @Summary List absent students
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.RegistrationResponse}
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this course"
// @Router /exams/{id}/absent-students [get]
func (c *ExamController) AbsentStudents(ctx *gin.Context) {
	c.listByStatus(ctx, models.ExamStatusAbsent)
}

func (c *ExamController) listByStatus(ctx *gin.Context, status models.ExamStatus) {
	id, ok := pathID(ctx, "id")
	if !ok || !canManageExam(ctx, c.authz, id) {
		return
	}
	regs, err := c.registrations.ListByExamAndStatus(ctx.Request.Context(), id, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(regs))
}

// ExportRegisteredStudents downloads REGISTERED students as CSV
// @Summary Export registered students
// @Tags exams
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {file} file "registered.csv"
// @Router /exams/{id}/registered-students/export [get]
func (c *ExamController) ExportRegisteredStudents(ctx *gin.Context) {
	c.exportByStatus(ctx, models.ExamStatusRegistered)
}

// ExportAttendedStudents downloads ATTENDED students as CSV
// @Summary Export attended students
// @Tags exams
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {file} file "attended.csv"
// @Router /exams/{id}/attended-students/export [get]
func (c *ExamController) ExportAttendedStudents(ctx *gin.Context) {
	c.exportByStatus(ctx, models.ExamStatusAttended)
}

// ExportAbsentStudents downloads ABSENT students as CSV
// @Summary Export absent students
// @Tags exams
// @Produce text/csv
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Success 200 {file} file "absent.csv"
// @Router /exams/{id}/absent-students/export [get]
func (c *ExamController) ExportAbsentStudents(ctx *gin.Context) {
	c.exportByStatus(ctx, models.ExamStatusAbsent)
}

func (c *ExamController) exportByStatus(ctx *gin.Context, status models.ExamStatus) {
	id, ok := pathID(ctx, "id")
	if !ok || !canManageExam(ctx, c.authz, id) {
		return
	}
	content, err := c.csv.ExportAttendanceCSV(ctx.Request.Context(), id, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	sendCSV(ctx, fmt.Sprintf("exam-%d-%s.csv", id, strings.ToLower(string(status))), content)
}

// ImportAttendance marks listed students ATTENDED and every other REGISTERED student ABSENT
// @Summary Import attendance
// @Description The first field of each line is a student index. Blank lines are skipped and unknown indexes are reported.
// @Tags exams
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Exam ID"
// @Param file formData file true "Attendance CSV"
// @Success 200 {object} dto.APIResponse{data=dto.AttendanceImportResult}
// @Failure 400 {object} dto.ErrorResponse "Missing file"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this course"
// @Router /exams/{id}/attended-students/import [post]
func (c *ExamController) ImportAttendance(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok || !canManageExam(ctx, c.authz, id) {
		return
	}
	filename, content, ok := readUpload(ctx)
	if !ok {
		return
	}
	result, err := c.csv.ImportAttendanceCSV(ctx.Request.Context(), id, filename, content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
