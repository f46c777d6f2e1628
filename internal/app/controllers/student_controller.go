package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/app/services"
	"github.com/yigit/examadmin/internal/middleware"
)

// StudentController handles student profile endpoints
type StudentController struct {
	students      *services.StudentService
	registrations *services.RegistrationService
}

// NewStudentController creates a new StudentController
func NewStudentController(students *services.StudentService, registrations *services.RegistrationService) *StudentController {
	return &StudentController{students: students, registrations: registrations}
}

// List returns every student
// @Summary List students
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentResponse}
// @Router /students [get]
func (c *StudentController) List(ctx *gin.Context) {
	students, err := c.students.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(students))
}

// Get returns one student
// @Summary Get student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	student, err := c.students.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// GetByIndex finds a student by index
// @Summary Find student by index
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param index path string true "Student index"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/index/{index} [get]
func (c *StudentController) GetByIndex(ctx *gin.Context) {
	student, err := c.students.GetByIndex(ctx.Request.Context(), ctx.Param("index"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// Create attaches a student profile to a STUDENT user
// @Summary Create student profile
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentRequest true "Student"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation error or user is not a STUDENT"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Profile or index already exists"
// @Router /students [post]
func (c *StudentController) Create(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	student, err := c.students.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(student))
}

// Update overwrites index and major
// @Summary Update student profile
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param request body dto.UpdateStudentRequest true "Student"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 409 {object} dto.ErrorResponse "Index already exists"
// @Router /students/{id} [put]
func (c *StudentController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	student, err := c.students.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// Delete removes a student profile and keeps its user
// @Summary Delete student profile
// @Tags students
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [delete]
func (c *StudentController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.students.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// DeleteWithUser removes a student profile together with its user
// @Summary Delete student and user
// @Tags students
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/with-user [delete]
func (c *StudentController) DeleteWithUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.students.DeleteWithUser(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ExamRegistrations lists a student's exam registrations
// @Summary List a student's exam registrations
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.RegistrationResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/exam-registrations [get]
func (c *StudentController) ExamRegistrations(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	regs, err := c.registrations.ListByStudent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(regs))
}

// CourseEnrollments lists the courses a student is enrolled in
// @Summary List a student's course enrollments
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.EnrollmentResponse}
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/course-enrollments [get]
func (c *StudentController) CourseEnrollments(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	enrollments, err := c.students.Enrollments(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollments))
}
