package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/app/services"
	"github.com/yigit/examadmin/internal/middleware"
)

// RegistrationController exposes administrative registration CRUD
type RegistrationController struct {
	registrations *services.RegistrationService
}

// NewRegistrationController creates a new RegistrationController
func NewRegistrationController(registrations *services.RegistrationService) *RegistrationController {
	return &RegistrationController{registrations: registrations}
}

// List returns every registration
// @Summary List registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RegistrationResponse}
// @Router /registrations [get]
func (c *RegistrationController) List(ctx *gin.Context) {
	regs, err := c.registrations.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(regs))
}

// Get returns one registration
// @Summary Get registration
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 404 {object} dto.ErrorResponse "Registration not found"
// @Router /registrations/{id} [get]
func (c *RegistrationController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	reg, err := c.registrations.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reg))
}

// Create inserts a registration with an explicit status
// @Summary Create registration
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegistrationRequest true "Registration"
// @Success 201 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 409 {object} dto.ErrorResponse "Already registered"
// @Failure 422 {object} dto.ErrorResponse "Unknown exam or student"
// @Router /registrations [post]
func (c *RegistrationController) Create(ctx *gin.Context) {
	var req dto.RegistrationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	reg, err := c.registrations.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(reg))
}

// Update overwrites a registration
// @Summary Update registration
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param request body dto.RegistrationRequest true "Registration"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationResponse}
// @Failure 404 {object} dto.ErrorResponse "Registration not found"
// @Router /registrations/{id} [put]
func (c *RegistrationController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.RegistrationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	reg, err := c.registrations.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reg))
}

// Delete removes a registration
// @Summary Delete registration
// @Tags registrations
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Registration not found"
// @Router /registrations/{id} [delete]
func (c *RegistrationController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.registrations.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
