package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/models/dto"
	"github.com/yigit/facultycredits/internal/app/services"
	"github.com/yigit/facultycredits/internal/middleware"
)

// CreditTitleController handles catalog operations
type CreditTitleController struct {
	catalog services.CatalogService
}

// NewCreditTitleController creates a new CreditTitleController
func NewCreditTitleController(catalog services.CatalogService) *CreditTitleController {
	return &CreditTitleController{
		catalog: catalog,
	}
}

// CreateTitle handles credit title creation
// @Summary Create a credit title
// @Description Adds a title with fixed signed points to the catalog. Admin only.
// @Tags credit-titles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCreditTitleRequest true "Credit title"
// @Success 201 {object} dto.APIResponse{data=models.CreditTitle} "Credit title created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data or duplicate active title"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credit-titles [post]
func (c *CreditTitleController) CreateTitle(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateCreditTitleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	title, err := c.catalog.CreateTitle(ctx, actor, services.CreateTitleInput{
		Title:       req.Title,
		Points:      req.Points,
		Sign:        req.Sign,
		Description: req.Description,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(title))
}

// ListTitles lists the catalog
// @Summary List credit titles
// @Description Lists catalog titles, optionally only active ones of one sign
// @Tags credit-titles
// @Produce json
// @Security BearerAuth
// @Param sign query string false "positive or negative"
// @Param active query bool false "only active titles (default true)"
// @Success 200 {object} dto.APIResponse{data=[]models.CreditTitle} "Credit titles"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credit-titles [get]
func (c *CreditTitleController) ListTitles(ctx *gin.Context) {
	activeOnly, err := strconv.ParseBool(ctx.DefaultQuery("active", "true"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid active filter")
		errorDetail = errorDetail.WithDetails("active must be true or false").WithField("active")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	titles, err := c.catalog.ListTitles(ctx, models.TitleFilter{
		Sign:       models.Sign(ctx.Query("sign")),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(titles))
}

// GetTitle retrieves one credit title
// @Summary Get credit title
// @Tags credit-titles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit title ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.CreditTitle} "Credit title"
// @Failure 400 {object} dto.ErrorResponse "Invalid ID"
// @Failure 404 {object} dto.ErrorResponse "Not found"
// @Router /credit-titles/{id} [get]
func (c *CreditTitleController) GetTitle(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Credit title")
	if !ok {
		return
	}

	title, err := c.catalog.GetTitle(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(title))
}

// DeactivateTitle retires a credit title
// @Summary Deactivate credit title
// @Description Hides a title from new submissions. Existing entries keep their snapshot. Admin only.
// @Tags credit-titles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit title ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Credit title deactivated"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Not found"
// @Router /credit-titles/{id}/deactivate [post]
func (c *CreditTitleController) DeactivateTitle(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Credit title")
	if !ok {
		return
	}

	if err := c.catalog.DeactivateTitle(ctx, actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Credit title deactivated"}))
}
