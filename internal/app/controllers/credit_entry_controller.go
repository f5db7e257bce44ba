package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/models/dto"
	"github.com/yigit/facultycredits/internal/app/services"
	"github.com/yigit/facultycredits/internal/middleware"
	"github.com/yigit/facultycredits/internal/pkg/helpers"
)

// CreditEntryController handles ledger entries and their appeals
type CreditEntryController struct {
	ledger services.LedgerService
}

// NewCreditEntryController creates a new CreditEntryController
func NewCreditEntryController(ledger services.LedgerService) *CreditEntryController {
	return &CreditEntryController{
		ledger: ledger,
	}
}

// SubmitPositive handles a faculty achievement submission
// @Summary Submit an achievement
// @Description Creates a pending positive entry for the calling faculty member. Points and sign are copied from the credit title.
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitPositiveRequest true "Achievement"
// @Success 201 {object} dto.APIResponse{data=models.CreditEntry} "Entry created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Only faculty members can submit"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credits/positive [post]
func (c *CreditEntryController) SubmitPositive(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req dto.SubmitPositiveRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	entry, err := c.ledger.SubmitPositive(ctx, actor, services.SubmitPositiveInput{
		CreditTitleID: req.CreditTitleID,
		AcademicYear:  req.AcademicYear,
		Title:         req.Title,
		ProofRef:      req.ProofRef,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(entry))
}

// IssueNegative handles an admin remark
// @Summary Issue a remark
// @Description Creates a pending negative entry against a faculty member. Admin only.
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.IssueNegativeRequest true "Remark"
// @Success 201 {object} dto.APIResponse{data=models.CreditEntry} "Entry created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /credits/negative [post]
func (c *CreditEntryController) IssueNegative(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req dto.IssueNegativeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	entry, err := c.ledger.IssueNegative(ctx, actor, services.IssueNegativeInput{
		FacultyID:     req.FacultyID,
		CreditTitleID: req.CreditTitleID,
		AcademicYear:  req.AcademicYear,
		Notes:         req.Notes,
		ProofRef:      req.ProofRef,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(entry))
}

// Decide approves or rejects a pending entry
// @Summary Decide a pending entry
// @Tags credits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit entry ID" Format(int64) minimum(1)
// @Param request body dto.DecisionRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.CreditEntry} "Entry decided"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Entry changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "Entry is not pending"
// @Router /credits/{id}/decision [post]
func (c *CreditEntryController) Decide(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Credit entry")
	if !ok {
		return
	}

	var req dto.DecisionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	entry, err := c.ledger.Decide(ctx, actor, id, services.DecisionInput{Outcome: req.Outcome, Notes: req.Notes})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(entry))
}

// GetEntry retrieves one entry with its appeal
// @Summary Get credit entry
// @Tags credits
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit entry ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.CreditEntry} "Entry"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Router /credits/{id} [get]
func (c *CreditEntryController) GetEntry(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Credit entry")
	if !ok {
		return
	}

	entry, err := c.ledger.GetEntry(ctx, actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(entry))
}

// ListEntries lists entries visible to the caller
// @Summary List credit entries
// @Description Admins see every entry (the review queue is status=pending); faculty members only their own.
// @Tags credits
// @Produce json
// @Security BearerAuth
// @Param facultyId query int false "Faculty member ID"
// @Param status query string false "pending, approved, rejected, appealed, appeal_accepted"
// @Param academicYear query string false "Academic year, e.g. 2024-2025"
// @Param sign query string false "positive or negative"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse} "Entries"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /credits [get]
func (c *CreditEntryController) ListEntries(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	facultyID, ok := parseOptionalIDQuery(ctx, "facultyId")
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	entries, total, err := c.ledger.ListEntries(ctx, actor, models.EntryFilter{
		FacultyID:    facultyID,
		Status:       models.EntryStatus(ctx.Query("status")),
		AcademicYear: ctx.Query("academicYear"),
		Sign:         models.Sign(ctx.Query("sign")),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.PaginatedResponse{
		Items:      entries,
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}))
}

// FileAppeal disputes an approved remark
// @Summary Appeal a remark
// @Description Moves an approved negative entry owned by the caller to appealed and records the appeal.
// @Tags appeals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit entry ID" Format(int64) minimum(1)
// @Param request body dto.FileAppealRequest true "Appeal"
// @Success 201 {object} dto.APIResponse{data=models.Appeal} "Appeal filed"
// @Failure 400 {object} dto.ErrorResponse "Reason too short"
// @Failure 403 {object} dto.ErrorResponse "Not the entry owner"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Appeal already pending"
// @Failure 422 {object} dto.ErrorResponse "Entry cannot be appealed"
// @Router /credits/{id}/appeal [post]
func (c *CreditEntryController) FileAppeal(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Credit entry")
	if !ok {
		return
	}

	var req dto.FileAppealRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	appeal, err := c.ledger.FileAppeal(ctx, actor, id, services.FileAppealInput{Reason: req.Reason, ProofRef: req.ProofRef})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(appeal))
}

// DecideAppeal accepts or rejects the pending appeal of an entry
// @Summary Decide an appeal
// @Description Accepting appends a compensating entry that cancels the remark; rejecting returns the remark to approved.
// @Tags appeals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Credit entry ID" Format(int64) minimum(1)
// @Param request body dto.AppealDecisionRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=services.AppealResult} "Appeal decided"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Entry changed concurrently"
// @Failure 422 {object} dto.ErrorResponse "No pending appeal"
// @Router /credits/{id}/appeal/decision [post]
func (c *CreditEntryController) DecideAppeal(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Credit entry")
	if !ok {
		return
	}

	var req dto.AppealDecisionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.ledger.DecideAppeal(ctx, actor, id, services.AppealDecisionInput{Outcome: req.Outcome, Notes: req.Notes})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result))
}
