package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/models/dto"
	"github.com/yigit/facultycredits/internal/app/services"
	"github.com/yigit/facultycredits/internal/middleware"
	"github.com/yigit/facultycredits/internal/pkg/academicyear"
)

// BalanceController serves balances and academic year options
type BalanceController struct {
	balance services.BalanceService
	now     func() time.Time
}

// NewBalanceController creates a new BalanceController. now defaults to time.Now.
func NewBalanceController(balance services.BalanceService, now func() time.Time) *BalanceController {
	if now == nil {
		now = time.Now
	}
	return &BalanceController{
		balance: balance,
		now:     now,
	}
}

// GetBalance returns the balance of a faculty member
// @Summary Get balance
// @Description Sum of approved points, optionally within one academic year
// @Tags balance
// @Produce json
// @Security BearerAuth
// @Param facultyId path int true "Faculty member ID" Format(int64) minimum(1)
// @Param academicYear query string false "Academic year, e.g. 2024-2025"
// @Success 200 {object} dto.APIResponse{data=dto.BalanceResponse} "Balance"
// @Failure 400 {object} dto.ErrorResponse "Invalid academic year"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /faculty/{facultyId}/balance [get]
func (c *BalanceController) GetBalance(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	facultyID, ok := parseIDParam(ctx, "facultyId", "Faculty")
	if !ok {
		return
	}

	year := ctx.Query("academicYear")
	balance, err := c.balance.ComputeBalance(ctx, actor, facultyID, year)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.BalanceResponse{
		FacultyID:    facultyID,
		AcademicYear: year,
		Balance:      balance,
	}))
}

// GetHistory returns approved points grouped by period
// @Summary Get balance history
// @Tags balance
// @Produce json
// @Security BearerAuth
// @Param facultyId path int true "Faculty member ID" Format(int64) minimum(1)
// @Param groupBy query string false "month (default) or academicYear"
// @Success 200 {object} dto.APIResponse{data=dto.HistoryResponse} "History"
// @Failure 400 {object} dto.ErrorResponse "Invalid groupBy"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /faculty/{facultyId}/history [get]
func (c *BalanceController) GetHistory(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	facultyID, ok := parseIDParam(ctx, "facultyId", "Faculty")
	if !ok {
		return
	}

	groupBy := models.GroupBy(ctx.DefaultQuery("groupBy", string(models.GroupByMonth)))
	buckets, err := c.balance.History(ctx, actor, facultyID, groupBy)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.HistoryResponse{
		FacultyID: facultyID,
		GroupBy:   groupBy,
		Buckets:   buckets,
	}))
}

// GetSummary returns the balance with entry counts per status
// @Summary Get balance summary
// @Tags balance
// @Produce json
// @Security BearerAuth
// @Param facultyId path int true "Faculty member ID" Format(int64) minimum(1)
// @Param academicYear query string false "Academic year, e.g. 2024-2025"
// @Success 200 {object} dto.APIResponse{data=models.BalanceSummary} "Summary"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /faculty/{facultyId}/summary [get]
func (c *BalanceController) GetSummary(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	facultyID, ok := parseIDParam(ctx, "facultyId", "Faculty")
	if !ok {
		return
	}

	summary, err := c.balance.Summary(ctx, actor, facultyID, ctx.Query("academicYear"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(summary))
}

// ListAcademicYears returns selectable academic years
// @Summary List academic years
// @Description The current academic year followed by previous ones, newest first
// @Tags academic-years
// @Produce json
// @Param count query int false "Number of years (default 5)"
// @Success 200 {object} dto.APIResponse{data=dto.AcademicYearsResponse} "Academic years"
// @Router /academic-years [get]
func (c *BalanceController) ListAcademicYears(ctx *gin.Context) {
	count, err := strconv.Atoi(ctx.DefaultQuery("count", strconv.Itoa(academicyear.DefaultOptionCount)))
	if err != nil || count < 1 || count > 50 {
		count = academicyear.DefaultOptionCount
	}

	now := c.now()
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.AcademicYearsResponse{
		Current: academicyear.Current(now),
		Options: academicyear.Options(now, count),
	}))
}
