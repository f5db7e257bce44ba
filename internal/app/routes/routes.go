package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/facultycredits/internal/app/controllers"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/middleware"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	CreditTitle *controllers.CreditTitleController
	CreditEntry *controllers.CreditEntryController
	Balance     *controllers.BalanceController
	Support     *controllers.SupportController
}

// NotificationStream upgrades a request to a notification websocket
type NotificationStream interface {
	HandleConnection(c *gin.Context)
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrls Controllers,
	authMiddleware *middleware.AuthMiddleware,
	stream NotificationStream,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/academic-years", ctrls.Balance.ListAcademicYears)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)

	creditTitles := authenticated.Group("/credit-titles")
	{
		creditTitles.GET("", ctrls.CreditTitle.ListTitles)
		creditTitles.GET("/:id", ctrls.CreditTitle.GetTitle)

		creditTitles.POST("", adminOnly, ctrls.CreditTitle.CreateTitle)
		creditTitles.POST("/:id/deactivate", adminOnly, ctrls.CreditTitle.DeactivateTitle)
	}

	credits := authenticated.Group("/credits")
	{
		credits.GET("", ctrls.CreditEntry.ListEntries)
		credits.GET("/:id", ctrls.CreditEntry.GetEntry)

		// Faculty submissions; the service rejects non-faculty callers
		credits.POST("/positive", ctrls.CreditEntry.SubmitPositive)
		credits.POST("/:id/appeal", ctrls.CreditEntry.FileAppeal)

		credits.POST("/negative", adminOnly, ctrls.CreditEntry.IssueNegative)
		credits.POST("/:id/decision", adminOnly, ctrls.CreditEntry.Decide)
		credits.POST("/:id/appeal/decision", adminOnly, ctrls.CreditEntry.DecideAppeal)
	}

	faculty := authenticated.Group("/faculty/:facultyId")
	{
		faculty.GET("/balance", ctrls.Balance.GetBalance)
		faculty.GET("/history", ctrls.Balance.GetHistory)
		faculty.GET("/summary", ctrls.Balance.GetSummary)
	}

	proofs := authenticated.Group("/proofs")
	{
		proofs.POST("", ctrls.Support.UploadProof)
		proofs.GET("/:name", ctrls.Support.DownloadProof)
		proofs.DELETE("/:name", adminOnly, ctrls.Support.DeleteProof)
	}

	authenticated.POST("/recommendations", ctrls.Support.Recommend)

	// Browsers cannot set headers on a websocket handshake; JWTAuth also reads ?token=
	authenticated.GET("/notifications/ws", stream.HandleConnection)
}
