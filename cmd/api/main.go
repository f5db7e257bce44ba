package main

import (
	"os"

	"github.com/yigit/facultycredits/internal/pkg/logger"
)

// @title Faculty Credits API
// @version 1.0
// @description Performance-credit ledger for faculty members: submissions, remarks, approvals, appeals and balances.

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
