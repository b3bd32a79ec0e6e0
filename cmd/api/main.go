package main

import (
	"os"

	"github.com/yigit/huddle/internal/pkg/logger" // Still needed for initial error logging
	"github.com/yigit/huddle/internal/server"
)

// @title Huddle API
// @version 1.0
// @description Companion API of the Huddle Telegram bot: workspaces, events and RSVPs

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Form token issued by the /form bot command

// @securityDefinitions.apikey UserID
// @in header
// @name x-user-id
// @description Internal user id

func main() {
	// NewServer orchestrates config, logger, database, redis, telegram and router setup
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
	os.Exit(0)
}
