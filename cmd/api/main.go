package main

import (
	"os"

	"github.com/yigit/examadmin/internal/pkg/logger"
	"github.com/yigit/examadmin/internal/server"
)

// @title Exam Administration API
// @version 1.0
// @description API for university exam administration: courses, staff assignments, exams, registrations and attendance.

// @contact.name API Support
// @contact.email support@examadmin.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
