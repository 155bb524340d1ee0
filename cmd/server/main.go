package main

import (
	"smartinbox/internal/config"
	"smartinbox/internal/database"
	"smartinbox/internal/server"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	logger.Info().Msg("Database connection established successfully")

	// Create tables if they don't exist
	if err := database.CreateTables(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create database tables")
	}

	// Create and initialize server
	srv := server.New(cfg, db, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
