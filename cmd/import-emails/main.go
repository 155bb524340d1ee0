package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"smartinbox/internal/config"
	"smartinbox/internal/database"
	"smartinbox/internal/ingest"
	"smartinbox/internal/models"
	"smartinbox/internal/server"
)

func main() {
	// Parse command line flags
	emlPath := flag.String("eml", "", "Path to EML file or directory containing EML files")
	route := flag.Bool("route", true, "Run imported emails through the routing engine")
	flag.Parse()

	if *emlPath == "" {
		fmt.Println("Usage:")
		fmt.Println("  Import EML file:   import-emails -eml /path/to/file.eml")
		fmt.Println("  Import directory:  import-emails -eml /path/to/directory")
		fmt.Println("  Store only:        import-emails -eml /path -route=false")
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	logger := cfg.SetupLogger()

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := database.CreateTables(db); err != nil {
		log.Fatalf("Failed to create database tables: %v", err)
	}

	// The server wires the full routing pipeline; reuse it for imports
	srv := server.New(cfg, db, logger)

	var parsedEmails []*models.InboundEmail

	fmt.Printf("Parsing EML from: %s\n", *emlPath)
	info, err := os.Stat(*emlPath)
	if err != nil {
		log.Fatalf("Failed to access path: %v", err)
	}

	if info.IsDir() {
		fmt.Println("Scanning directory for EML files...")
		parsedEmails, err = ingest.ParseDirectory(*emlPath)
		if err != nil {
			log.Fatalf("Failed to parse directory: %v", err)
		}
	} else if strings.HasSuffix(strings.ToLower(*emlPath), ".eml") {
		email, err := ingest.ParseEMLFile(*emlPath)
		if err != nil {
			log.Fatalf("Failed to parse EML file: %v", err)
		}
		parsedEmails = []*models.InboundEmail{email}
	} else {
		log.Fatalf("Invalid file type. Expected .eml file or directory")
	}

	fmt.Printf("Successfully parsed %d emails\n", len(parsedEmails))

	ctx := context.Background()
	storedCount := 0
	routedCount := 0
	errorCount := 0

	for i, email := range parsedEmails {
		if err := srv.Emails().Insert(ctx, email); err != nil {
			fmt.Printf("Warning: Failed to store email %d: %v\n", i+1, err)
			errorCount++
			continue
		}
		storedCount++

		if !*route {
			continue
		}
		if err := srv.Engine().Process(ctx, email); err != nil {
			fmt.Printf("Warning: Failed to route email %d: %v\n", i+1, err)
			errorCount++
			continue
		}
		routedCount++
	}

	fmt.Println("\n✓ Email import complete!")
	fmt.Printf("  - Parsed: %d emails\n", len(parsedEmails))
	fmt.Printf("  - Stored: %d emails\n", storedCount)
	if *route {
		fmt.Printf("  - Routed: %d emails (%d errors)\n", routedCount, errorCount)
	}
}
