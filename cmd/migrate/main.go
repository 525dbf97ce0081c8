// Command migrate manages the sample store schema standalone. The
// daemon applies pending migrations when it opens the store; this tool
// exists for status checks, pre-applying upgrades, and rollbacks.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/healthbridge/healthbridge/internal/healthstore"
	"github.com/healthbridge/healthbridge/pkg/migrate"
)

func main() {
	var (
		storePath = flag.String("store", "", "Path to the sample store database (required)")
		command   = flag.String("command", "status", "Command: up, down, to, version, status")
		target    = flag.Int("target", -1, "Target version for down/to commands")
		helpFlag  = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if *storePath == "" {
		fmt.Fprintf(os.Stderr, "Error: -store flag is required\n")
		showHelp()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *storePath)
	if err != nil {
		log.Fatalf("Failed to open sample store: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping sample store: %v", err)
	}

	migrator := migrate.New(db, healthstore.MigrationProvider())

	switch *command {
	case "up":
		err = migrator.Up()
	case "down":
		if *target < 0 {
			log.Fatalf("-target is required for the down command")
		}
		err = migrator.Down(*target)
	case "to":
		if *target < 0 {
			log.Fatalf("-target is required for the to command")
		}
		err = migrator.To(*target)
	case "version":
		version, err := migrator.Version()
		if err != nil {
			log.Fatalf("Failed to read schema version: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		return
	case "status":
		if err := showStatus(migrator); err != nil {
			log.Fatalf("Failed to show status: %v", err)
		}
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Migration command failed: %v", err)
	}

	fmt.Println("Migration completed successfully")
}

func showStatus(migrator *migrate.Migrator) error {
	version, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	pending, err := migrator.Pending()
	if err != nil {
		return fmt.Errorf("list pending migrations: %w", err)
	}

	fmt.Printf("Current version: %d\n", version)
	fmt.Printf("Pending migrations: %d\n", len(pending))

	if len(pending) > 0 {
		fmt.Println("\nPending migrations:")
		for _, migration := range pending {
			fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
		}
	}

	return nil
}

func showHelp() {
	fmt.Println("Sample Store Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate -store <samples.db> [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -store string      Path to the sample store database (required)")
	fmt.Println("  -command string    Migration command (default: status)")
	fmt.Println("  -target int        Target version for down/to commands")
	fmt.Println("  -help              Show this help message")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                 Apply all pending migrations")
	fmt.Println("  down               Roll back to target version")
	fmt.Println("  to                 Migrate to specific version (up or down)")
	fmt.Println("  version            Show current schema version")
	fmt.Println("  status             Show schema version and pending migrations")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  migrate -store samples.db -command up")
	fmt.Println("  migrate -store samples.db -command down -target 0")
	fmt.Println("  migrate -store samples.db -command status")
}
