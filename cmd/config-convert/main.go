// Command config-convert copies a YAML configuration into the SQLite
// configuration backend.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/healthbridge/healthbridge/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	fmt.Printf("Loading YAML configuration...\n")
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	configData, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	printConfigSummary(configData)

	if *dryRun {
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Creating SQLite database...\n")
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	fmt.Printf("Saving configuration into SQLite database...\n")
	if err := sqliteProvider.SaveConfig(configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving configuration into SQLite: %v\n", err)
		os.Exit(1)
	}

	// Read the saved config back so a broken conversion fails loudly here
	// instead of at daemon startup.
	if _, err := sqliteProvider.LoadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying converted configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nConfiguration Summary:")

	if configData.Agent != nil {
		fmt.Println("Agent:")
		fmt.Printf("  - Device ID: %s\n", orUnset(configData.Agent.DeviceID))
		fmt.Printf("  - API endpoint: %s\n", orUnset(configData.Agent.APIEndpoint))
		fmt.Printf("  - API key: %s\n", redact(configData.Agent.APIKey))
		fmt.Printf("  - Sync interval: %d minutes\n", configData.Agent.SyncIntervalMinutes)
		fmt.Printf("  - Store path: %s\n", orUnset(configData.Agent.StorePath))
	} else {
		fmt.Println("Agent: (not configured)")
	}

	if configData.Server != nil {
		fmt.Println("Server:")
		fmt.Printf("  - Listen: %s:%d\n", configData.Server.ListenAddr, configData.Server.Port)
		fmt.Printf("  - API key: %s\n", redact(configData.Server.APIKey))
		if configData.Server.Database != nil {
			fmt.Printf("  - Database: configured\n")
		} else {
			fmt.Printf("  - Database: (not configured)\n")
		}
		if configData.Server.Cert != "" {
			fmt.Printf("  - TLS: %s\n", configData.Server.Cert)
		}
	} else {
		fmt.Println("Server: (not configured)")
	}

	fmt.Println()
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func redact(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "(set)"
}
