package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/healthbridge/healthbridge/internal/app"
	"github.com/healthbridge/healthbridge/internal/constants"
	"github.com/healthbridge/healthbridge/internal/log"
	"github.com/healthbridge/healthbridge/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	importDir := flag.String("import", "", "Import exported sample files from this directory into the local store and exit")
	syncNow := flag.Bool("sync-now", false, "Perform a single sync and exit")
	logMeal := flag.String("log-meal", "", "Analyze a meal description through the server, record it, and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("healthbridged %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	provider, err := loadConfigProvider(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	application := app.New(provider, log.GetSugaredLogger())
	ctx := context.Background()

	// One-shot modes
	switch {
	case *importDir != "":
		count, err := application.ImportSamples(ctx, *importDir)
		if err != nil {
			log.Errorf("Import failed: %v", err)
			os.Exit(1)
		}
		log.Infof("Imported %d samples from %s", count, *importDir)
		return
	case *syncNow:
		if err := application.SyncOnce(ctx); err != nil {
			log.Errorf("Sync failed: %v", err)
			os.Exit(1)
		}
		return
	case *logMeal != "":
		meal, err := application.LogMeal(ctx, *logMeal)
		if err != nil {
			log.Errorf("Meal logging failed: %v", err)
			os.Exit(1)
		}
		log.Infof("Recorded meal %d (%s): %.0f kcal, %.1fg protein, %.1fg carbs, %.1fg fat",
			meal.MealID, meal.Description,
			meal.Totals.Calories, meal.Totals.ProteinG, meal.Totals.CarbsG, meal.Totals.FatG)
		return
	}

	// Run the agent daemon
	if err := application.Run(ctx); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func loadConfigProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}

	if _, err := provider.LoadConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return provider, nil
}
