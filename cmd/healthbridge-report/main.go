package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/serverapi"
	"github.com/healthbridge/healthbridge/pkg/config"
)

func main() {
	endpoint := flag.String("endpoint", "", "HealthBridge server base URL (default from config, else http://localhost:8099)")
	apiKey := flag.String("api-key", "", "API key for the server (default from config)")
	days := flag.Int("days", 7, "Number of days to include")
	cfgFile := flag.String("config", "", "Optional configuration source to read endpoint and api-key from")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if *cfgFile != "" {
		fillFromConfig(*cfgFile, *cfgBackend, endpoint, apiKey)
	}
	if *endpoint == "" {
		*endpoint = "http://localhost:8099"
	}

	logger := zap.NewNop().Sugar()
	if *debug {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev.Sugar()
		}
	}

	client := serverapi.NewClient(*endpoint, *apiKey, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := fetchReportData(ctx, client, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching health data: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(renderReport(data))
}

func fetchReportData(ctx context.Context, client *serverapi.Client, days int) (*reportData, error) {
	summaries, err := client.Summary(ctx, days)
	if err != nil {
		return nil, err
	}

	workouts, err := client.Workouts(ctx, days)
	if err != nil {
		return nil, err
	}

	sleep, err := client.Sleep(ctx, days)
	if err != nil {
		return nil, err
	}

	mood, err := client.Mood(ctx, days)
	if err != nil {
		return nil, err
	}

	return &reportData{
		Days:      days,
		Summaries: summaries,
		Workouts:  workouts,
		Sleep:     sleep,
		Mood:      mood,
	}, nil
}

func fillFromConfig(cfgFile, cfgBackend string, endpoint, apiKey *string) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unsupported configuration backend: %s. Use 'yaml' or 'sqlite'\n", cfgBackend)
		os.Exit(1)
	}
	defer provider.Close()

	agentCfg, err := provider.GetAgentConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}
	if agentCfg == nil {
		return
	}

	if *endpoint == "" {
		*endpoint = agentCfg.APIEndpoint
	}
	if *apiKey == "" {
		*apiKey = agentCfg.APIKey
	}
}
