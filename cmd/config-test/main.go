// Command config-test verifies that a converted SQLite configuration
// loads identically to its YAML source.
package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/healthbridge/healthbridge/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	yamlConfig, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	ok := compareAgent(yamlConfig.Agent, sqliteConfig.Agent)
	ok = compareServer(yamlConfig.Server, sqliteConfig.Server) && ok

	fmt.Println("\nTest completed!")
	if !ok {
		os.Exit(1)
	}
}

func compareAgent(yaml, sqlite *config.AgentData) bool {
	fmt.Println("Agent Configuration:")
	if (yaml == nil) != (sqlite == nil) {
		fmt.Println("✗ Agent configuration presence mismatch")
		return false
	}
	if yaml == nil {
		fmt.Println("✓ Agent: both nil")
		return true
	}
	if reflect.DeepEqual(*yaml, *sqlite) {
		fmt.Println("✓ Agent configuration matches")
		return true
	}

	fmt.Println("✗ Agent configuration differs")
	if yaml.DeviceID != sqlite.DeviceID {
		fmt.Printf("  DeviceID: YAML='%s', SQLite='%s'\n", yaml.DeviceID, sqlite.DeviceID)
	}
	if yaml.APIEndpoint != sqlite.APIEndpoint {
		fmt.Printf("  APIEndpoint: YAML='%s', SQLite='%s'\n", yaml.APIEndpoint, sqlite.APIEndpoint)
	}
	if yaml.APIKey != sqlite.APIKey {
		fmt.Println("  APIKey differs")
	}
	if yaml.SyncIntervalMinutes != sqlite.SyncIntervalMinutes {
		fmt.Printf("  SyncIntervalMinutes: YAML=%d, SQLite=%d\n", yaml.SyncIntervalMinutes, sqlite.SyncIntervalMinutes)
	}
	if yaml.SkipLaunchSync != sqlite.SkipLaunchSync {
		fmt.Printf("  SkipLaunchSync: YAML=%t, SQLite=%t\n", yaml.SkipLaunchSync, sqlite.SkipLaunchSync)
	}
	if yaml.StorePath != sqlite.StorePath {
		fmt.Printf("  StorePath: YAML='%s', SQLite='%s'\n", yaml.StorePath, sqlite.StorePath)
	}
	return false
}

func compareServer(yaml, sqlite *config.ServerData) bool {
	fmt.Println("\nServer Configuration:")
	if (yaml == nil) != (sqlite == nil) {
		fmt.Println("✗ Server configuration presence mismatch")
		return false
	}
	if yaml == nil {
		fmt.Println("✓ Server: both nil")
		return true
	}

	ok := true
	if yaml.ListenAddr != sqlite.ListenAddr || yaml.Port != sqlite.Port {
		fmt.Printf("✗ Listen address differs: YAML='%s:%d', SQLite='%s:%d'\n",
			yaml.ListenAddr, yaml.Port, sqlite.ListenAddr, sqlite.Port)
		ok = false
	}
	if yaml.Cert != sqlite.Cert || yaml.Key != sqlite.Key {
		fmt.Println("✗ TLS configuration differs")
		ok = false
	}
	if yaml.APIKey != sqlite.APIKey {
		fmt.Println("✗ API key differs")
		ok = false
	}

	if (yaml.Database == nil) != (sqlite.Database == nil) {
		fmt.Println("✗ Database configuration presence mismatch")
		ok = false
	} else if yaml.Database != nil && !reflect.DeepEqual(*yaml.Database, *sqlite.Database) {
		fmt.Println("✗ Database configuration differs")
		ok = false
	}

	if ok {
		fmt.Println("✓ Server configuration matches")
	}
	return ok
}
