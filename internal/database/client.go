// Package database implements the server's Postgres storage: raw sync
// logs, the merged daily summary table, and the per-record workout,
// mood, and sleep tables the query API reads from.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/healthbridge/healthbridge/internal/log"
	"go.uber.org/zap"
)

// Client holds the connection to the Postgres database
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
}

// NewClient creates a new database client
func NewClient(connectionString string, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
	}
}

// Connect connects to the Postgres database and migrates the schema
func (c *Client) Connect() error {
	var err error

	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Use colors
		},
	)

	config := &gorm.Config{
		Logger: dbLogger,
	}

	log.Info("connecting to Postgres...")
	c.DB, err = gorm.Open(postgres.Open(c.connectionString), config)
	if err != nil {
		log.Warn("warning: unable to create a Postgres connection:", err)
		return err
	}
	log.Info("Postgres connection successful")

	return c.CreateTables()
}

// CreateTables creates or migrates the health schema
func (c *Client) CreateTables() error {
	err := c.DB.AutoMigrate(
		SyncLog{},
		DailySummary{},
		WorkoutRecord{},
		MoodRecord{},
		SleepRecord{},
	)
	if err != nil {
		return fmt.Errorf("error creating or migrating health database tables: %v", err)
	}
	return nil
}

// Close closes the underlying database connection
func (c *Client) Close() error {
	if c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
