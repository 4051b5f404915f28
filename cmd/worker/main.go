package main

import (
	"alert-center/internal/models"
	"alert-center/internal/repository"
	"alert-center/internal/services"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initConfig()

	db, err := repository.NewDatabase()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := runMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	checkInterval := viper.GetDuration("worker.check_interval")
	if checkInterval == 0 {
		checkInterval = 1 * time.Minute
	}

	log.Printf("Starting alert worker with check interval: %v", checkInterval)

	clock := services.SystemClock{}
	alertRepo := repository.NewAlertRepository(db)
	blackoutRepo := repository.NewBlackoutRepository(db)

	engine := services.NewAlertEngine(alertRepo, blackoutRepo, clock)
	evaluator := services.NewAlertEvaluator(engine, checkInterval)

	slaSvc := services.NewSLAService(db.Pool)
	if err := slaSvc.SeedDefaultSLAConfigs(ctx); err != nil {
		log.Printf("Failed to seed SLA configs: %v", err)
	}

	probes, dataSources, err := loadMetricProbes(ctx, db)
	if err != nil {
		log.Printf("Failed to load metric probes: %v", err)
	}
	for _, ds := range dataSources {
		evaluator.RegisterDataSource(ds)
	}

	log.Println("Alert worker started successfully")
	go evaluator.Start(ctx, probes, dataSources)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	log.Println("Worker stopped")
}

// loadMetricProbes loads enabled polling probes and their data sources,
// feeding internal/services.AlertEvaluator (spec §11 metric ingest).
func loadMetricProbes(ctx context.Context, db *repository.Database) ([]models.MetricProbe, map[uuid.UUID]models.DataSource, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, data_source_id, name, expression, threshold, environment, resource, event, severity, service, enabled
		FROM metric_probes WHERE enabled = true
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var probes []models.MetricProbe
	for rows.Next() {
		var p models.MetricProbe
		var service []byte
		if err := rows.Scan(&p.ID, &p.DataSourceID, &p.Name, &p.Expression, &p.Threshold,
			&p.Environment, &p.Resource, &p.Event, &p.Severity, &service, &p.Enabled); err != nil {
			return nil, nil, err
		}
		_ = json.Unmarshal(service, &p.Service)
		probes = append(probes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	dsRows, err := db.Pool.Query(ctx, `SELECT id, name, type, endpoint FROM data_sources WHERE status = 1`)
	if err != nil {
		return nil, nil, err
	}
	defer dsRows.Close()

	dataSources := make(map[uuid.UUID]models.DataSource)
	for dsRows.Next() {
		var ds models.DataSource
		if err := dsRows.Scan(&ds.ID, &ds.Name, &ds.Type, &ds.Endpoint); err != nil {
			return nil, nil, err
		}
		dataSources[ds.ID] = ds
	}
	return probes, dataSources, dsRows.Err()
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/alert-center")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.ReadInConfig()
}

func runMigrations(db *repository.Database) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS data_sources (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			type VARCHAR(32) NOT NULL,
			description VARCHAR(512),
			endpoint VARCHAR(512) NOT NULL,
			config JSONB,
			status INT DEFAULT 1,
			health_status VARCHAR(32) DEFAULT 'unknown',
			last_check_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metric_probes (
			id UUID PRIMARY KEY,
			data_source_id UUID NOT NULL,
			name VARCHAR(128) NOT NULL,
			expression VARCHAR(1024) NOT NULL,
			threshold DOUBLE PRECISION DEFAULT 0,
			environment VARCHAR(64) NOT NULL,
			resource VARCHAR(128) NOT NULL,
			event VARCHAR(128) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			service JSONB DEFAULT '[]',
			enabled BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id UUID PRIMARY KEY,
			environment VARCHAR(64) NOT NULL,
			resource VARCHAR(128) NOT NULL,
			event VARCHAR(128) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			previous_severity VARCHAR(32),
			status VARCHAR(32) NOT NULL,
			correlate JSONB DEFAULT '[]',
			service JSONB DEFAULT '[]',
			"group" VARCHAR(128),
			value VARCHAR(256),
			text VARCHAR(1024),
			tags JSONB DEFAULT '[]',
			attributes JSONB DEFAULT '{}',
			origin VARCHAR(128),
			type VARCHAR(64),
			create_time TIMESTAMP NOT NULL,
			receive_time TIMESTAMP NOT NULL,
			last_receive_time TIMESTAMP NOT NULL,
			last_receive_id UUID,
			update_time TIMESTAMP NOT NULL,
			timeout INT DEFAULT 0,
			duplicate_count INT DEFAULT 0,
			repeat BOOLEAN DEFAULT FALSE,
			trend_indication VARCHAR(32),
			raw_data TEXT,
			customer VARCHAR(128) DEFAULT '',
			history JSONB DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS blackouts (
			id UUID PRIMARY KEY,
			environment VARCHAR(64) NOT NULL,
			resource VARCHAR(128),
			event VARCHAR(128),
			"group" VARCHAR(128),
			service JSONB DEFAULT '[]',
			tags JSONB DEFAULT '[]',
			origin VARCHAR(128),
			customer VARCHAR(128),
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			duration INT DEFAULT 0,
			priority INT DEFAULT 0,
			"user" VARCHAR(64),
			text VARCHAR(512)
		)`,
		`CREATE TABLE IF NOT EXISTS sla_configs (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			response_time_mins INT NOT NULL,
			resolution_time_mins INT NOT NULL,
			priority INT DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_slas (
			id UUID PRIMARY KEY,
			alert_id UUID NOT NULL,
			rule_id UUID NOT NULL,
			severity VARCHAR(32) NOT NULL,
			sla_config_id UUID,
			response_deadline TIMESTAMP,
			resolution_deadline TIMESTAMP,
			first_acked_at TIMESTAMP,
			resolved_at TIMESTAMP,
			status VARCHAR(32) DEFAULT 'pending',
			response_breached BOOLEAN DEFAULT FALSE,
			resolution_breached BOOLEAN DEFAULT FALSE,
			response_time_secs FLOAT,
			resolution_time_secs FLOAT,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	ctx := context.Background()
	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
