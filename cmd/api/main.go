package main

import (
	"alert-center/internal/handlers"
	"alert-center/internal/middleware"
	"alert-center/internal/repository"
	"alert-center/internal/services"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/crypto/bcrypt"
)

// @title Alert Center API
// @version 1.0
// @description Alert Center - Enterprise Alert Management Platform
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

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
	seedDefaultUser(db)
	seedDefaultBusinessGroups(db)
	seedDefaultAlertTemplates(db)

	redisClient := redis.NewClient(&redis.Options{Addr: viper.GetString("redis.addr")})

	clock := services.SystemClock{}

	userRepo := repository.NewUserRepository(db)
	businessGroupRepo := repository.NewBusinessGroupRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	blackoutRepo := repository.NewBlackoutRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	oncallRepo := repository.NewOnCallRepository(db)
	dispatchRepo := repository.NewDispatchRepository(db)
	heartbeatRepo := repository.NewHeartbeatRepository(db)

	engine := services.NewAlertEngine(alertRepo, blackoutRepo, clock)
	oncallResolver := services.NewOnCallResolver(oncallRepo, ruleRepo, clock)
	ruleEngine := services.NewRuleEngine(ruleRepo, oncallResolver, clock)
	dispatcher := services.NewDispatcher(dispatchRepo, clock)
	scheduler := services.NewScheduler(engine, ruleEngine, dispatcher, heartbeatRepo, clock, redisClient)

	var secretBox *services.SecretBox
	if notificationKey := viper.GetString("notification.key"); notificationKey != "" {
		sb, err := services.NewSecretBox(notificationKey)
		if err != nil {
			log.Printf("Failed to init notification secret box: %v", err)
		} else {
			secretBox = sb
		}
	}

	userService := services.NewUserService(userRepo)
	templateService := services.NewAlertTemplateService(db.Pool)
	userMgmtService := services.NewUserManagementService(db.Pool)
	auditLogService := services.NewAuditLogService(db.Pool)
	dataSourceService := services.NewDataSourceService(db.Pool)
	statisticsService := services.NewAlertStatisticsService(db.Pool)
	escalationService := services.NewAlertEscalationMgmtService(db.Pool)
	schedulingService := services.NewSchedulingService(db.Pool)
	sender := services.NewNotificationSender(db.Pool)
	wsHandler := handlers.NewWebSocketHandler()
	slaBreachService := services.NewSLABreachService(db.Pool, sender, wsHandler)

	userHandler := handlers.NewUserHandler(userService)
	alertHandler := handlers.NewAlertHandler(engine, alertRepo, ruleEngine, dispatcher)
	businessGroupHandler := handlers.NewBusinessGroupHandler(businessGroupRepo)
	templateHandler := handlers.NewAlertTemplateHandler(templateService)
	userMgmtHandler := handlers.NewUserManagementHandler(userMgmtService)
	auditLogHandler := handlers.NewAuditLogHandler(auditLogService)
	dataSourceHandler := handlers.NewDataSourceHandler(dataSourceService)
	statisticsHandler := handlers.NewAlertStatisticsHandler(statisticsService)
	escalationHandler := handlers.NewEscalationHandler(escalationService)
	schedulingHandler := handlers.NewSchedulingHandler(schedulingService)
	slaBreachHandler := handlers.NewSLABreachHandler(slaBreachService)
	escalationHistoryHandler := handlers.NewEscalationHistoryHandler(db)
	ticketHandler := handlers.NewTicketHandler(db, wsHandler)

	blackoutHandler := handlers.NewBlackoutHandler(blackoutRepo)
	notificationRuleHandler := handlers.NewNotificationRuleHandler(ruleRepo)
	escalationRuleHandler := handlers.NewEscalationRuleHandler(ruleRepo)
	notificationGroupHandler := handlers.NewNotificationGroupHandler(ruleRepo)
	notificationChannelHandler := handlers.NewNotificationChannelHandler(dispatchRepo, secretBox)
	oncallHandler := handlers.NewOnCallHandler(oncallRepo)
	heartbeatHandler := handlers.NewHeartbeatHandler(heartbeatRepo)
	sweepHandler := handlers.NewSweepHandler(scheduler)

	router := initRouter(
		wsHandler,
		userHandler,
		alertHandler,
		businessGroupHandler,
		templateHandler,
		userMgmtHandler,
		auditLogHandler,
		dataSourceHandler,
		statisticsHandler,
		escalationHandler,
		schedulingHandler,
		slaBreachHandler,
		escalationHistoryHandler,
		ticketHandler,
		blackoutHandler,
		notificationRuleHandler,
		escalationRuleHandler,
		notificationGroupHandler,
		notificationChannelHandler,
		oncallHandler,
		heartbeatHandler,
		sweepHandler,
	)

	addr := fmt.Sprintf("%s:%d", viper.GetString("app.host"), viper.GetInt("app.port"))

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	scheduler.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	_ = redisClient.Close()

	log.Println("Server exited")
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/alert-center")
	viper.AutomaticEnv()
	// So env vars like DATABASE_HOST (not DATABASE.HOST) override config keys like database.host
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.ReadInConfig()

	viper.SetDefault("redis.addr", "localhost:6379")
}

func runMigrations(db *repository.Database) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(64) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			email VARCHAR(128) UNIQUE,
			phone VARCHAR(32),
			role VARCHAR(32) DEFAULT 'user',
			status INT DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS business_groups (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			description VARCHAR(512),
			parent_id UUID,
			manager_id UUID,
			status INT DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_templates (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			description VARCHAR(512),
			content TEXT NOT NULL,
			variables JSONB,
			type VARCHAR(32) DEFAULT 'markdown',
			group_id UUID,
			status INT DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS operation_logs (
			id UUID PRIMARY KEY,
			user_id UUID,
			action VARCHAR(64),
			resource VARCHAR(128),
			resource_id VARCHAR(128),
			detail TEXT,
			ip VARCHAR(64),
			created_at TIMESTAMP NOT NULL
		)`,
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
		// ISA-18.2 incident model (spec core): one durable row per distinct
		// (environment, resource, customer) identity whose event is either
		// the stored event or listed in its correlate set, mutated in place by
		// AlertEngine through dedup/correlate/create transitions.
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
		`CREATE INDEX IF NOT EXISTS idx_alerts_identity ON alerts (environment, resource, customer)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts (status)`,
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
		`CREATE TABLE IF NOT EXISTS notification_channels (
			id UUID PRIMARY KEY,
			type VARCHAR(32) NOT NULL,
			sender VARCHAR(128),
			host VARCHAR(256),
			api_sid VARCHAR(256),
			api_token VARCHAR(256),
			platform_id VARCHAR(128),
			platform_partner_id VARCHAR(128),
			verify BOOLEAN DEFAULT TRUE,
			customer VARCHAR(128),
			bearer TEXT,
			bearer_expiry TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS notification_rules (
			id UUID PRIMARY KEY,
			active BOOLEAN DEFAULT TRUE,
			environment VARCHAR(64) NOT NULL,
			channel_id UUID,
			receivers JSONB DEFAULT '[]',
			user_ids JSONB DEFAULT '[]',
			group_ids JSONB DEFAULT '[]',
			use_oncall BOOLEAN DEFAULT FALSE,
			resource VARCHAR(128),
			event VARCHAR(128),
			"group" VARCHAR(128),
			service JSONB DEFAULT '[]',
			tags JSONB DEFAULT '[]',
			excluded_tags JSONB DEFAULT '[]',
			triggers JSONB DEFAULT '[]',
			days JSONB DEFAULT '[]',
			start_time VARCHAR(5),
			end_time VARCHAR(5),
			delay_time_seconds INT,
			reactivate TIMESTAMP,
			customer VARCHAR(128) DEFAULT '',
			text VARCHAR(512),
			priority INT DEFAULT 0,
			create_time TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS escalation_rules (
			id UUID PRIMARY KEY,
			active BOOLEAN DEFAULT TRUE,
			environment VARCHAR(64) NOT NULL,
			time_seconds INT NOT NULL,
			resource VARCHAR(128),
			event VARCHAR(128),
			"group" VARCHAR(128),
			service JSONB DEFAULT '[]',
			tags JSONB DEFAULT '[]',
			excluded_tags JSONB DEFAULT '[]',
			triggers JSONB DEFAULT '[]',
			days JSONB DEFAULT '[]',
			start_time VARCHAR(5),
			end_time VARCHAR(5),
			customer VARCHAR(128) DEFAULT '',
			priority INT DEFAULT 0,
			create_time TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notification_groups (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			user_ids JSONB DEFAULT '[]',
			phone_numbers JSONB DEFAULT '[]',
			mails JSONB DEFAULT '[]',
			customer VARCHAR(128) DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS notification_group_members (
			id UUID PRIMARY KEY,
			group_id UUID NOT NULL,
			user_id UUID NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS on_calls (
			id UUID PRIMARY KEY,
			user_ids JSONB DEFAULT '[]',
			group_ids JSONB DEFAULT '[]',
			start_date DATE,
			end_date DATE,
			start_time VARCHAR(5),
			end_time VARCHAR(5),
			repeat_type VARCHAR(32),
			repeat_days JSONB DEFAULT '[]',
			repeat_weeks JSONB DEFAULT '[]',
			repeat_months JSONB DEFAULT '[]',
			customer VARCHAR(128) DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS delayed_notifications (
			id UUID PRIMARY KEY,
			alert_id UUID NOT NULL,
			rule_id UUID NOT NULL,
			fire_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(alert_id, rule_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notification_history (
			id UUID PRIMARY KEY,
			sent BOOLEAN DEFAULT FALSE,
			message TEXT,
			channel_id UUID,
			rule_id UUID,
			alert_id UUID,
			sender VARCHAR(256),
			receiver VARCHAR(256),
			sent_time TIMESTAMP,
			error VARCHAR(512),
			confirmed BOOLEAN DEFAULT FALSE,
			confirmed_time TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS heartbeats (
			id UUID PRIMARY KEY,
			origin VARCHAR(128) NOT NULL,
			customer VARCHAR(128) NOT NULL DEFAULT '',
			create_time TIMESTAMP NOT NULL,
			receive_time TIMESTAMP NOT NULL,
			timeout INT DEFAULT 0,
			UNIQUE(origin, customer)
		)`,
		// Legacy ambient tables still read by the out-of-core-scope
		// statistics/SLA/escalation/ticket admin surfaces (see DESIGN.md).
		`CREATE TABLE IF NOT EXISTS alert_rules (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			group_id UUID,
			status INT DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_channels (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			type VARCHAR(32) NOT NULL,
			status INT DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_history (
			id UUID PRIMARY KEY,
			rule_id UUID,
			fingerprint VARCHAR(256),
			severity VARCHAR(32),
			status VARCHAR(32),
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
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
		`CREATE TABLE IF NOT EXISTS sla_breaches (
			id UUID PRIMARY KEY,
			alert_id UUID NOT NULL,
			rule_id UUID NOT NULL,
			severity VARCHAR(32) NOT NULL,
			breach_type VARCHAR(32) NOT NULL,
			breach_time TIMESTAMP NOT NULL,
			response_time FLOAT,
			assigned_to UUID,
			assigned_name VARCHAR(64),
			notified BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id UUID PRIMARY KEY,
			title VARCHAR(256) NOT NULL,
			description TEXT,
			alert_id UUID,
			rule_id UUID,
			priority VARCHAR(32) NOT NULL DEFAULT 'medium',
			status VARCHAR(32) NOT NULL DEFAULT 'open',
			assignee_id UUID,
			assignee_name VARCHAR(64),
			creator_id UUID NOT NULL,
			creator_name VARCHAR(64) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP,
			closed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS user_escalations (
			id UUID PRIMARY KEY,
			alert_id UUID NOT NULL,
			from_user_id UUID NOT NULL,
			from_username VARCHAR(64) NOT NULL,
			to_user_id UUID NOT NULL,
			to_username VARCHAR(64) NOT NULL,
			reason TEXT,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
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

// seedDefaultUser creates default admin if no user exists.
func seedDefaultUser(db *repository.Database) {
	ctx := context.Background()
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil || n > 0 {
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash default password: %v", err)
		return
	}
	id := uuid.New()
	now := time.Now()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO users (id, username, password, email, phone, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, "admin", string(hashed), "", "", "admin", 1, now, now)
	if err != nil {
		log.Printf("Failed to seed default user: %v", err)
		return
	}
	log.Printf("Default user created: admin / admin123 (change password after first login)")
}

// seedDefaultBusinessGroups inserts default business groups if the table is empty.
func seedDefaultBusinessGroups(db *repository.Database) {
	ctx := context.Background()
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM business_groups`).Scan(&n); err != nil || n > 0 {
		return
	}
	defaults := []struct {
		name        string
		description string
	}{
		{"基础设施组", "负责基础设施运维"},
		{"应用服务组", "负责应用服务运维"},
		{"数据库组", "负责数据库运维"},
	}
	for _, d := range defaults {
		id := uuid.New()
		now := time.Now()
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO business_groups (id, name, description, parent_id, manager_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, NULL, NULL, 1, $4, $5)
		`, id, d.name, d.description, now, now)
		if err != nil {
			log.Printf("Failed to seed business group %q: %v", d.name, err)
			return
		}
	}
	log.Printf("Default business groups seeded: %d", len(defaults))
}

// seedDefaultAlertTemplates inserts default K8s Prometheus alert template if none exist, or updates existing one to dynamic format.
func seedDefaultAlertTemplates(db *repository.Database) {
	ctx := context.Background()
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM alert_templates WHERE status = 1`).Scan(&n); err != nil {
		return
	}
	content := "## 告警\n\n" +
		"**规则名称**: {{ruleName}}\n" +
		"**严重级别**: {{severity}}\n" +
		"**状态**: {{status}}\n" +
		"**触发时间**: {{startTime}}\n" +
		"**持续时间**: {{duration}}\n\n" +
		"### 标签 (Labels)\n" +
		"{{labelsFormatted}}\n\n" +
		"### 注释 (Annotations)\n" +
		"{{annotationsFormatted}}\n\n" +
		"### 处理建议\n" +
		"根据上述标签定位资源（如 namespace/pod/node/job 等），检查事件与日志：`kubectl describe` / `kubectl logs`。"
	variables := `{"ruleName":"规则名称","severity":"严重级别","status":"状态","startTime":"触发时间","duration":"持续时间","labelsFormatted":"标签键值（自动适配）","annotationsFormatted":"注释键值（自动适配）","labels":"原始 labels JSON","annotations":"原始 annotations JSON"}`
	desc := "动态适配任意 Prometheus 告警：标签与注释按实际键值自动展示，无需固定格式"
	if n > 0 {
		_, _ = db.Pool.Exec(ctx, `
			UPDATE alert_templates SET content = $1, variables = $2, description = $3, updated_at = $4
			WHERE name = 'K8s Prometheus 默认告警模板' AND status = 1
		`, content, variables, desc, time.Now())
		return
	}
	id := uuid.New()
	now := time.Now()
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO alert_templates (id, name, description, content, variables, type, group_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, 1, $7, $8)
	`, id, "K8s Prometheus 默认告警模板", desc, content, variables, "markdown", now, now)
	if err != nil {
		log.Printf("Failed to seed default alert template: %v", err)
		return
	}
	log.Printf("Default alert template seeded: K8s Prometheus 默认告警模板")
}

func initRouter(
	wsHandler *handlers.WebSocketHandler,
	userHandler *handlers.UserHandler,
	alertHandler *handlers.AlertHandler,
	businessGroupHandler *handlers.BusinessGroupHandler,
	templateHandler *handlers.AlertTemplateHandler,
	userMgmtHandler *handlers.UserManagementHandler,
	auditLogHandler *handlers.AuditLogHandler,
	dataSourceHandler *handlers.DataSourceHandler,
	statisticsHandler *handlers.AlertStatisticsHandler,
	escalationHandler *handlers.EscalationHandler,
	schedulingHandler *handlers.SchedulingHandler,
	slaBreachHandler *handlers.SLABreachHandler,
	escalationHistoryHandler *handlers.EscalationHistoryHandler,
	ticketHandler *handlers.TicketHandler,
	blackoutHandler *handlers.BlackoutHandler,
	notificationRuleHandler *handlers.NotificationRuleHandler,
	escalationRuleHandler *handlers.EscalationRuleHandler,
	notificationGroupHandler *handlers.NotificationGroupHandler,
	notificationChannelHandler *handlers.NotificationChannelHandler,
	oncallHandler *handlers.OnCallHandler,
	heartbeatHandler *handlers.HeartbeatHandler,
	sweepHandler *handlers.SweepHandler) *gin.Engine {

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	go wsHandler.HandleBroadcast()
	router.GET("/api/v1/ws", wsHandler.HandleConnection)

	public := router.Group("/api/v1")
	{
		public.POST("/auth/login", userHandler.Login)
		public.POST("/alert", alertHandler.Create)
		public.POST("/heartbeats", heartbeatHandler.Send)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(viper.GetString("jwt.secret")))
	{
		api.GET("/profile", userHandler.GetProfile)

		api.GET("/business-groups", businessGroupHandler.List)

		api.POST("/users", userMgmtHandler.Create)
		api.GET("/users", userMgmtHandler.List)
		api.GET("/users/:id", userMgmtHandler.GetByID)
		api.PUT("/users/:id", userMgmtHandler.Update)
		api.DELETE("/users/:id", userMgmtHandler.Delete)
		api.POST("/users/:id/password", userMgmtHandler.ChangePassword)

		api.GET("/alerts", alertHandler.List)
		api.GET("/alerts/:id", alertHandler.GetByID)
		api.DELETE("/alerts/:id", alertHandler.Delete)
		api.POST("/alerts/:id/action", alertHandler.Action)

		api.GET("/templates", templateHandler.List)
		api.POST("/templates", templateHandler.Create)
		api.GET("/templates/:id", templateHandler.GetByID)
		api.PUT("/templates/:id", templateHandler.Update)
		api.DELETE("/templates/:id", templateHandler.Delete)

		api.GET("/audit-logs", auditLogHandler.List)
		api.GET("/audit-logs/export", auditLogHandler.Export)

		api.GET("/data-sources", dataSourceHandler.List)
		api.POST("/data-sources", dataSourceHandler.Create)
		api.GET("/data-sources/:id", dataSourceHandler.GetByID)
		api.PUT("/data-sources/:id", dataSourceHandler.Update)
		api.DELETE("/data-sources/:id", dataSourceHandler.Delete)
		api.POST("/data-sources/:id/health-check", dataSourceHandler.HealthCheck)

		api.GET("/statistics", statisticsHandler.Statistics)
		api.GET("/dashboard", statisticsHandler.Dashboard)

		api.GET("/escalations", escalationHistoryHandler.GetHistory)
		api.GET("/escalations/stats", escalationHistoryHandler.GetStats)
		api.GET("/escalations/alert/:alert_id", escalationHandler.GetAlertEscalations)

		api.POST("/escalations", escalationHandler.CreateEscalation)
		api.GET("/escalations/pending", escalationHandler.GetMyPendingEscalations)
		api.POST("/escalations/:id/accept", escalationHandler.AcceptEscalation)
		api.POST("/escalations/:id/reject", escalationHandler.RejectEscalation)
		api.POST("/escalations/:id/resolve", escalationHandler.ResolveEscalation)

		api.POST("/oncall/schedules/:id/generate", schedulingHandler.GenerateSchedule)
		api.GET("/oncall/schedules/:id/coverage", schedulingHandler.GetScheduleCoverage)
		api.GET("/oncall/schedules/:id/suggest", schedulingHandler.SuggestRotation)
		api.GET("/oncall/schedules/:id/validate", schedulingHandler.ValidateSchedule)

		api.GET("/sla/breaches", slaBreachHandler.GetBreaches)
		api.GET("/sla/breaches/stats", slaBreachHandler.GetBreachStats)
		api.POST("/sla/breaches/check", slaBreachHandler.TriggerCheck)
		api.POST("/sla/breaches/notify", slaBreachHandler.TriggerNotifications)

		api.GET("/tickets", ticketHandler.List)
		api.POST("/tickets", ticketHandler.Create)
		api.GET("/tickets/:id", ticketHandler.GetByID)
		api.PUT("/tickets/:id", ticketHandler.Update)
		api.POST("/tickets/:id/resolve", ticketHandler.Resolve)
		api.POST("/tickets/:id/close", ticketHandler.Close)
		api.DELETE("/tickets/:id", ticketHandler.Delete)
		api.GET("/tickets/stats", ticketHandler.Stats)

		api.POST("/blackouts", blackoutHandler.Create)
		api.GET("/blackouts", blackoutHandler.List)
		api.DELETE("/blackouts/:id", blackoutHandler.Delete)

		api.POST("/notificationrules", notificationRuleHandler.Create)
		api.GET("/notificationrules", notificationRuleHandler.List)
		api.POST("/notificationrules/:id/active", notificationRuleHandler.SetActive)
		api.DELETE("/notificationrules/:id", notificationRuleHandler.Delete)

		api.POST("/escalationrules", escalationRuleHandler.Create)
		api.GET("/escalationrules", escalationRuleHandler.List)
		api.DELETE("/escalationrules/:id", escalationRuleHandler.Delete)

		api.POST("/notificationgroups", notificationGroupHandler.Create)
		api.GET("/notificationgroups", notificationGroupHandler.List)
		api.DELETE("/notificationgroups/:id", notificationGroupHandler.Delete)

		api.POST("/notificationchannels", notificationChannelHandler.Create)
		api.GET("/notificationchannels", notificationChannelHandler.List)
		api.DELETE("/notificationchannels/:id", notificationChannelHandler.Delete)

		api.POST("/oncalls", oncallHandler.Create)
		api.GET("/oncalls", oncallHandler.List)
		api.DELETE("/oncalls/:id", oncallHandler.Delete)

		api.GET("/heartbeats", heartbeatHandler.List)
		api.GET("/heartbeats/:id", heartbeatHandler.GetByID)
		api.DELETE("/heartbeats/:id", heartbeatHandler.Delete)

		api.POST("/escalate", sweepHandler.Escalate)
		api.POST("/notificationdelay/fire", sweepHandler.FireDelayed)
	}

	return router
}
