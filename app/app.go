// Package app wires repositories, services and notification delivery from a
// database handle and configuration. The server and the slacheck command
// share it.
package app

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"complaintdesk/config"
	"complaintdesk/metrics"
	"complaintdesk/notification"
	"complaintdesk/repository"
	"complaintdesk/routes"
	"complaintdesk/service"
)

// App is the assembled core.
type App struct {
	Services   routes.Services
	Dispatcher *notification.Dispatcher
	Metrics    *metrics.Metrics
}

// OpenDB opens and pings the MySQL database.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// New builds every service over db. Metrics register on reg.
func New(db *sqlx.DB, cfg *config.Config, reg prometheus.Registerer, log zerolog.Logger) (*App, error) {
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	complaintRepo := repository.NewComplaintRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	eventRepo := repository.NewEventRepository(db)
	hierarchyRepo := repository.NewHierarchyRepository(db)
	ruleRepo := repository.NewRoutingRuleRepository(db)
	slaConfigRepo := repository.NewSLAConfigRepository(db)
	notificationLogRepo := repository.NewNotificationLogRepository(db)

	dispatcher := notification.NewDispatcher(
		notificationLogRepo,
		hierarchyRepo,
		notification.NewEmailSender(cfg.Notification),
		cfg.Notification,
		m,
		log,
	)

	hierarchy := service.NewHierarchyService(hierarchyRepo, log)
	routing := service.NewRoutingEngine(ruleRepo, hierarchyRepo, nil, m, log)
	calculator := service.NewSLACalculator(slaConfigRepo, complaintRepo, log)
	monitor := service.NewSLAMonitor(complaintRepo, calculator, eventRepo, nil, m, log)
	escalation := service.NewEscalationService(complaintRepo, hierarchy, monitor, eventRepo, dispatcher, nil, m, log)
	approval := service.NewApprovalService(complaintRepo, hierarchy, eventRepo, dispatcher, nil, m, log)
	complaints := service.NewComplaintService(complaintRepo, categoryRepo, routing, calculator, eventRepo, dispatcher, nil, log)
	check := service.NewSLACheck(monitor, escalation, dispatcher, log)

	return &App{
		Services: routes.Services{
			Complaints: complaints,
			Routing:    routing,
			SLA:        calculator,
			Monitor:    monitor,
			Escalation: escalation,
			Approval:   approval,
			Hierarchy:  hierarchy,
			Check:      check,
		},
		Dispatcher: dispatcher,
		Metrics:    m,
	}, nil
}
