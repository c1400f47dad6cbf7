package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/app"
	"fintrack/internal/delivery"
	"fintrack/internal/domain/notify"
	"fintrack/internal/domain/obligation"
	"fintrack/internal/infra/config"
	idb "fintrack/internal/infra/database"
	"fintrack/internal/infra/logger"
	"fintrack/internal/infra/scheduler"

	"github.com/shopspring/decimal"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Database
	db, err := idb.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Repositories
	obligationRepo := idb.NewPostgresObligationRepository(db)
	investmentRepo := idb.NewPostgresInvestmentRepository(db)
	goalRepo := idb.NewPostgresGoalRepository(db)
	userRepo := idb.NewPostgresUserRepository(db)
	auditRepo := idb.NewPostgresAuditRepository(db)
	log.Info("Repositories initialized.")

	// Delivery: email falls back from the transactional API to SMTP, SMS
	// from the primary carrier to the secondary.
	sender := delivery.NewSender(log)
	sender.Register(notify.ChannelEmail,
		delivery.NewMailerHTTP(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.ProviderTimeout))
	sender.Register(notify.ChannelEmail,
		delivery.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.ProviderTimeout))
	sender.Register(notify.ChannelSMS,
		delivery.NewSMSCarrier("sms-primary", cfg.SMSPrimaryURL, cfg.SMSPrimaryAccount, cfg.SMSPrimaryToken, cfg.SMSFrom, cfg.ProviderTimeout))
	sender.Register(notify.ChannelSMS,
		delivery.NewSMSCarrier("sms-secondary", cfg.SMSSecondaryURL, cfg.SMSSecondaryAccount, cfg.SMSSecondaryToken, cfg.SMSFrom, cfg.ProviderTimeout))

	// Operator Telegram channel, optional.
	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			log.Errorf("Could not create Telegram bot, ops notices will be log-only: %v", err)
			bot = nil
		}
	}
	ops := delivery.NewOpsChannel(bot, cfg.OpsChatID, log)

	// Services
	dispatchService := app.NewDispatchService(
		obligationRepo, investmentRepo, goalRepo, userRepo, auditRepo,
		sender, ops, log,
		app.DispatchConfig{
			SendDelay:          cfg.SendDelay,
			MaturityWindowDays: cfg.MaturityWindowDays,
			GoalProgressStep:   cfg.GoalProgressStep,
		},
	)
	alertService := app.NewAlertService(userRepo, sender, ops, log)
	alertService.AddThreshold(app.Threshold{
		Metric:     "overdue_expense_count",
		Comparator: app.CompareGTE,
		Value:      decimal.NewFromInt(50),
		Severity:   app.SeverityWarning,
	})
	alertService.AddGauge(app.Gauge{
		Name: "overdue_expense_count",
		Collect: func(ctx context.Context) (decimal.Decimal, error) {
			n, err := obligationRepo.CountOverdue(ctx, obligation.KindExpense)
			return decimal.NewFromInt(n), err
		},
	})
	log.Info("Services initialized.")

	// Scheduler
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warnf("Invalid TIMEZONE %q, falling back to local time: %v", cfg.Timezone, err)
		loc = time.Local
	}
	registry := scheduler.NewJobRegistry(loc, log)
	cycles := []struct {
		name string
		spec string
	}{
		{app.CycleOverdue, cfg.CronOverdue},
		{app.CycleDueToday, cfg.CronDueToday},
		{app.CycleMaturing, cfg.CronMaturing},
		{app.CycleGoalProgress, cfg.CronGoalProgress},
		{app.CycleMonthlyReport, cfg.CronMonthlyReport},
		{app.CycleAchievements, cfg.CronAchievements},
	}
	for _, c := range cycles {
		name := c.name
		err := registry.Register(name, c.spec, func(ctx context.Context) error {
			report, err := dispatchService.RunCycle(ctx, name)
			if err != nil {
				return err
			}
			log.Infof("cycle %s report: total=%d succeeded=%d failed=%d skipped=%d",
				report.Cycle, report.Total, report.Succeeded, report.Failed, report.Skipped)
			return nil
		})
		if err != nil {
			log.Fatalf("FATAL: Could not register cycle %s: %v", name, err)
		}
	}
	if err := registry.Register("alert-check", cfg.CronAlertCheck, alertService.RunChecks); err != nil {
		log.Fatalf("FATAL: Could not register alert check job: %v", err)
	}
	if err := registry.StartAll(); err != nil {
		log.Fatalf("FATAL: Could not start scheduler: %v", err)
	}

	log.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	registry.Shutdown()
	log.Info("Application shut down gracefully.")
}
