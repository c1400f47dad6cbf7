// Command settle is the administrative entry point for settling an
// obligation: it marks the obligation paid/received and chains the next
// recurring instance. The main application calls the same service from its
// request handlers; this binary exists for operators and for diagnosing
// broken recurrence chains.
package main

import (
	"context"
	"flag"
	"time"

	"fintrack/internal/app"
	"fintrack/internal/infra/config"
	idb "fintrack/internal/infra/database"
	"fintrack/internal/infra/logger"
)

func main() {
	id := flag.Int64("id", 0, "obligation ID to settle")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Get()

	if *id == 0 {
		log.Fatal("FATAL: -id is required")
	}

	db, err := idb.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()

	svc := app.NewRecurrenceService(idb.NewPostgresObligationRepository(db), log, !cfg.RecurrenceEndExclusive)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := svc.Settle(ctx, *id)
	if err != nil {
		log.Fatalf("FATAL: Settlement failed: %v", err)
	}

	log.Infof("Obligation %d (%q) settled.", result.Obligation.ID, result.Obligation.Title)
	if result.Successor != nil {
		log.Infof("Successor %d created, due %s.", result.Successor.ID, result.Successor.DueDate.Format("2006-01-02"))
	}
	if result.Warning != "" {
		log.Warnf("Warning: %s", result.Warning)
	}
}
