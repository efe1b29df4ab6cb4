// Package main provides a CLI tool for seeding the database with
// reference master data.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"masterdata/internal/catalog"
	"masterdata/internal/config"
	"masterdata/internal/core/actor"
	"masterdata/internal/engine"
	"masterdata/internal/storage/postgres"
	"masterdata/pkg/logger"
)

// seedData holds the rows inserted per entity key. Entities that already
// contain rows are skipped so the command stays safe to re-run.
var seedData = map[string][]map[string]any{
	"task_priorities": {
		{"name": "Low", "color": "#8bc34a", "level": 1},
		{"name": "Medium", "color": "#ffc107", "level": 5},
		{"name": "High", "color": "#ff5722", "level": 8},
		{"name": "Critical", "color": "#f44336", "level": 10},
	},
	"project_statuses": {
		{"name": "Planned", "is_closed": false},
		{"name": "In Progress", "is_closed": false},
		{"name": "Completed", "is_closed": true},
	},
	"lead_statuses": {
		{"name": "New", "color": "#2196f3", "position": 1},
		{"name": "Contacted", "color": "#03a9f4", "position": 2},
		{"name": "Qualified", "color": "#4caf50", "position": 3},
		{"name": "Lost", "color": "#9e9e9e", "position": 4},
	},
	"lead_sources": {
		{"name": "Website"},
		{"name": "Referral"},
		{"name": "Cold Call"},
	},
	"shifts": {
		{"name": "Day", "starts_at": "09:00", "ends_at": "18:00"},
		{"name": "Night", "starts_at": "22:00", "ends_at": "06:00"},
	},
	"leave_types": {
		{"name": "Annual Leave", "days_per_year": 24, "is_paid": true},
		{"name": "Sick Leave", "days_per_year": 10, "is_paid": true},
		{"name": "Unpaid Leave", "days_per_year": 30, "is_paid": false},
	},
	"warning_types": {
		{"name": "Late Arrival", "severity": "minor"},
		{"name": "Policy Violation", "severity": "major"},
		{"name": "Gross Misconduct", "severity": "critical"},
	},
	"units": {
		{"name": "Piece", "code": "pcs"},
		{"name": "Kilogram", "code": "kg"},
		{"name": "Litre", "code": "l"},
	},
	"tax_rates": {
		{"name": "Standard VAT", "rate": 20},
		{"name": "Reduced VAT", "rate": 7},
		{"name": "Zero Rate", "rate": 0},
	},
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		logger.Default().Fatalw("failed to create logger", "error", err)
	}

	cfg, err := config.Load(os.Getenv("MASTERDATA_CONFIG"))
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("MASTERDATA_DB_URL is required for seeding")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	eng := engine.NewService(postgres.NewRecordRepo(txm), txm, nil)
	registry := catalog.Registry()

	// Seed through the engine so descriptor validation applies. The seed
	// actor carries the admin role to satisfy permission predicates.
	ctx = actor.WithActor(ctx, &actor.Actor{
		Subject: "seed",
		Role:    "admin",
	})

	var inserted int
	for key, rows := range seedData {
		e, ok := registry.Get(key)
		if !ok {
			log.Fatalw("unknown entity in seed data", "entity", key)
		}

		count, err := eng.Count(ctx, e)
		if err != nil {
			log.Fatalw("failed to count records", "entity", key, "error", err)
		}
		if count > 0 {
			log.Infow("skipping populated entity", "entity", key, "existing", count)
			continue
		}

		for _, row := range rows {
			if _, err := eng.Create(ctx, e, row); err != nil {
				log.Fatalw("failed to seed record",
					"entity", key,
					"row", row,
					"error", err,
				)
			}
			inserted++
		}
		log.Infow("seeded entity", "entity", key, "rows", len(rows))
	}

	log.Infow("seeding completed", "inserted", inserted)
}
