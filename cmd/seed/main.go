package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"

	"gatepass/internal/config"
	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/adapter"
	enc "gatepass/internal/infra/adapters/encoder"
	pg "gatepass/internal/infra/db/postgres"
	"gatepass/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := zerolog.Nop()
	passRepo := pg.NewPassRepo(pool)
	eventRepo := pg.NewScanEventRepo(pool)
	passUC := usecase.NewPassUseCase(passRepo, eventRepo, pg.NewTxManager(pool), enc.NewNoopEncoder(), cfg.Server.ScanURLBase, adapter.EncodeStyle{}, &logger)

	today := time.Now().UTC().Truncate(24 * time.Hour)

	// Sample passes covering the interesting shapes: open-ended, expiring,
	// day-scoped and time-windowed.
	seed := []usecase.IssueRequest{
		{IssuedTo: "Dana Visitor", Purpose: "lobby demo"},
		{IssuedTo: "Sam Contractor", Purpose: "48h site access", ExpiryHours: 48},
		{IssuedTo: "Robin Guest", Purpose: "all-day event", Schedule: &model.Schedule{
			ActiveDate: today,
		}},
		{IssuedTo: "Jordan Speaker", Purpose: "morning session", Schedule: &model.Schedule{
			ActiveDate: today,
			ActiveTime: "09:00",
			EndTime:    "12:30",
		}},
		{IssuedTo: "Casey VIP", Purpose: "early access", Schedule: &model.Schedule{
			ActiveDate:       today.AddDate(0, 0, 1),
			ActiveTime:       "10:00",
			EndTime:          "18:00",
			AllowEarlyAccess: true,
		}},
	}

	passes, err := passUC.IssueBatch(ctx, seed)
	if err != nil {
		log.Fatalf("seed batch: %v", err)
	}
	for _, p := range passes {
		fmt.Printf("seeded: %s -> %s (%s)\n", p.IssuedTo, p.Code, p.Purpose)
	}

	fmt.Println("✅ Seeding complete.")
}
