// Seeds an organization and two weeks of open slots for local development.
//
// Usage:
//
//	DATABASE_URL=... ORG_ID=... go run ./scripts/seed-slots
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

const (
	seedDays     = 14
	openingHour  = 9
	closingHour  = 17
	slotMinutes  = 30
	seedTimezone = "America/Argentina/Buenos_Aires"
	seedOrgName  = "Consultorio de prueba"
	seedCategory = "health"
)

func main() {
	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	orgID, err := uuid.Parse(strings.TrimSpace(os.Getenv("ORG_ID")))
	if err != nil {
		log.Fatalf("ORG_ID must be a valid UUID: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("open pool: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx,
		`INSERT INTO organizations (id, name, timezone, category)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		orgID, seedOrgName, seedTimezone, seedCategory,
	); err != nil {
		log.Fatalf("seed organization: %v", err)
	}

	loc, err := time.LoadLocation(seedTimezone)
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	inserted := 0
	day := time.Now().In(loc).AddDate(0, 0, 1)
	for d := 0; d < seedDays; d++ {
		date := day.AddDate(0, 0, d)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		for hour := openingHour; hour < closingHour; hour++ {
			for min := 0; min < 60; min += slotMinutes {
				startsAt := time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc)
				tag, err := pool.Exec(ctx,
					`INSERT INTO slots (id, org_id, starts_at)
					 VALUES ($1, $2, $3)
					 ON CONFLICT (org_id, starts_at) DO NOTHING`,
					uuid.New(), orgID, startsAt,
				)
				if err != nil {
					log.Fatalf("seed slot %s: %v", startsAt, err)
				}
				inserted += int(tag.RowsAffected())
			}
		}
	}

	fmt.Printf("seeded %d open slots for org %s\n", inserted, orgID)
}
