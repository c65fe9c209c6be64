package main

import (
	"context"
	"flag"
	"log"
	"os"

	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	plansPath := flag.String("plans", "cmd/seed/plans.toml", "plan catalog to upsert")
	demoCompany := flag.String("demo-company", "", "company id to fill with demo fleet data (skipped when empty)")
	flag.Parse()

	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)

	log.Println("Seeding Plan Catalog...")
	plans, err := LoadPlanCatalog(*plansPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if err := SeedPlans(ctx, uowFactory.NewUnitOfWork(ctx), plans); err != nil {
		log.Fatalf("Error: %v", err)
	}

	if *demoCompany != "" {
		companyId, err := uuid.Parse(*demoCompany)
		if err != nil {
			log.Fatalf("Error: invalid -demo-company: %v", err)
		}
		log.Println("Seeding Demo Fleet...")
		if err := SeedDemoFleet(ctx, uowFactory.NewUnitOfWork(ctx), companyId); err != nil {
			log.Fatalf("Error: %v", err)
		}
	}

	log.Println("Seeding completed!")
}
