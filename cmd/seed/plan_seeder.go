package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/unitofwork"

	"github.com/pelletier/go-toml/v2"
)

type planCatalog struct {
	Plans []planEntry `toml:"plans"`
}

type planEntry struct {
	Slug                string   `toml:"slug"`
	Name                string   `toml:"name"`
	Provider            string   `toml:"provider"`
	Model               string   `toml:"model"`
	MonthlyMessageLimit *int     `toml:"monthly_message_limit"`
	Features            []string `toml:"features"`
	Price               float64  `toml:"price"`
}

// LoadPlanCatalog reads the TOML catalog. Slugs must be present and unique.
func LoadPlanCatalog(path string) ([]*entity.Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return parsePlanCatalog(raw)
}

func parsePlanCatalog(raw []byte) ([]*entity.Plan, error) {
	var catalog planCatalog
	if err := toml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}

	seen := make(map[string]bool, len(catalog.Plans))
	plans := make([]*entity.Plan, 0, len(catalog.Plans))
	for i, p := range catalog.Plans {
		if p.Slug == "" {
			return nil, fmt.Errorf("plan %d has no slug", i)
		}
		if seen[p.Slug] {
			return nil, fmt.Errorf("plan %q is listed twice", p.Slug)
		}
		seen[p.Slug] = true

		name := p.Name
		if name == "" {
			name = p.Slug
		}
		plans = append(plans, &entity.Plan{
			Slug:                p.Slug,
			Name:                name,
			Provider:            p.Provider,
			Model:               p.Model,
			MonthlyMessageLimit: p.MonthlyMessageLimit,
			Features:            p.Features,
			Price:               p.Price,
		})
	}
	return plans, nil
}

func SeedPlans(ctx context.Context, uow unitofwork.UnitOfWork, plans []*entity.Plan) error {
	for _, plan := range plans {
		if err := uow.SubscriptionRepository().UpsertPlan(ctx, plan); err != nil {
			return fmt.Errorf("upsert plan %s: %w", plan.Slug, err)
		}
		log.Printf("Upserted plan: %s (%s)", plan.Name, plan.Slug)
	}
	return nil
}
