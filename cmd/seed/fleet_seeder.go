package main

import (
	"context"
	"fmt"
	"log"

	"fleet-assistant-be/internal/entity"
	"fleet-assistant-be/internal/repository/specification"
	"fleet-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// SeedDemoFleet fills an empty company with a few vehicles and parts so the
// assistant has something to talk about. A company that already has vehicles
// is left alone.
func SeedDemoFleet(ctx context.Context, uow unitofwork.UnitOfWork, companyId uuid.UUID) error {
	count, err := uow.VehicleRepository().Count(ctx, specification.CompanyOwnedBy{CompanyID: companyId})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Company %s already has %d vehicles, skipping...", companyId, count)
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	vehicles := []*entity.Vehicle{
		{CompanyId: companyId, Plate: "B 1234 XY", Make: "Toyota", Model: "Hilux", Year: 2021, Status: entity.VehicleStatusActive, OdometerKm: 84210},
		{CompanyId: companyId, Plate: "B 5678 ZZ", Make: "Isuzu", Model: "Elf", Year: 2019, Status: entity.VehicleStatusActive, OdometerKm: 152300},
		{CompanyId: companyId, Plate: "D 9012 AB", Make: "Mitsubishi", Model: "Canter", Year: 2018, Status: entity.VehicleStatusInactive, OdometerKm: 201877},
	}
	for _, v := range vehicles {
		if err := uow.VehicleRepository().Create(ctx, v); err != nil {
			return fmt.Errorf("create vehicle %s: %w", v.Plate, err)
		}
	}

	parts := []*entity.SparePart{
		{CompanyId: companyId, Sku: "OIL-5W30", Name: "Engine oil 5W-30 (4L)", Stock: 12, MinStock: 6, UnitCost: 32.5},
		{CompanyId: companyId, Sku: "BRK-PAD-F", Name: "Front brake pads", Stock: 2, MinStock: 4, UnitCost: 48},
		{CompanyId: companyId, Sku: "FLT-AIR", Name: "Air filter", Stock: 3, MinStock: 3, UnitCost: 14.2},
	}
	for _, p := range parts {
		if err := uow.SparePartRepository().Create(ctx, p); err != nil {
			return fmt.Errorf("create part %s: %w", p.Sku, err)
		}
	}

	order := &entity.MaintenanceOrder{
		CompanyId: companyId,
		VehicleId: vehicles[1].Id,
		Title:     "150k km service",
		Priority:  entity.MaintenancePriorityHigh,
		Status:    entity.MaintenanceOrderStatusOpen,
	}
	if err := uow.MaintenanceOrderRepository().Create(ctx, order); err != nil {
		return fmt.Errorf("create maintenance order: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	log.Printf("Seeded %d vehicles, %d parts and 1 maintenance order for company %s", len(vehicles), len(parts), companyId)
	return nil
}
