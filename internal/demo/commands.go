package demo

import (
	"context"

	"github.com/dealease/backend/usecase"
)

const (
	CmdSeed     = "seed_demo"
	CmdClear    = "clear_demo"
	CmdSimulate = "simulate_activity"
	QryStatus   = "demo_status"
)

// RegisterDebug exposes seeding and the simulator on d. sim may be nil.
func RegisterDebug(d *usecase.Dispatcher, seeder *Seeder, sim *Simulator) {
	d.RegisterCommand(CmdSeed, func(ctx context.Context, _ any) (any, error) {
		seeded, err := seeder.Seed(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"seeded": seeded, "counts": seeder.stores.Counts()}, nil
	})
	d.RegisterCommand(CmdClear, func(ctx context.Context, _ any) (any, error) {
		if err := seeder.Clear(ctx); err != nil {
			return nil, err
		}
		return seeder.stores.Counts(), nil
	})
	d.RegisterQuery(QryStatus, func(context.Context, any) (any, error) {
		return map[string]any{
			"simulator_running": sim != nil && sim.Running(),
			"counts":            seeder.stores.Counts(),
		}, nil
	})
	if sim == nil {
		return
	}
	d.RegisterCommand(CmdSimulate, func(ctx context.Context, _ any) (any, error) {
		sent, err := sim.Tick(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"sent": sent}, nil
	})
}
