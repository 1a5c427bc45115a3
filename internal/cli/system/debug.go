package system

import (
	"encoding/json"
	"fmt"

	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/scheduler"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database path."`
	DumpDoctor   *DebugDumpDoctorCmd   `cmd:"" help:"Dump a doctor record as returned by the backend."`
	DumpWeek     *DebugDumpWeekCmd     `cmd:"" help:"Dump the generated booking window for a doctor."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings data as JSON."`
	ClearCache   *DebugClearCacheCmd   `cmd:"" help:"Delete the offline doctor cache."`
}

func printJSON(ctx *cli.Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path":        ctx.Store.Path(),
		"backend_url": ctx.Config.BackendURL,
		"log_path":    logger.Path(),
	})
}

type DebugDumpDoctorCmd struct {
	ID string `arg:"" help:"Doctor id."`
}

func (cmd *DebugDumpDoctorCmd) Run(ctx *cli.Context) error {
	docs, err := ctx.Client.ListDoctors(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list doctors: %w", err)
	}
	d, err := scheduler.FindDoctor(docs, cmd.ID)
	if err != nil {
		return err
	}
	return printJSON(ctx, d)
}

type DebugDumpWeekCmd struct {
	ID string `arg:"" help:"Doctor id."`
}

func (cmd *DebugDumpWeekCmd) Run(ctx *cli.Context) error {
	docs, err := ctx.Client.ListDoctors(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list doctors: %w", err)
	}
	d, err := scheduler.FindDoctor(docs, cmd.ID)
	if err != nil {
		return err
	}
	return printJSON(ctx, ctx.Scheduler.GenerateWeek(d, ctx.Now()))
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, settings)
}

type DebugClearCacheCmd struct{}

func (cmd *DebugClearCacheCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.ClearDoctorCache(); err != nil {
		return fmt.Errorf("failed to clear doctor cache: %w", err)
	}
	ctx.Println("Doctor cache cleared.")
	return nil
}
