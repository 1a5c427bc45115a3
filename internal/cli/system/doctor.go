package system

import (
	"context"
	"fmt"
	"time"

	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/keyring"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/storage/sqlite"
	"github.com/prescripto/prescripto/internal/utils"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := false

	// Check 1: DB reachable
	if err := checkDBReachable(ctx); err != nil {
		ctx.Failf("Database reachable: FAIL")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Successf("Database reachable: OK")
		dbReachable = true
	}

	// Check 2: Schema version and migrations (only if DB is reachable)
	if dbReachable {
		if err := checkMigrations(ctx); err != nil {
			ctx.Failf("Schema version: FAIL")
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			ctx.Successf("Schema version: OK")
		}
	} else {
		ctx.Printf("⊘ Schema version: SKIPPED (database not reachable)\n")
	}

	// Check 3: Backend reachable
	if err := checkBackend(ctx); err != nil {
		ctx.Failf("Backend reachable: FAIL")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Successf("Backend reachable: OK (%s)", ctx.Client.BaseURL())
	}

	// Check 4: Keyring and session (warnings only)
	if !keyring.IsAvailable() {
		ctx.Warnf("Keyring: WARNING")
		ctx.Printf("   OS keyring unavailable, sessions will not persist between runs\n")
	} else if _, err := keyring.GetToken(); err != nil {
		ctx.Warnf("Session: not logged in")
	} else {
		ctx.Successf("Session: token stored")
	}

	// Check 5: Clock/timezone sanity
	if err := checkClockTimezone(ctx); err != nil {
		ctx.Failf("Clock/timezone: FAIL")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Successf("Clock/timezone: OK")
	}

	// Check 6: Tray notifier (warning only)
	if ctx.Settings().NotificationsEnabled {
		if err := checkTray(); err != nil {
			ctx.Warnf("Tray notifications: WARNING")
			ctx.Printf("   %v\n", err)
		} else {
			ctx.Successf("Tray notifications: OK")
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if sqliteStore, ok := ctx.Store.(*sqlite.Store); ok {
		db := sqliteStore.DB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkMigrations(ctx *cli.Context) error {
	sqliteStore, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return nil
	}
	runner, err := sqliteStore.Runner()
	if err != nil {
		return err
	}

	current, err := runner.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err := runner.LatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}

	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackend(ctx *cli.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx.Context(), ctx.Config.RequestTimeout)
	defer cancel()
	if _, err := ctx.Client.ListDoctors(reqCtx); err != nil {
		return err
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	tz := ctx.Settings().Timezone
	if !utils.ValidateTimezone(tz) {
		return fmt.Errorf("configured timezone %q is not valid", tz)
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		ctx.Printf("   Note: timezone is UTC\n")
	}
	return nil
}

func checkTray() error {
	dir, err := notifier.TrayConfigDir()
	if err != nil {
		return err
	}
	return notifier.CheckLockfile(dir)
}
