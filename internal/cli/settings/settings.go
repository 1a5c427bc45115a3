package settings

import (
	"fmt"

	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	CurrencySymbol       *string `help:"Currency symbol shown before fees."`
	RefreshIntervalSec   *int    `help:"Seconds between availability refreshes in the appointment view."`
	NotificationsEnabled *bool   `help:"Enable or disable tray notifications."`
	Timezone             *string `help:"IANA timezone used to build the booking window, or Local."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		ctx.Println("Current Settings:")
		ctx.Printf("  Currency Symbol:       %s\n", settings.CurrencySymbol)
		ctx.Printf("  Refresh Interval:      %d sec\n", settings.RefreshIntervalSec)
		ctx.Printf("  Notifications Enabled: %v\n", settings.NotificationsEnabled)
		ctx.Printf("  Timezone:              %s\n", settings.Timezone)
		ctx.Println("\nConnection:")
		ctx.Printf("  Backend URL:           %s\n", ctx.Config.BackendURL)
		ctx.Printf("  Database:              %s\n", ctx.Store.Path())
		return nil
	}

	updated := false
	if c.CurrencySymbol != nil {
		settings.CurrencySymbol = *c.CurrencySymbol
		updated = true
	}
	if c.RefreshIntervalSec != nil {
		if *c.RefreshIntervalSec < 5 {
			return fmt.Errorf("refresh interval must be at least 5 seconds")
		}
		settings.RefreshIntervalSec = *c.RefreshIntervalSec
		updated = true
	}
	if c.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *c.NotificationsEnabled
		updated = true
	}
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}

	if updated {
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ctx.Println("Settings updated successfully.")
	} else {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}
