package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/prescripto/prescripto/internal/api"
	"github.com/prescripto/prescripto/internal/appstate"
	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/cli/account"
	"github.com/prescripto/prescripto/internal/cli/appointments"
	"github.com/prescripto/prescripto/internal/cli/directory"
	"github.com/prescripto/prescripto/internal/cli/settings"
	"github.com/prescripto/prescripto/internal/cli/system"
	"github.com/prescripto/prescripto/internal/config"
	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/keyring"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/scheduler"
	"github.com/prescripto/prescripto/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"~/.config/prescripto/config.yaml" env:"PRESCRIPTO_CONFIG"`
	Verbose bool   `help:"Enable debug logging." short:"v"`

	Init   system.InitCmd   `cmd:"" help:"Initialize local storage."`
	Doctor system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Tui    system.TuiCmd    `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Debug  system.DebugCmd  `cmd:"" help:"Debug commands for troubleshooting."`

	Doctors      directory.DoctorsCmd    `cmd:"" help:"List doctors, optionally by speciality."`
	Show         directory.DoctorShowCmd `cmd:"" help:"Show a doctor's details."`
	Slots        directory.SlotsCmd      `cmd:"" help:"Show a doctor's slots for the next 7 days."`
	Book         directory.BookCmd       `cmd:"" help:"Book an appointment."`
	Appointments struct {
		List   appointments.ListCmd   `cmd:"" help:"List your appointments." default:"1"`
		Cancel appointments.CancelCmd `cmd:"" help:"Cancel an appointment."`
	} `cmd:"" help:"Manage your appointments."`

	Login    account.LoginCmd    `cmd:"" help:"Log in to your account."`
	Register account.RegisterCmd `cmd:"" help:"Create an account."`
	Logout   account.LogoutCmd   `cmd:"" help:"Log out and forget the stored session."`
	Profile  struct {
		Show   account.ProfileShowCmd   `cmd:"" help:"Show your profile." default:"1"`
		Update account.ProfileUpdateCmd `cmd:"" help:"Update profile fields."`
		Upload account.ProfileUploadCmd `cmd:"" help:"Upload a profile picture."`
	} `cmd:"" help:"Manage your profile."`

	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
}

// init and doctor open the store themselves
var manageStore = map[string]bool{
	"init":   true,
	"doctor": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Find doctors and book appointments from the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperr.Fatal(err)
	}
	if CLI.Verbose {
		cfg.Debug = true
	}

	command := ctx.Command()
	if err := logger.Init(logger.Config{
		Level:     cfg.LogLevel,
		Debug:     cfg.Debug,
		ConfigDir: cfg.ConfigDir,
		Quiet:     command == "tui",
	}); err != nil {
		apperr.Fatal(err)
	}
	logger.Debug("starting", "command", command, "backend", cfg.BackendURL, "db", cfg.DBPath)

	store := sqlite.NewStore(cfg.DBPath)
	if !manageStore[command] {
		if err := store.Init(); err != nil {
			apperr.Fatal(err)
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	client := api.New(cfg.BackendURL, cfg.RequestTimeout)
	appCtx := &cli.Context{
		Ctx:       sigCtx,
		Config:    cfg,
		Store:     store,
		Client:    client,
		State:     appstate.New(client, keyring.Store{}, store),
		Scheduler: scheduler.New(),
	}
	appCtx.Notifier = notifier.New(appCtx.Settings().NotificationsEnabled)

	err = ctx.Run(appCtx)
	stop()
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("failed to close store", "error", closeErr)
	}
	if err != nil {
		apperr.Fatal(err)
	}
}
