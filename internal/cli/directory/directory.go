package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prescripto/prescripto/internal/booking"
	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/refresh"
)

type DoctorsCmd struct {
	Speciality string `help:"Only list doctors with this speciality." short:"s"`
}

func (c *DoctorsCmd) Run(ctx *cli.Context) error {
	if c.Speciality != "" && !knownSpeciality(c.Speciality) {
		return fmt.Errorf("unknown speciality %q (choose from: %s)", c.Speciality, strings.Join(constants.Specialities, ", "))
	}
	if err := ctx.Start(); err != nil {
		return err
	}

	doctors := ctx.State.DoctorsBySpeciality(c.Speciality)
	if ctx.State.Offline() && c.Speciality != "" {
		cached, err := ctx.Store.CachedDoctorsBySpeciality(c.Speciality)
		if err != nil {
			logger.Warn("failed to filter cached doctors", "speciality", c.Speciality, "error", err)
		} else {
			doctors = cached
		}
	}
	if len(doctors) == 0 {
		ctx.Println("No doctors found")
		return nil
	}

	symbol := ctx.Settings().CurrencySymbol
	ctx.Println("Doctors:")
	for _, d := range doctors {
		status := cli.Free("available")
		if !d.Available {
			status = cli.Muted("not available")
		}
		ctx.Printf("  [%s] %s - %s (%s)\n", d.ID, cli.Bold(d.Name), d.Speciality, status)
		ctx.Printf("      %s, %s, fees %s\n", d.Degree, d.Experience, cli.FormatFees(symbol, d.Fees))
	}
	return nil
}

func knownSpeciality(s string) bool {
	for _, known := range constants.Specialities {
		if known == s {
			return true
		}
	}
	return false
}

type DoctorShowCmd struct {
	ID string `arg:"" help:"Doctor id."`
}

func (c *DoctorShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Start(); err != nil {
		return err
	}
	d, err := ctx.State.Doctor(c.ID)
	if err != nil {
		return err
	}

	ctx.Printf("%s\n", cli.Bold(d.Name))
	ctx.Printf("  %s - %s, %s\n", d.Degree, d.Speciality, d.Experience)
	if d.About != "" {
		ctx.Printf("  %s\n", d.About)
	}
	ctx.Printf("  Appointment fee: %s\n", cli.FormatFees(ctx.Settings().CurrencySymbol, d.Fees))
	if d.Address.Line1 != "" {
		ctx.Printf("  %s, %s\n", d.Address.Line1, d.Address.Line2)
	}

	if related := ctx.State.RelatedDoctors(d); len(related) > 0 {
		ctx.Println()
		ctx.Println("Related doctors:")
		for _, r := range related {
			ctx.Printf("  [%s] %s\n", r.ID, r.Name)
		}
	}
	return nil
}

type SlotsCmd struct {
	ID       string        `arg:"" help:"Doctor id."`
	Watch    bool          `help:"Keep refreshing availability until interrupted." short:"w"`
	Interval time.Duration `help:"Refresh interval for --watch (defaults to the refresh_interval_sec setting)."`
}

func (c *SlotsCmd) Run(ctx *cli.Context) error {
	view := booking.New(ctx.Client, ctx.State, booking.WithClock(ctx.Now))
	view.Open(c.ID)
	if err := view.Load(ctx.Context()); err != nil {
		return err
	}
	printWeek(ctx, view.Snapshot())

	if !c.Watch {
		return nil
	}

	interval := c.Interval
	if interval <= 0 {
		interval = ctx.Settings().RefreshInterval()
	}
	sigCtx, stop := signal.NotifyContext(ctx.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Printf("%s\n", cli.Muted(fmt.Sprintf("refreshing every %s, ctrl+c to stop", interval)))
	task := refresh.Start(sigCtx, interval, func(tickCtx context.Context) {
		if err := view.Reconcile(tickCtx); err != nil {
			// keep the last grid; the next tick retries
			if !errors.Is(err, context.Canceled) {
				ctx.Warnf("refresh failed: %s", apperr.UserMessage(err))
			}
			return
		}
		printWeek(ctx, view.Snapshot())
	})
	<-task.Done()
	return nil
}

func printWeek(ctx *cli.Context, snap booking.Snapshot) {
	ctx.Printf("%s - %s %s\n", cli.Bold(snap.Doctor.Name), snap.Doctor.Speciality, cli.Muted(ctx.Now().Format("15:04:05")))
	ctx.Printf("%s", cli.FormatWeek(snap.Week))
}

type BookCmd struct {
	ID   string `arg:"" help:"Doctor id."`
	Day  int    `help:"Day of the booking window, 0 is today." xor:"day"`
	Date string `help:"Date key (day_month_year) instead of --day." xor:"day"`
	Time string `help:"Slot start time, e.g. 14:30 or 2:30 PM." required:""`
}

func (c *BookCmd) Run(ctx *cli.Context) error {
	hhmm, err := cli.ParseSlotTime(c.Time)
	if err != nil {
		return err
	}
	if c.Day < 0 || c.Day >= constants.WindowDays {
		return fmt.Errorf("invalid day %d: must be between 0 and %d", c.Day, constants.WindowDays-1)
	}
	if err := ctx.Start(); err != nil {
		return err
	}

	view := booking.New(ctx.Client, ctx.State, booking.WithClock(ctx.Now))
	view.Open(c.ID)
	// always book against fresh availability
	if err := view.Load(ctx.Context()); err != nil {
		return err
	}
	day := c.Day
	if c.Date != "" {
		i, ok := dayFor(view.Snapshot().Week, c.Date)
		if !ok {
			return fmt.Errorf("%s is outside the booking window", c.Date)
		}
		day = i
	}
	if err := view.SelectDay(day); err != nil {
		return err
	}
	if err := view.SelectTime(hhmm); err != nil {
		return fmt.Errorf("%s on day %d is not bookable: %w", c.Time, day, err)
	}

	res, err := view.SubmitBooking(ctx.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNotAuthenticated) {
			ctx.Warnf("%s. Run 'prescripto login' first.", apperr.ActionMessage(err, "book an appointment"))
		}
		ctx.Notify(notifier.LevelError, apperr.UserMessage(err))
		return err
	}

	ctx.Successf("%s", res.Message)
	ctx.Notify(notifier.LevelSuccess, res.Message)
	if res.NeedsReconcile {
		if err := view.Reconcile(ctx.Context()); err != nil {
			logger.Warn("could not refresh availability after booking", "doctor", c.ID, "error", err)
			return nil
		}
	}
	printWeek(ctx, view.Snapshot())
	return nil
}

func dayFor(week []models.DaySlots, dateKey string) (int, bool) {
	for i, d := range week {
		if d.DateKey == dateKey {
			return i, true
		}
	}
	return 0, false
}
