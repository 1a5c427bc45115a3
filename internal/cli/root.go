package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/prescripto/prescripto/internal/api"
	"github.com/prescripto/prescripto/internal/appstate"
	"github.com/prescripto/prescripto/internal/config"
	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/scheduler"
	"github.com/prescripto/prescripto/internal/storage"
	"github.com/prescripto/prescripto/internal/utils"
)

type Context struct {
	Ctx       context.Context
	Config    *config.Config
	Store     storage.Provider
	Client    *api.Client
	State     *appstate.State
	Scheduler *scheduler.Scheduler
	Notifier  *notifier.Notifier
	Out       io.Writer

	started bool
}

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	failColor  = color.New(color.FgRed)
	mutedColor = color.New(color.Faint)
	boldColor  = color.New(color.Bold)
)

// Context returns the command's base context.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// Writer returns where command output goes.
func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Start restores the session and loads the doctor directory once per run.
func (c *Context) Start() error {
	if c.started {
		return nil
	}
	if err := c.State.Start(c.Context()); err != nil {
		return err
	}
	c.started = true
	if c.State.Offline() {
		c.Warnf("Backend unreachable, showing doctors cached at %s", c.State.FetchedAt().Format(time.RFC822))
	}
	return nil
}

// Settings returns the stored preferences, or the defaults when they cannot be read.
func (c *Context) Settings() models.Settings {
	if c.Store != nil {
		s, err := c.Store.GetSettings()
		if err == nil {
			return s
		}
		logger.Warn("failed to read settings, using defaults", "error", err)
	}
	return models.Settings{
		CurrencySymbol:       constants.DefaultCurrencySymbol,
		RefreshIntervalSec:   constants.DefaultRefreshIntervalSec,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		Timezone:             constants.DefaultTimezone,
	}
}

// Now returns the current time in the configured timezone.
func (c *Context) Now() time.Time {
	now, err := utils.NowInTimezone(c.Settings().Timezone)
	if err != nil {
		logger.Warn("invalid timezone setting, using local time", "error", err)
		return time.Now()
	}
	return now
}

// Notify sends a toast when notifications are enabled. Failures are logged only.
func (c *Context) Notify(level notifier.Level, text string) {
	if err := c.Notifier.Notify(c.Context(), level, text); err != nil {
		logger.Debug("notification not delivered", "error", err)
	}
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Writer(), args...)
}

// Successf prints a green status line.
func (c *Context) Successf(format string, args ...interface{}) {
	okColor.Fprintf(c.Writer(), "✓ "+format+"\n", args...)
}

// Warnf prints a yellow status line.
func (c *Context) Warnf(format string, args ...interface{}) {
	warnColor.Fprintf(c.Writer(), "⚠ "+format+"\n", args...)
}

// Failf prints a red status line.
func (c *Context) Failf(format string, args ...interface{}) {
	failColor.Fprintf(c.Writer(), "❌ "+format+"\n", args...)
}

func Muted(s string) string { return mutedColor.Sprint(s) }

func Bold(s string) string { return boldColor.Sprint(s) }

func Booked(s string) string { return failColor.Sprint(s) }

func Free(s string) string { return okColor.Sprint(s) }

// ParseSlotTime accepts "14:30" or "2:30 PM" and returns HH:MM.
func ParseSlotTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := utils.ParseClockTime(s); err == nil {
		return utils.ClockTime(t), nil
	}
	if t, err := time.Parse(constants.DisplayTimeFormat, strings.ToUpper(s)); err == nil {
		return utils.ClockTime(t), nil
	}
	return "", fmt.Errorf("invalid time %q: use HH:MM or H:MM PM", s)
}

// FormatFees renders a fee with the configured currency symbol.
func FormatFees(symbol string, fees float64) string {
	if fees == float64(int64(fees)) {
		return fmt.Sprintf("%s%d", symbol, int64(fees))
	}
	return fmt.Sprintf("%s%.2f", symbol, fees)
}

// FormatWeek renders a generated week, one line per day.
func FormatWeek(week []models.DaySlots) string {
	var b strings.Builder
	for i, day := range week {
		fmt.Fprintf(&b, "[%d] %s %-12s ", i, day.Date.Format("Mon"), utils.FormatDateKey(day.DateKey))
		if len(day.Slots) == 0 {
			b.WriteString(Muted("no slots left today"))
			b.WriteString("\n")
			continue
		}
		parts := make([]string, 0, len(day.Slots))
		for _, s := range day.Slots {
			label := utils.To12Hour(s.Time)
			if s.IsBooked {
				parts = append(parts, Booked("×"+label))
			} else {
				parts = append(parts, Free(label))
			}
		}
		b.WriteString(strings.Join(parts, " "))
		fmt.Fprintf(&b, " %s\n", Muted(fmt.Sprintf("(%d free)", len(day.Available()))))
	}
	return b.String()
}
