package appointments

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/prescripto/prescripto/internal/booking"
	"github.com/prescripto/prescripto/internal/cli"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/utils"
)

type ListCmd struct {
	ActiveOnly bool `help:"Show only appointments that can still be cancelled."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Start(); err != nil {
		return err
	}
	list := booking.NewAppointments(ctx.Client, ctx.State)
	if err := list.Load(ctx.Context()); err != nil {
		return loginHint(ctx, err)
	}

	items := list.Items()
	if len(items) == 0 {
		ctx.Println("No appointments found")
		return nil
	}

	symbol := ctx.Settings().CurrencySymbol
	ctx.Println("My appointments:")
	for _, a := range items {
		if c.ActiveOnly && !a.Active() {
			continue
		}
		ctx.Printf("  [%s] %s - %s\n", a.ID, cli.Bold(a.DoctorData.Name), a.DoctorData.Speciality)
		ctx.Printf("      %s | %s at %s | %s\n",
			statusLabel(a), utils.FormatDateKey(a.SlotDate), utils.To12Hour(a.SlotTime), cli.FormatFees(symbol, a.Amount))
	}
	return nil
}

func statusLabel(a models.Appointment) string {
	switch {
	case a.Cancelled:
		return cli.Booked("Appointment cancelled")
	case a.IsCompleted:
		return cli.Free("Completed")
	case a.Payment:
		return cli.Free("Paid")
	default:
		return a.Status()
	}
}

type CancelCmd struct {
	ID  string `arg:"" help:"Appointment id."`
	Yes bool   `help:"Do not ask for confirmation." short:"y"`
}

func (c *CancelCmd) Run(ctx *cli.Context) error {
	if err := ctx.Start(); err != nil {
		return err
	}
	list := booking.NewAppointments(ctx.Client, ctx.State)
	if err := list.Load(ctx.Context()); err != nil {
		return loginHint(ctx, err)
	}

	appt, err := list.Find(c.ID)
	if err != nil {
		return err
	}
	if !appt.Active() {
		return fmt.Errorf("appointment %s is already %s", c.ID, appt.Status())
	}

	if !c.Yes {
		confirmed := false
		prompt := fmt.Sprintf("Cancel %s on %s at %s?", appt.DoctorData.Name, utils.FormatDateKey(appt.SlotDate), utils.To12Hour(appt.SlotTime))
		if err := huh.NewConfirm().Title(prompt).Value(&confirmed).Run(); err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Cancellation aborted.")
			return nil
		}
	}

	msg, err := list.CancelAppointment(ctx.Context(), c.ID)
	if err != nil && msg == "" {
		ctx.Notify(notifier.LevelError, apperr.UserMessage(err))
		return err
	}
	ctx.Successf("%s", msg)
	if err != nil {
		ctx.Warnf("could not refresh appointments: %s", apperr.UserMessage(err))
	}
	ctx.Notify(notifier.LevelSuccess, msg)
	return nil
}

func loginHint(ctx *cli.Context, err error) error {
	if errors.Is(err, apperr.ErrNotAuthenticated) {
		ctx.Warnf("Not logged in. Run 'prescripto login' first.")
	}
	return err
}
