package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prescripto/prescripto/internal/cli"
	"github.com/prescripto/prescripto/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if err := ctx.Start(); err != nil {
		return err
	}

	m := tui.NewModel(tui.Deps{
		Ctx:      ctx.Context(),
		State:    ctx.State,
		Backend:  ctx.Client,
		Store:    ctx.Store,
		Notifier: ctx.Notifier,
		Now:      ctx.Now,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx.Context()))
	final, err := p.Run()
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
	}
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
