package tui

import (
	"context"
	"strings"

	"finsight/internal/api"
	"finsight/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// loginValues collects the credential form inputs.
type loginValues struct {
	email    string
	password string
}

func newLoginForm(vals *loginValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@company.com").
				Value(&vals.email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.password),
		).Title("Sign in to FinSight"),
	)
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.loginForm = f
	}

	if a.loginForm.State == huh.StateCompleted {
		email := strings.TrimSpace(a.loginVals.email)
		password := a.loginVals.password
		a.loggingIn = true
		a.loginErr = nil
		return a, tea.Batch(a.spinner.Tick, loginCmd(a.client, email, password))
	}

	if a.loginForm.State == huh.StateAborted {
		return a, tea.Quit
	}

	return a, cmd
}

func loginCmd(client *api.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		user, err := client.Login(ctx, email, password)
		return LoginDoneMsg{User: user, Err: err}
	}
}

func (a App) viewLogin() string {
	t := theme.Active

	if a.loggingIn {
		style := lipgloss.NewStyle().Foreground(t.TextMuted)
		body := a.spinner.View() + style.Render(" Signing in…")
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, body,
			lipgloss.WithWhitespaceBackground(t.Background))
	}

	form := a.loginForm.View()
	if a.loginErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Red)
		form = errStyle.Render("  "+truncStr(a.loginErr.Error(), 70)) + "\n\n" + form
	}
	return form
}
