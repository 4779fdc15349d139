package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eliaskord/storyloom/internal/api"
	"github.com/eliaskord/storyloom/internal/session"
	"github.com/eliaskord/storyloom/internal/util"
)

// Run boots the TUI program and blocks until it exits.
func Run(ctx context.Context, sess *session.Session, client *api.Client, cfg util.Config, version string) error {
	m := initialModel(ctx, sess, client, cfg, version)
	program := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
