package menu

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/cpuguy83/anomalybar/internal/board"
	"github.com/cpuguy83/anomalybar/internal/links"
	"github.com/cpuguy83/anomalybar/internal/ui"
)

var errCancelled = errors.New("cancelled")

// Config holds menu UI configuration.
type Config struct {
	Program string   // dmenu program to use (auto-detect if empty)
	Args    []string // extra args to pass to the program
}

// Menu implements the ui.UI interface using dmenu-style launchers.
type Menu struct {
	cfg      Config
	program  string
	logger   *slog.Logger
	onAction func(ui.Action)

	mu        sync.RWMutex
	view      *board.View
	loadErr   error
	isShowing bool
}

var _ ui.UI = (*Menu)(nil)

// New creates a new Menu UI backend.
func New(cfg Config, logger *slog.Logger) (*Menu, error) {
	if logger == nil {
		logger = slog.Default()
	}

	program := cfg.Program
	if program == "" {
		var err error
		program, err = Detect()
		if err != nil {
			return nil, err
		}
		logger.Debug("auto-detected menu program", "program", program)
	} else {
		// Verify the specified program exists
		if _, err := lookPath(program); err != nil {
			return nil, fmt.Errorf("menu program %q not found: %w", program, err)
		}
	}

	return &Menu{
		cfg:     cfg,
		program: program,
		logger:  logger,
	}, nil
}

// Show displays the board.
func (m *Menu) Show() {
	m.mu.Lock()
	if m.isShowing {
		m.mu.Unlock()
		return
	}
	m.isShowing = true
	m.mu.Unlock()

	// Run in goroutine to not block
	go func() {
		defer func() {
			m.mu.Lock()
			m.isShowing = false
			m.mu.Unlock()
		}()

		m.showBoard()
	}()
}

// Toggle shows the menu if not showing, otherwise does nothing.
// A running launcher cannot be closed programmatically.
func (m *Menu) Toggle() {
	m.Show()
}

// SetView updates the board shown on the next Show.
func (m *Menu) SetView(v *board.View, err error) {
	m.mu.Lock()
	m.view = v
	m.loadErr = err
	m.mu.Unlock()
}

// CardChanged is a no-op: each dmenu invocation renders fresh lines.
func (m *Menu) CardChanged(*board.Card) {}

// OnAction sets the callback for user actions.
func (m *Menu) OnAction(fn func(ui.Action)) {
	m.mu.Lock()
	m.onAction = fn
	m.mu.Unlock()
}

// showBoard displays the board and handles selection.
func (m *Menu) showBoard() {
	m.mu.RLock()
	v, loadErr := m.view, m.loadErr
	m.mu.RUnlock()

	lines, cards := formatBoard(v, loadErr)

	selected, err := m.runDmenu(lines, "Anomalies")
	if err != nil {
		m.logger.Debug("menu closed without selection", "error", err)
		return
	}

	selected = strings.TrimSpace(selected)
	if selected == "" || isSeparator(selected) {
		return
	}

	card, ok := cards[selected]
	if !ok {
		m.logger.Debug("selected item is not a card", "selected", selected)
		return
	}

	m.logger.Debug("showing details", "id", card.Event.ID, "city", card.Event.City)
	m.showDetails(card)
}

// showDetails displays one card and handles selection.
func (m *Menu) showDetails(card *board.Card) {
	lines, urls := formatDetails(card)

	selected, err := m.runDmenu(lines, "Details")
	if err != nil {
		m.logger.Debug("details menu closed without selection", "error", err)
		return
	}

	selected = strings.TrimSpace(selected)
	if selected == "" || isSeparator(selected) {
		return
	}

	if isBackAction(selected) {
		m.showBoard()
		return
	}

	// urls keys are already trimmed
	if url, ok := urls[selected]; ok {
		m.logger.Debug("opening URL from menu", "url", url)
		m.mu.RLock()
		fn := m.onAction
		m.mu.RUnlock()
		if fn != nil {
			fn(ui.Action{Type: ui.ActionOpenURL, URL: url, EventID: card.Event.ID})
		} else if err := links.Open(url); err != nil {
			m.logger.Warn("failed to open URL", "url", url, "error", err)
		}
		return
	}

	// For non-actionable items, copy to clipboard
	m.copyToClipboard(selected)
}

// runDmenu runs the dmenu program with the given input lines.
// Returns the selected line or errCancelled if the user pressed Escape.
func (m *Menu) runDmenu(lines []string, prompt string) (string, error) {
	args := m.buildArgs(prompt)
	cmd := exec.Command(m.program, args...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n"))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	m.logger.Debug("running dmenu", "program", m.program, "args", args)

	if err := cmd.Run(); err != nil {
		// Exit code 1 usually means user cancelled (pressed Escape)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", errCancelled
		}
		return "", fmt.Errorf("dmenu failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.String(), nil
}

// buildArgs builds command-line arguments for the dmenu program.
func (m *Menu) buildArgs(prompt string) []string {
	var args []string

	switch m.program {
	case "rofi":
		args = []string{"-dmenu", "-p", prompt, "-i"}
	case "wofi":
		args = []string{"--dmenu", "--prompt", prompt, "--insensitive"}
	case "fuzzel":
		args = []string{"--dmenu", "--prompt", prompt + ": "}
	case "bemenu":
		args = []string{"-p", prompt, "-i"}
	case "dmenu":
		args = []string{"-p", prompt, "-i", "-l", "20"}
	default:
		// Generic dmenu-compatible args
		args = []string{"-p", prompt}
	}

	return append(args, m.cfg.Args...)
}

// clipboardText strips the leading icon from a details line.
func clipboardText(line string) string {
	clean := strings.TrimSpace(line)
	for _, prefix := range []string{"📍 ", "🕒 ", "🌐 ", "⏳ ", "🏷 ", "🔗 "} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	return strings.TrimSuffix(clean, " (local)")
}

// copyToClipboard copies text to the system clipboard.
// Tries wl-copy (Wayland) first, then xclip and xsel (X11).
func (m *Menu) copyToClipboard(text string) {
	clean := clipboardText(text)

	tools := []struct {
		name  string
		args  []string
		stdin bool
	}{
		{"wl-copy", []string{clean}, false},
		{"xclip", []string{"-selection", "clipboard"}, true},
		{"xsel", []string{"--clipboard", "--input"}, true},
	}

	for _, tool := range tools {
		if path, err := lookPath(tool.name); err != nil || path == "" {
			continue
		}
		cmd := exec.Command(tool.name, tool.args...)
		if tool.stdin {
			cmd.Stdin = strings.NewReader(clean)
		}
		if err := cmd.Run(); err == nil {
			m.logger.Debug("copied to clipboard", "tool", tool.name, "text", clean)
			return
		}
	}

	m.logger.Debug("no clipboard tool available", "text", clean)
}
