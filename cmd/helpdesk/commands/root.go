// Package commands holds the cobra command tree of the help-desk client.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/labdesk/helpdesk/internal/app"
	"github.com/labdesk/helpdesk/internal/session"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in, run `helpdesk login` first")

// IO is the terminal the commands talk to.
type IO struct {
	In  io.Reader
	Out io.Writer
	// ReadSecret reads a line without echo.
	ReadSecret func(prompt string) (string, error)

	lines *bufio.Reader
}

// StdIO reads from the process terminal, hiding passwords when stdin is a TTY.
func StdIO() *IO {
	stdio := &IO{In: os.Stdin, Out: os.Stdout}
	stdio.ReadSecret = func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return stdio.Prompt(prompt)
		}
		fmt.Fprint(stdio.Out, prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(stdio.Out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
	return stdio
}

// Prompt prints prompt and reads one trimmed line.
func (t *IO) Prompt(prompt string) (string, error) {
	if t.lines == nil {
		t.lines = bufio.NewReader(t.In)
	}
	fmt.Fprint(t.Out, prompt)
	line, err := t.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (t *IO) secret(prompt string) (string, error) {
	if t.ReadSecret != nil {
		return t.ReadSecret(prompt)
	}
	return t.Prompt(prompt)
}

func (t *IO) printf(format string, args ...any) {
	fmt.Fprintf(t.Out, format, args...)
}

// Root builds the command tree over a.
func Root(a *app.App, tio *IO) *cobra.Command {
	root := &cobra.Command{
		Use:           "helpdesk",
		Short:         "Lab help-desk ticketing client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetIn(tio.In)
	root.SetOut(tio.Out)

	root.AddCommand(
		loginCmd(a, tio),
		logoutCmd(a, tio),
		registerCmd(a, tio),
		confirmCmd(a, tio),
		whoamiCmd(a, tio),
		listCmd(a, tio),
		showCmd(a, tio),
		createCmd(a, tio),
		editCmd(a, tio),
		statusCmd(a, tio),
		deleteCmd(a, tio),
	)

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.NewValidationError(err.Error(), nil)
	})
	return root
}

// RenderError formats err for the terminal, listing per-field details of
// validation failures.
func RenderError(err error) string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("error: " + err.Error()))
	fields := apperrors.FieldErrors(err)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s: %s", name, fields[name])
	}
	return b.String()
}

// requireSession restores the stored session and loads tickets.
func requireSession(ctx context.Context, a *app.App) error {
	view, err := a.Start(ctx)
	if err != nil {
		return err
	}
	if view != session.ViewDashboard {
		return ErrNotSignedIn
	}
	return nil
}
