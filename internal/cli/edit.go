package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/session"
)

// editOpts holds the command-line flags for the edit command.
type editOpts struct {
	output  string // export directory
	preset  string // page preset for a new document
	session string // session id to restore and save
	fresh   bool   // ignore the saved session
}

// editCommand starts the interactive terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	opts := editOpts{preset: defaultPreset, session: session.DefaultID}

	cmd := &cobra.Command{
		Use:   "edit [image...]",
		Short: "Edit photos interactively in the terminal",
		Long: `Edit photos interactively in the terminal.

The last session is restored on start and saved on quit. Images given as
arguments are added as layers to the active document, or to a new document
from --preset if none is open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "export directory")
	cmd.Flags().StringVarP(&opts.preset, "preset", "p", opts.preset, "page preset for a new document")
	cmd.Flags().StringVarP(&opts.session, "session", "s", opts.session, "session to restore and save")
	cmd.Flags().BoolVar(&opts.fresh, "fresh", false, "start without restoring the saved session")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, images []string, opts editOpts) error {
	logger := loggerFromContext(ctx)
	if err := session.ValidateID(opts.session); err != nil {
		return fmt.Errorf("session %q: %w", opts.session, err)
	}

	frames := editor.NewFrameSignal()
	ed, err := c.newEditor(editorOpts{outDir: opts.output, frames: frames, persistent: true})
	if err != nil {
		return err
	}
	store, err := c.sessionStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if !opts.fresh {
		if err := restoreSession(ctx, ed, store, opts.session); err != nil {
			logger.Warn("could not restore session", "session", opts.session, "error", err)
		}
	}
	if ed.ActiveID() == "" {
		if _, err := ed.NewDocument(opts.preset); err != nil {
			return err
		}
	}
	for _, path := range images {
		data, err := readImage(path)
		if err != nil {
			return err
		}
		if _, err := ed.Upload(ctx, filepath.Base(path), data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	// The editor logs through the CLI logger; keep it off the alt screen.
	c.Logger.SetOutput(io.Discard)
	defer c.Logger.SetOutput(c.logOut)

	p := tea.NewProgram(NewEditModel(ctx, ed, frames), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	if err := store.Set(ctx, ed.Snapshot(opts.session)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	printSuccess("Session %s saved", opts.session)
	return nil
}

// restoreSession loads a saved workspace into ed. A missing session is not
// an error.
func restoreSession(ctx context.Context, ed *editor.Editor, store session.Store, id string) error {
	snap, err := store.Get(ctx, id)
	if err != nil || snap == nil {
		return err
	}
	if err := ed.Restore(snap); err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("session restored", "session", id, "documents", len(snap.Documents))
	return nil
}
