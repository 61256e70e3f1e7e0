package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/photostudio/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved editor sessions",
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionClearCommand())
	cmd.AddCommand(c.sessionPathCommand())

	return cmd
}

// sessionListCommand creates the "session list" subcommand.
func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.sessionStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			sums, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sums) == 0 {
				printInfo("No saved sessions")
				return nil
			}
			t := newTable("Session", "Documents", "Layers", "Saved")
			for _, s := range sums {
				t.Row(s.ID, fmt.Sprint(s.Documents), fmt.Sprint(s.Layers), s.SavedAt.Local().Format("Jan 2 15:04"))
			}
			fmt.Println(t.Render())
			printNextStep("Resume a session", appName+" edit --session <id>")
			return nil
		},
	}
}

// sessionClearCommand creates the "session clear" subcommand.
func (c *CLI) sessionClearCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [id]",
		Short: "Delete a saved session (default: " + session.DefaultID + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.sessionStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ids := []string{session.DefaultID}
			if len(args) == 1 {
				ids = args
			}
			if all {
				sums, err := store.List(ctx)
				if err != nil {
					return err
				}
				ids = ids[:0]
				for _, s := range sums {
					ids = append(ids, s.ID)
				}
			}

			count := 0
			for _, id := range ids {
				if err := store.Delete(ctx, id); err != nil {
					return fmt.Errorf("delete session %s: %w", id, err)
				}
				count++
			}
			printSuccess("Cleared %d session(s)", count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every saved session")
	return cmd
}

// sessionPathCommand creates the "session path" subcommand.
func (c *CLI) sessionPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where sessions and bitmaps are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.RedisURL != "" {
				printKeyValue("Sessions", "redis")
			} else {
				printKeyValue("Sessions", c.Config.SessionDir())
			}
			printKeyValue("Bitmaps", c.Config.BitmapDir())
			return nil
		},
	}
}
