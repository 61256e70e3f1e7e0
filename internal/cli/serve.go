package cli

import (
	"net"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/photostudio/internal/server"
)

// serveOpts holds options for the serve command.
type serveOpts struct {
	listen   string
	output   string
	preset   string
	sessions bool
}

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{sessions: true}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor over HTTP",
		Long: `Serve the editor as a JSON API.

The server owns a single workspace. Images are sent as data URLs and exports
are returned as image bytes and also written to the output directory.`,
		Example: `  photostudio serve
  photostudio serve --listen 127.0.0.1:9000 --output ./exports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (default $PHOTOSTUDIO_LISTEN or :8080)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "export directory (default <data dir>/exports)")
	cmd.Flags().StringVarP(&opts.preset, "preset", "p", "", "open a first document with this page preset")
	cmd.Flags().BoolVar(&opts.sessions, "sessions", opts.sessions, "enable the /sessions endpoints")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()

	if opts.listen == "" {
		opts.listen = c.Config.Listen
	}
	if opts.output == "" {
		opts.output = filepath.Join(c.Config.DataDir, "exports")
	}

	ed, err := c.newEditor(editorOpts{outDir: opts.output, persistent: true})
	if err != nil {
		return err
	}
	if opts.preset != "" {
		if _, err := ed.NewDocument(opts.preset); err != nil {
			return err
		}
	}

	srvOpts := []server.Option{server.WithLogger(c.Logger)}
	if opts.sessions {
		store, err := c.sessionStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		srvOpts = append(srvOpts, server.WithSessions(store))
	}

	if !c.Config.HasAI() {
		c.Logger.Warn("GEMINI_API_KEY is not set, AI endpoints will fail")
	}
	printInfo("Serving on %s", opts.listen)
	printDetail("Exports go to %s", opts.output)
	printNextStep("Check it", "curl http://"+healthHost(opts.listen)+"/health")
	return server.New(ed, srvOpts...).ListenAndServe(ctx, opts.listen)
}

// healthHost turns a listen address into something curl can reach.
func healthHost(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
