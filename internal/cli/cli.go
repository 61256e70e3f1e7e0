// Package cli implements the photostudio command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/buildinfo"
	"github.com/matzehuels/photostudio/pkg/config"
	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/preset"
	"github.com/matzehuels/photostudio/pkg/render"
	"github.com/matzehuels/photostudio/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "photostudio"

	// defaultPreset is the page used when a command needs a canvas and none
	// is given.
	defaultPreset = "Passport Size"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config *config.Config

	logOut    io.Writer
	statusOut io.Writer // spinner line
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), logOut: w, statusOut: os.Stderr}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Photostudio composes print-ready portrait photos",
		Long:         `Photostudio is a layered photo editor for passport, print and social media photos, with AI background removal, upscaling, outfit changes, face retouching and two-photo merges.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.Config = cfg
			registerLogHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.presetsCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.aiCommand())
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Editor Factory
// =============================================================================

// editorOpts selects optional editor wiring per command.
type editorOpts struct {
	outDir     string           // export directory
	frames     editor.FrameSync // nil for headless commands
	persistent bool             // store bitmaps in the data dir instead of memory
}

// newEditor builds an editor from the loaded configuration.
func (c *CLI) newEditor(o editorOpts) (*editor.Editor, error) {
	catalog, err := c.catalog()
	if err != nil {
		return nil, err
	}

	var store bitmap.Store = bitmap.NewMemoryStore()
	if o.persistent {
		fs, err := bitmap.NewFileStore(c.Config.BitmapDir())
		if err != nil {
			return nil, err
		}
		store = fs
	}

	outDir := o.outDir
	if outDir == "" {
		outDir = "."
	}

	opts := []editor.Option{
		editor.WithCatalog(catalog),
		editor.WithStore(store),
		editor.WithAI(c.aiService()),
		editor.WithSink(render.NewDirSink(outDir)),
		editor.WithLogger(c.Logger),
	}
	if o.frames != nil {
		opts = append(opts, editor.WithFrameSync(o.frames))
	}
	return editor.New(opts...)
}

// catalog returns the preset catalog, honoring PHOTOSTUDIO_PRESETS.
func (c *CLI) catalog() (*preset.Catalog, error) {
	if c.Config == nil || c.Config.PresetsFile == "" {
		return preset.Default(), nil
	}
	cat, err := preset.Load(c.Config.PresetsFile)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	c.Logger.Debug("loaded presets", "file", c.Config.PresetsFile, "pages", len(cat.Pages))
	return cat, nil
}

// aiService returns the Gemini client, or genai.Unavailable without an API
// key so that everything except AI actions still works.
func (c *CLI) aiService() genai.Service {
	if c.Config == nil || !c.Config.HasAI() {
		return genai.Unavailable{}
	}
	client, err := genai.NewClient(c.Config.GeminiAPIKey,
		genai.WithBaseURL(c.Config.GeminiBaseURL),
		genai.WithModel(c.Config.GeminiModel),
		genai.WithTimeout(c.Config.AITimeout),
		genai.WithRateLimit(c.Config.AIRatePerMinute),
		genai.WithLogger(c.Logger),
	)
	if err != nil {
		c.Logger.Warn("AI disabled", "error", err)
		return genai.Unavailable{}
	}
	return client
}

// sessionStore returns the Redis store when PHOTOSTUDIO_REDIS_URL is set,
// and the file store otherwise.
func (c *CLI) sessionStore(ctx context.Context) (session.Store, error) {
	if c.Config.RedisURL != "" {
		return session.NewRedisStore(ctx, c.Config.RedisURL)
	}
	return session.NewFileStore(c.Config.SessionDir())
}

// readImage reads an image file for upload.
func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
