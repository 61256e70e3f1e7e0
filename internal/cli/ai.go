package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/render"
)

// aiOpts holds the command-line flags shared by the ai and merge commands.
type aiOpts struct {
	output      string // export directory
	preset      string // page preset used as canvas
	outfit      string // outfit preset id for dress_change
	instruction string // custom outfit description for dress_change
	format      string // export format
}

func (o *aiOpts) register(cmd *cobra.Command, page string) {
	cmd.Flags().StringVarP(&o.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVarP(&o.preset, "preset", "p", page, "page preset used as canvas")
	cmd.Flags().StringVarP(&o.format, "format", "f", string(render.FormatPNG), "export format: png, jpeg")
}

// aiCommand runs one AI edit on an image file.
func (c *CLI) aiCommand() *cobra.Command {
	var opts aiOpts
	modes := make([]string, len(genai.Modes))
	for i, m := range genai.Modes {
		modes[i] = string(m)
	}

	cmd := &cobra.Command{
		Use:       "ai [mode] [image]",
		Short:     "Apply an AI edit to an image",
		Long:      "Apply an AI edit to an image and export the edited layer.\n\nModes: " + strings.Join(modes, ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: modes,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := genai.ParseMode(args[0])
			if err != nil {
				return err
			}
			return c.runAI(cmd.Context(), mode, args[1], opts)
		},
	}

	opts.register(cmd, defaultPreset)
	cmd.Flags().StringVar(&opts.outfit, "outfit", "", "outfit preset id for dress_change (see 'photostudio presets')")
	cmd.Flags().StringVar(&opts.instruction, "instruction", "", "custom outfit description for dress_change")

	return cmd
}

func (c *CLI) runAI(ctx context.Context, mode genai.Mode, path string, opts aiOpts) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	data, err := readImage(path)
	if err != nil {
		return err
	}

	ed, err := c.newEditor(editorOpts{outDir: opts.output})
	if err != nil {
		return err
	}
	instruction := opts.instruction
	if mode == genai.ModeDressChange && instruction == "" {
		if opts.outfit == "" {
			return errors.New(errors.ErrCodeInvalidInput, "dress_change needs --outfit or --instruction")
		}
		o, err := ed.Catalog().Outfit(opts.outfit)
		if err != nil {
			return err
		}
		instruction = o.Prompt
	}

	doc, err := ed.NewDocument(opts.preset)
	if err != nil {
		return err
	}
	if err := ed.RenameDocument(doc.ID, baseName(path)); err != nil {
		return err
	}
	if _, err := ed.Upload(ctx, filepath.Base(path), data); err != nil {
		return err
	}

	res, err := c.runAIWithSpinner(ctx, ed, mode, instruction)
	if err != nil {
		return err
	}
	if !res.Applied {
		printWarning("No image returned (%s); exporting the original", res.Reason)
	}

	out, err := ed.Export(ctx, format)
	if err != nil {
		return err
	}
	printExport(out)
	return nil
}

// runAIWithSpinner runs an AI edit on the selected layer while showing the
// editor's loading message.
func (c *CLI) runAIWithSpinner(ctx context.Context, ed *editor.Editor, mode genai.Mode, instruction string) (editor.AIResult, error) {
	prog := newProgress(loggerFromContext(ctx))
	sp := startSpinner(ctx, c.statusOut, fmt.Sprintf("AI processing %s...", mode.Label()))

	res, err := ed.RunAI(ctx, mode, instruction)
	if err != nil {
		sp.fail(failureMessage("AI "+mode.Label(), sp, err))
		return res, err
	}
	sp.stop()
	if res.Applied {
		prog.done(fmt.Sprintf("AI %s applied", mode.Label()))
	}
	return res, nil
}

// failureMessage describes a failed AI call, telling an interrupted command
// apart from a service error.
func failureMessage(what string, sp *spinner, err error) string {
	if sp.interrupted() {
		return what + " cancelled"
	}
	return what + " failed: " + errors.UserMessage(err)
}

// mergeCommand merges two portraits side by side.
func (c *CLI) mergeCommand() *cobra.Command {
	var opts aiOpts

	cmd := &cobra.Command{
		Use:   "merge [first] [second]",
		Short: "Merge two portraits into one studio photo",
		Long: `Merge two portraits into one studio photo.

The two people are placed side by side on a pure white background with their
faces unchanged. The merged photo is placed on a new canvas and exported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMerge(cmd.Context(), args[0], args[1], opts)
		},
	}

	opts.register(cmd, "4R Photo")

	return cmd
}

func (c *CLI) runMerge(ctx context.Context, first, second string, opts aiOpts) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	ed, err := c.newEditor(editorOpts{outDir: opts.output})
	if err != nil {
		return err
	}
	for i, path := range []string{first, second} {
		data, err := readImage(path)
		if err != nil {
			return err
		}
		if err := ed.SetMergeSlot(i+1, data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if _, err := ed.NewDocument(opts.preset); err != nil {
		return err
	}

	res, err := c.mergeWithSpinner(ctx, ed)
	if err != nil {
		return err
	}
	if !res.Applied {
		printWarning("No image returned (%s)", res.Reason)
		return nil
	}

	// Export the whole canvas, not just the merged layer.
	ed.ClearSelection()
	out, err := ed.Export(ctx, format)
	if err != nil {
		return err
	}
	printExport(out)
	return nil
}

// mergeWithSpinner merges the two filled slots into the active document
// while showing a spinner.
func (c *CLI) mergeWithSpinner(ctx context.Context, ed *editor.Editor) (editor.AIResult, error) {
	prog := newProgress(loggerFromContext(ctx))
	sp := startSpinner(ctx, c.statusOut, "AI merging photos side-by-side...")
	res, err := ed.Merge(ctx)
	if err != nil {
		sp.fail(failureMessage("Merge", sp, err))
		return res, err
	}
	sp.stop()
	if res.Applied {
		prog.done("Photos merged")
	}
	return res, nil
}

// baseName returns the file name of path without its extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
