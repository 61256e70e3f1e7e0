package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/render"
)

// composeOpts holds the command-line flags for the compose command.
type composeOpts struct {
	output string // export directory
	format string // overrides the scene format
}

// composeCommand builds a photo from a scene file and exports it.
func (c *CLI) composeCommand() *cobra.Command {
	var opts composeOpts

	cmd := &cobra.Command{
		Use:   "compose [scene.toml]",
		Short: "Compose a photo from a scene file and export it",
		Long: `Compose a photo from a scene file and export it at 4x resolution.

A scene names a page preset and lists image layers from bottom to top. Each
layer may set a studio background color, position, scale, rotation,
adjustments and an AI action (bg_remove, upscale, dress_change, face_retouch).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "export format: png, jpeg (default from scene)")

	return cmd
}

func (c *CLI) runCompose(ctx context.Context, path string, opts composeOpts) error {
	logger := loggerFromContext(ctx)

	s, err := loadScene(path)
	if err != nil {
		return err
	}
	if opts.format != "" {
		s.Format = opts.format
	}
	format, err := render.ParseFormat(s.Format)
	if err != nil {
		return err
	}

	ed, err := c.newEditor(editorOpts{outDir: opts.output})
	if err != nil {
		return err
	}
	doc, err := ed.NewDocument(s.Preset)
	if err != nil {
		return err
	}
	if s.Name != "" {
		if err := ed.RenameDocument(doc.ID, s.Name); err != nil {
			return err
		}
	}
	logger.Debug("composing", "scene", path, "preset", s.Preset, "layers", len(s.Layers))

	ids := make(map[string]string, len(s.Layers))
	for i, sl := range s.Layers {
		id, err := c.composeLayer(ctx, ed, s, sl)
		if err != nil {
			return fmt.Errorf("layer %d (%s): %w", i+1, sl.Image, err)
		}
		ids[sl.layerName()] = id
	}

	if s.Select == "" {
		ed.ClearSelection()
	} else {
		id, ok := ids[s.Select]
		if !ok {
			return errors.New(errors.ErrCodeLayerNotFound, "scene selects unknown layer %q", s.Select)
		}
		if err := ed.SelectLayer(id); err != nil {
			return err
		}
	}

	if d, ok := ed.Active(); ok {
		for i := len(d.Layers) - 1; i >= 0; i-- {
			printLayer(d.Layers[i], d.Layers[i].ID == d.SelectedLayerID)
		}
	}

	res, err := ed.Export(ctx, format)
	if err != nil {
		return err
	}
	printSuccess("Exported %s", res.Artifact.Name)
	printExport(res)
	return nil
}

// composeLayer uploads one scene layer, runs its AI action and applies its
// placement. It returns the layer id.
func (c *CLI) composeLayer(ctx context.Context, ed *editor.Editor, s *scene, sl sceneLayer) (string, error) {
	data, err := readImage(s.imagePath(sl))
	if err != nil {
		return "", err
	}
	l, err := ed.Upload(ctx, sl.layerName(), data)
	if err != nil {
		return "", err
	}

	mode, instruction, err := sl.aiAction(ed.Catalog())
	if err != nil {
		return "", err
	}
	if mode != "" {
		if _, err := c.runAIWithSpinner(ctx, ed, mode, instruction); err != nil {
			return "", err
		}
	}

	p, err := sl.patch(ed.Catalog())
	if err != nil {
		return "", err
	}
	if _, err := ed.UpdateLayer(l.ID, p); err != nil {
		return "", err
	}
	return l.ID, nil
}
