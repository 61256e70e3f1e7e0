// Package pkg provides the core libraries of the Photostudio editor.
//
// # Overview
//
// Photostudio composes portrait photos on fixed-size canvases (passport,
// print and social media formats). Uploaded images become layers that can be
// moved, scaled, rotated and adjusted, edited by a generative image service,
// and flattened into a high-resolution PNG or JPEG.
//
// # Architecture
//
//	image bytes
//	     ↓
//	[bitmap] (decode, content-addressed storage)
//	     ↓
//	[document] ([geom] fit, layer stack, patches)
//	     ↓
//	[workspace] (open documents, active document)
//	     ↓
//	[editor] (selection, gestures, AI edits, export)
//	     ↓
//	[render] (flatten at 4x, encode, deliver)
//
// # Main Packages
//
// [geom] - Aspect-preserving fit, rotated rectangle hit tests and transforms.
//
// [document] - Documents, layers and partial layer updates.
//
// [workspace] - The registry of open documents and untitled naming.
//
// [preset] - Page sizes, outfit prompts and backdrop colors, overridable
// from TOML.
//
// [editor] - The controller shared by the CLI, the terminal editor and the
// HTTP API. All mutation goes through it.
//
// [genai] - The generative image service contract and its Gemini client.
//
// [render] - Flattening and export.
//
// [session] - Saved workspaces in files or Redis.
//
// ## Infrastructure
//
// [errors] - Coded errors shared by every entry point.
//
// [config] - Environment configuration.
//
// [httputil] - Retry with backoff for outbound requests.
//
// [observability] - Hooks for exports, AI calls and HTTP requests.
//
// # Quick Start
//
//	ed, _ := editor.New(editor.WithAI(client))
//	_, _ = ed.NewDocument("Passport Size")
//	l, _ := ed.Upload(ctx, "me.jpg", data)
//	_, _ = ed.RunAI(ctx, genai.ModeBackgroundRemoval, "")
//	_, _ = ed.UpdateLayer(l.ID, document.BgColorPatch("#0033aa"))
//	res, _ := ed.Export(ctx, render.FormatJPEG)
//
// # Testing
//
//	go test ./pkg/...
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/geom
// [bitmap]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/bitmap
// [document]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/document
// [workspace]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/workspace
// [preset]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/preset
// [editor]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/editor
// [genai]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/genai
// [render]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/render
// [session]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/session
// [errors]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/errors
// [config]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/config
// [httputil]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/photostudio/pkg/observability
package pkg
