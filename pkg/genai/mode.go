package genai

import (
	"strings"

	"github.com/matzehuels/photostudio/pkg/errors"
)

// Mode is the kind of single-image edit.
type Mode string

// Edit modes.
const (
	ModeBackgroundRemoval Mode = "bg_remove"
	ModeUpscale           Mode = "upscale"
	ModeDressChange       Mode = "dress_change"
	ModeFaceRetouch       Mode = "face_retouch"
)

// Modes lists all edit modes.
var Modes = []Mode{ModeBackgroundRemoval, ModeUpscale, ModeDressChange, ModeFaceRetouch}

// Fixed instructions.
const (
	BackgroundRemovalPrompt = "REMOVE BACKGROUND. Return the subject perfectly cut out on a pure TRANSPARENT background. Do not add any color. High quality PNG."
	UpscalePrompt           = "UPSCALE THIS IMAGE TO 4K HD. Enhance details, remove noise, and sharpen edges for professional printing."
	FaceRetouchPrompt       = "RETOUCH FACE. Naturally smooth skin, remove blemishes, enhance eyes and features. Keep texture realistic. Studio quality."
	MergePrompt             = "ACT AS A MASTER PHOTO EDITOR. Take these two individual portrait photos and merge them into one single high-quality studio portrait. Place the two people SIDE-BY-SIDE. The background MUST be PURE WHITE. DO NOT CHANGE THE FACES; keep the original facial features 100% identical and recognizable. Adjust lighting to match both perfectly. Output must be in 4K resolution, crystal clear, sharp details."
)

var modeAliases = map[string]Mode{
	"bg_remove":          ModeBackgroundRemoval,
	"bg-remove":          ModeBackgroundRemoval,
	"background-removal": ModeBackgroundRemoval,
	"upscale":            ModeUpscale,
	"dress_change":       ModeDressChange,
	"dress-change":       ModeDressChange,
	"outfit":             ModeDressChange,
	"face_retouch":       ModeFaceRetouch,
	"face-retouch":       ModeFaceRetouch,
	"retouch":            ModeFaceRetouch,
}

// ParseMode accepts the canonical names and a few dashed aliases.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown AI mode %q", s)
}

// Label is the human-readable name used in progress messages.
func (m Mode) Label() string {
	switch m {
	case ModeBackgroundRemoval:
		return "background removal"
	case ModeDressChange:
		return "outfit change"
	case ModeFaceRetouch:
		return "face retouch"
	}
	return strings.ReplaceAll(string(m), "_", " ")
}

// Instruction returns the text sent with the image. Fixed modes ignore
// custom; the outfit change uses it as the description of the new outfit.
func (m Mode) Instruction(custom string) (string, error) {
	switch m {
	case ModeBackgroundRemoval:
		return BackgroundRemovalPrompt, nil
	case ModeUpscale:
		return UpscalePrompt, nil
	case ModeFaceRetouch:
		return FaceRetouchPrompt, nil
	case ModeDressChange:
		if strings.TrimSpace(custom) == "" {
			return "", errors.New(errors.ErrCodeInvalidInput, "outfit change needs an outfit description")
		}
		return custom, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown AI mode %q", m)
}
