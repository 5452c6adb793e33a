package vision

import (
	"encoding/base64"
	"fmt"
)

// Analysis modes
const (
	ModeSingle   = "single"   // one screenshot, one battle
	ModeCombined = "combined" // several screenshots of the same battle
)

// Image subtypes accepted as-is; anything else is normalized to jpeg before
// transmission. Detection fidelity is the receiving end's problem.
var allowedMediaTypes = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/png":  "image/png",
	"image/gif":  "image/gif",
	"image/webp": "image/webp",
}

// DefaultMediaType is used when the declared subtype is missing or unrecognized.
const DefaultMediaType = "image/jpeg"

// NormalizeMediaType maps a declared subtype onto the allow-list.
func NormalizeMediaType(declared string) string {
	if normalized, ok := allowedMediaTypes[declared]; ok {
		return normalized
	}
	return DefaultMediaType
}

// ImagePayload is one screenshot: raw bytes plus the declared media subtype.
type ImagePayload struct {
	Data      []byte
	MediaType string
}

// Wire-format message types for the upstream multi-modal contract.

// Message is one conversational turn.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is either an image part or a text part.
type ContentPart struct {
	Type   string       `json:"type"`
	Source *ImageSource `json:"source,omitempty"`
	Text   string       `json:"text,omitempty"`
}

// ImageSource carries one base64-encoded image.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// AnalysisRequest is the immutable built request: all image parts followed
// by the instruction text, ready for the proxy.
type AnalysisRequest struct {
	Messages []Message
	Mode     string
	Images   int
}

// Build converts screenshots plus an analysis mode into a multi-modal
// inference request. Single mode embeds exactly one image; combined mode
// embeds all of them plus reconciliation instructions.
func Build(images []ImagePayload, mode string) (*AnalysisRequest, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("at least one image is required")
	}

	switch mode {
	case ModeSingle:
		if len(images) != 1 {
			return nil, fmt.Errorf("single mode requires exactly one image, got %d", len(images))
		}
	case ModeCombined:
	default:
		return nil, fmt.Errorf("unknown analysis mode: %q", mode)
	}

	parts := make([]ContentPart, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, ContentPart{
			Type: "image",
			Source: &ImageSource{
				Type:      "base64",
				MediaType: NormalizeMediaType(img.MediaType),
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}

	prompt := singlePrompt
	if mode == ModeCombined {
		prompt = combinedPrompt(len(images))
	}
	parts = append(parts, ContentPart{Type: "text", Text: prompt})

	return &AnalysisRequest{
		Messages: []Message{{Role: "user", Content: parts}},
		Mode:     mode,
		Images:   len(images),
	}, nil
}
