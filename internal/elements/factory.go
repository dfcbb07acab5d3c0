package elements

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/scenecomposer/internal/assets"
	"github.com/ivlev/scenecomposer/internal/scene"
)

// Center of the reference frame
const (
	CenterX = scene.ReferenceWidth / 2
	CenterY = scene.ReferenceHeight / 2
)

const (
	subtitleY       = 950
	qrCodeSize      = 256
	qrCodeX         = 1650
	qrCodeY         = 780
	foregroundEnter = 12
	foregroundExit  = 9
)

// Lottie places a one-shot foreground animation at the canvas center.
// A zero duration leaves the element alive until the scene ends.
func Lottie(asset assets.Entry, enterAt, durationInFrames int) scene.Element {
	props := map[string]any{
		"src":  asset.Src(),
		"loop": false,
	}
	if durationInFrames > 0 {
		props["fitDurationInFrames"] = durationInFrames
	}

	return scene.Element{
		Component:        scene.LottieElement,
		Props:            props,
		Position:         scene.Position{X: CenterX, Y: CenterY},
		EnterAt:          enterAt,
		DurationInFrames: durationInFrames,
		Animation: scene.Animation{
			Enter: scene.AnimationStep{Type: "scale_in", DurationInFrames: foregroundEnter},
			Exit:  &scene.AnimationStep{Type: "fade_out", DurationInFrames: foregroundExit},
		},
	}
}

// Overlay turns a background asset into a full-bleed looping layer
func Overlay(asset assets.Entry, totalFrames int) scene.Element {
	return scene.Element{
		Component: scene.LottieOverlay,
		Props: map[string]any{
			"src":       asset.Src(),
			"loop":      true,
			"opacity":   0.25,
			"blendMode": "screen",
			"cover":     true,
		},
		Position:         scene.Position{X: CenterX, Y: CenterY},
		EnterAt:          0,
		DurationInFrames: totalFrames,
		Animation: scene.Animation{
			Enter: scene.AnimationStep{Type: "fade_in", DurationInFrames: 15},
		},
	}
}

// CharacterLead places a character on the left third, looping for the whole scene
func CharacterLead(asset assets.Entry, totalFrames int) scene.Element {
	return scene.Element{
		Component: scene.LottieElement,
		Props: map[string]any{
			"src":                 asset.Src(),
			"loop":                true,
			"fitDurationInFrames": totalFrames,
		},
		Position:         scene.Position{X: 350, Y: CenterY},
		EnterAt:          0,
		DurationInFrames: totalFrames,
		Animation: scene.Animation{
			Enter: scene.AnimationStep{Type: "slide_in", DurationInFrames: foregroundEnter},
		},
	}
}

// Subtitle shows the full narration for the whole scene
func Subtitle(narration string) scene.Element {
	return scene.Element{
		Component: scene.Subtitle,
		Props:     map[string]any{"text": narration},
		Position:  scene.Position{X: CenterX, Y: subtitleY},
		EnterAt:   0,
		Animation: scene.Animation{
			Enter: scene.AnimationStep{Type: "fade_in", DurationInFrames: 10},
		},
	}
}

// GradientOrb is a soft glow placed in the upper right margin
func GradientOrb() scene.Element {
	return scene.Element{
		Component: scene.GradientOrb,
		Props: map[string]any{
			"color":   "#4FC3F7",
			"size":    350,
			"x":       70,
			"y":       30,
			"opacity": 0.12,
			"blur":    70,
		},
		Position: scene.Position{X: CenterX, Y: CenterY},
		EnterAt:  0,
		Animation: scene.Animation{
			Enter: scene.AnimationStep{Type: "fade_in", DurationInFrames: 20},
		},
	}
}

// FloatingParticles is a low-opacity dot field over the whole frame
func FloatingParticles() scene.Element {
	return scene.Element{
		Component: scene.FloatingParticles,
		Props: map[string]any{
			"count":   12,
			"color":   "rgba(255,255,255,0.5)",
			"size":    6,
			"speed":   0.8,
			"shape":   "dot",
			"opacity": 0.18,
		},
		Position: scene.Position{X: CenterX, Y: CenterY},
		EnterAt:  0,
		Animation: scene.Animation{
			Enter: scene.AnimationStep{Type: "fade_in", DurationInFrames: 15},
		},
	}
}

// QRCode renders url as a PNG data URI shown in the lower right corner of an end card
func QRCode(url string, enterAt int) (scene.Element, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, qrCodeSize)
	if err != nil {
		return scene.Element{}, fmt.Errorf("encode qr code: %w", err)
	}

	return scene.Element{
		Component: scene.QRCode,
		Props: map[string]any{
			"src":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
			"url":  url,
			"size": qrCodeSize,
		},
		Position: scene.Position{X: qrCodeX, Y: qrCodeY},
		EnterAt:  enterAt,
		Animation: scene.Animation{
			Enter: scene.AnimationStep{Type: "pop_in", DurationInFrames: 12, Easing: "BOUNCE_IN"},
		},
	}, nil
}
