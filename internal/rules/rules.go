package rules

import (
	"strings"

	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

// LayoutByType is the fallback layout for each section type
var LayoutByType = map[script.SectionType]scene.Layout{
	script.Intro:      scene.FullScreen,
	script.Explain:    scene.SplitLayout,
	script.Chart:      scene.CenterLayout,
	script.Comparison: scene.SplitLayout,
	script.Callout:    scene.FocusLayout,
	script.Outro:      scene.FullScreen,
}

// LayoutByDirective maps a directive key to the layout it forces
var LayoutByDirective = map[string]scene.Layout{
	"@chart":    scene.CenterLayout,
	"@compare":  scene.SplitLayout,
	"@timeline": scene.FullScreen,
	"@flow":     scene.CenterLayout,
}

// SelectLayout resolves the layout of a section.
// A known directive wins, then the element count (0 means unknown), then the type default.
func SelectLayout(sectionType script.SectionType, directiveType string, elementCount int) scene.Layout {
	if directiveType != "" {
		key := "@" + strings.TrimPrefix(directiveType, "@")
		if layout, ok := LayoutByDirective[key]; ok {
			return layout
		}
	}

	switch {
	case elementCount == 1:
		return scene.CenterLayout
	case elementCount == 2:
		return scene.SplitLayout
	case elementCount >= 3:
		return scene.GridLayout
	}

	return LayoutByType[sectionType]
}

// CameraDefaults is the camera motion of each section type before alternation
var CameraDefaults = map[script.SectionType]scene.CameraMotion{
	script.Intro:      {Type: scene.KenBurns, EndScale: 1.12, PanX: -30, PanY: 10},
	script.Explain:    {Type: scene.Drift, PanX: 40},
	script.Chart:      {Type: scene.ZoomFocus, EndScale: 1.1},
	script.Comparison: {Type: scene.Drift, PanX: 40},
	script.Callout:    {Type: scene.ZoomFocus, EndScale: 1.15},
	script.Outro:      {Type: scene.KenBurns, EndScale: 1.08, PanX: -15, PanY: 5},
}

// SelectCameraMotion returns the camera motion for a scene.
// Drift alternates direction: even scene indices pan the opposite way.
func SelectCameraMotion(sectionType script.SectionType, sceneIndex int) *scene.CameraMotion {
	motion, ok := CameraDefaults[sectionType]
	if !ok {
		return nil
	}
	if motion.Type == scene.Drift && sceneIndex%2 == 0 {
		motion.PanX = -motion.PanX
	}
	return &motion
}

// ElementCount is a suggested range of foreground elements
type ElementCount struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SuggestElementCount maps narration length to a foreground element range
func SuggestElementCount(durationSec float64) ElementCount {
	switch {
	case durationSec < 5:
		return ElementCount{Min: 1, Max: 2}
	case durationSec <= 15:
		return ElementCount{Min: 2, Max: 3}
	default:
		return ElementCount{Min: 3, Max: 5}
	}
}

// DefaultPalette is cycled through for scene background colors
var DefaultPalette = []string{"#0EA0E4", "#E92F60", "#14D1C8", "#4F28F2"}

// PaletteColor returns the background color of scene i
func PaletteColor(palette []string, i int) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[i%len(palette)]
}
