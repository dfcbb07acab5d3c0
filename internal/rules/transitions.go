package rules

import (
	"regexp"

	"github.com/ivlev/scenecomposer/internal/script"
)

// Transition names understood by the rendering layer
const (
	Fade          = "fade"
	WipeLeft      = "wipe_left"
	WipeRight     = "wipe_right"
	ColorWipe     = "color_wipe"
	CircleWipe    = "circle_wipe"
	ZoomIn        = "zoom_in"
	ZoomOut       = "zoom_out"
	SlideUp       = "slide_up"
	CrossDissolve = "cross_dissolve"
)

// TransitionDefaults is the transition played after a section of each type.
// An empty value means the type has no transition.
var TransitionDefaults = map[script.SectionType]string{
	script.Intro:      SlideUp,
	script.Explain:    ColorWipe,
	script.Chart:      ZoomIn,
	script.Comparison: SlideUp,
	script.Callout:    ZoomIn,
	script.Outro:      Fade,
}

// TransitionFallbacks are tried in order when the default would repeat the previous transition
var TransitionFallbacks = []string{ColorWipe, WipeLeft, Fade, ZoomIn, SlideUp, CrossDissolve, CircleWipe}

// ColorWipeColors maps a wipe mood to its color
var ColorWipeColors = map[string]string{
	"profit":    "#81C784",
	"loss":      "#E57373",
	"info":      "#4FC3F7",
	"highlight": "#FFD54F",
	"default":   "#4FC3F7",
}

// A bare "up" only counts after a motion verb, so "sign up" or "set up" stay neutral.
var upwardMotion = regexp.MustCompile(`(?i)상승|올라|오르|증가|성장|급등|커지|커집|` +
	`\b(rise|rising|rises|grow|grows|growing|soar|soaring|upwards?|` +
	`(go|goes|going|went|shoot|shoots|shot|climb|climbs|climbing|jump|jumps|jumped|move|moves|moving|trend|trends|trending)\s+up)\b`)

// HasUpwardMotion reports whether the narration describes something going up
func HasUpwardMotion(narration string) bool {
	return upwardMotion.MatchString(narration)
}

// SelectTransition picks the transition after a section without repeating prev.
// Returns "" when the section type has no transition.
func SelectTransition(sectionType script.SectionType, prev string, narration string) string {
	selected := TransitionDefaults[sectionType]
	if selected == "" {
		return ""
	}

	if HasUpwardMotion(narration) {
		selected = SlideUp
	}

	if selected != prev {
		return selected
	}

	for _, candidate := range TransitionFallbacks {
		if candidate != prev {
			return candidate
		}
	}
	return Fade
}

// TransitionDuration returns the transition length in frames
func TransitionDuration(transitionType string) int {
	if transitionType == ColorWipe {
		return 15
	}
	return 12
}

// TransitionColor returns the wipe color for color_wipe and "" otherwise
func TransitionColor(transitionType string) string {
	if transitionType == ColorWipe {
		return ColorWipeColors["default"]
	}
	return ""
}
