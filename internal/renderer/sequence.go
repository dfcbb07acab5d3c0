package renderer

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ivlev/scenecomposer/internal/scene"
)

const (
	DefaultFPS    = 30
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Sequence is the document consumed by the rendering layer
type Sequence struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	FPS    int     `json:"fps" yaml:"fps"`
	Width  int     `json:"width" yaml:"width"`
	Height int     `json:"height" yaml:"height"`
	Scenes []Scene `json:"scenes" yaml:"scenes"`
}

type Scene struct {
	ID               string              `json:"id" yaml:"id"`
	Title            string              `json:"title" yaml:"title"`
	DurationInFrames int                 `json:"durationInFrames" yaml:"durationInFrames"`
	Background       Background          `json:"background" yaml:"background"`
	Transition       *Transition         `json:"transition,omitempty" yaml:"transition,omitempty"`
	Elements         []Element           `json:"elements" yaml:"elements"`
	CameraMotion     *scene.CameraMotion `json:"cameraMotion,omitempty" yaml:"cameraMotion,omitempty"`
}

type Background struct {
	Type   string   `json:"type" yaml:"type"`
	Color  string   `json:"color,omitempty" yaml:"color,omitempty"`
	Colors []string `json:"colors,omitempty" yaml:"colors,omitempty"`
	Angle  float64  `json:"angle,omitempty" yaml:"angle,omitempty"`
}

type Transition struct {
	Type     string `json:"type" yaml:"type"`
	Duration int    `json:"duration,omitempty" yaml:"duration,omitempty"`
	Color    string `json:"color,omitempty" yaml:"color,omitempty"`
}

type Element struct {
	ID               string            `json:"id" yaml:"id"`
	Component        string            `json:"component" yaml:"component"`
	Props            map[string]any    `json:"props" yaml:"props"`
	StartFrame       int               `json:"startFrame" yaml:"startFrame"`
	DurationInFrames int               `json:"durationInFrames,omitempty" yaml:"durationInFrames,omitempty"`
	Animation        Animation         `json:"animation" yaml:"animation"`
	ContainerStyle   map[string]string `json:"containerStyle,omitempty" yaml:"containerStyle,omitempty"`
}

type Animation struct {
	Preset   string `json:"preset" yaml:"preset"`
	Duration int    `json:"duration" yaml:"duration"`
	Easing   string `json:"easing,omitempty" yaml:"easing,omitempty"`
}

// Options describe the output document; zero values take the defaults
type Options struct {
	ID     string
	Title  string
	FPS    int
	Width  int
	Height int
}

// PresetMap translates composer enter animations to renderer presets
var PresetMap = map[string]string{
	"scale_in":      "scale_in",
	"fade_in":       "fade_in",
	"bounce_in":     "bounce_in",
	"slide_in":      "slide_up",
	"slide_up":      "slide_up",
	"draw_line":     "fade_in",
	"count_up":      "fade_in",
	"pop_in":        "pop_in",
	"circle_reveal": "circle_reveal",
}

// EasingMap translates composer easing names to renderer easings
var EasingMap = map[string]string{
	"KURZGESAGT": "kurzgesagt",
	"BOUNCE_IN":  "bounce_in",
	"SNAP":       "snap",
	"SMOOTH_OUT": "smooth_out",
}

const (
	defaultPreset = "fade_in"
	defaultEasing = "kurzgesagt"
)

// ToSequence assembles composed scenes into the rendering document.
// durations are in seconds; a missing title becomes "Scene N".
func ToSequence(scenes []scene.Composed, durations []float64, titles []string, opts Options) Sequence {
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	height := opts.Height
	if height <= 0 {
		height = DefaultHeight
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	seq := Sequence{
		ID:     id,
		Title:  opts.Title,
		FPS:    fps,
		Width:  width,
		Height: height,
		Scenes: make([]Scene, 0, len(scenes)),
	}

	for i, composed := range scenes {
		var duration float64
		if i < len(durations) {
			duration = durations[i]
		}
		title := fmt.Sprintf("Scene %d", i+1)
		if i < len(titles) && titles[i] != "" {
			title = titles[i]
		}
		seq.Scenes = append(seq.Scenes, convertScene(composed, i, duration, fps, title))
	}

	return seq
}

func convertScene(composed scene.Composed, index int, durationSec float64, fps int, title string) Scene {
	out := Scene{
		ID:               fmt.Sprintf("scene-%d", index+1),
		Title:            title,
		DurationInFrames: int(math.Round(durationSec * float64(fps))),
		Background:       convertBackground(composed.Background),
		Elements:         make([]Element, 0, len(composed.Elements)),
		CameraMotion:     composed.CameraMotion,
	}

	for i, el := range composed.Elements {
		out.Elements = append(out.Elements, convertElement(el, i))
	}

	if t := composed.Transition; t != nil {
		out.Transition = &Transition{Type: t.Type, Duration: t.DurationInFrames, Color: t.Color}
	}
	return out
}

func convertBackground(bg scene.Background) Background {
	out := Background{Type: bg.Type, Color: bg.Color, Angle: bg.Angle}
	if bg.From != "" && bg.To != "" {
		out.Colors = []string{bg.From, bg.To}
	}
	return out
}

func convertElement(el scene.Element, index int) Element {
	out := Element{
		ID:               fmt.Sprintf("el-%d-%s", index, strings.ToLower(el.Component)),
		Component:        el.Component,
		Props:            el.Props,
		StartFrame:       el.EnterAt,
		DurationInFrames: el.DurationInFrames,
		Animation: Animation{
			Preset:   mapPreset(el.Animation.Enter.Type),
			Duration: el.Animation.Enter.DurationInFrames,
			Easing:   mapEasing(el.Animation.Enter.Easing),
		},
	}
	if el.Component != scene.Subtitle {
		out.ContainerStyle = centered()
	}
	return out
}

func centered() map[string]string {
	return map[string]string{
		"display":        "flex",
		"justifyContent": "center",
		"alignItems":     "center",
		"width":          "100%",
		"height":         "100%",
	}
}

func mapPreset(enter string) string {
	if preset, ok := PresetMap[enter]; ok {
		return preset
	}
	return defaultPreset
}

func mapEasing(easing string) string {
	if easing == "" {
		return ""
	}
	if mapped, ok := EasingMap[easing]; ok {
		return mapped
	}
	return defaultEasing
}
