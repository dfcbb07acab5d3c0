package scene

import (
	"errors"
	"fmt"
)

// Layout is the spatial arrangement of a scene
type Layout string

const (
	FullScreen      Layout = "FullScreen"
	CenterLayout    Layout = "CenterLayout"
	SplitLayout     Layout = "SplitLayout"
	TopBottomLayout Layout = "TopBottomLayout"
	GridLayout      Layout = "GridLayout"
	FocusLayout     Layout = "FocusLayout"
)

// Valid reports whether l is a known layout
func (l Layout) Valid() bool {
	switch l {
	case FullScreen, CenterLayout, SplitLayout, TopBottomLayout, GridLayout, FocusLayout:
		return true
	}
	return false
}

// Component names are opaque to the composer and resolved by the rendering layer.
const (
	LottieElement     = "LottieElement"
	LottieOverlay     = "LottieOverlay"
	Subtitle          = "Subtitle"
	GradientOrb       = "GradientOrb"
	FloatingParticles = "FloatingParticles"
	QRCode            = "QRCode"
)

// Camera motion kinds
const (
	KenBurns  = "ken_burns"
	ZoomFocus = "zoom_focus"
	Drift     = "drift"
)

// Background types
const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundRadial   = "radial"
)

// Element positions live in a fixed 1920x1080 reference frame whatever the output canvas.
// Renderers map them onto the real canvas with Position.Scale.
const (
	ReferenceWidth  = 1920
	ReferenceHeight = 1080
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale maps p from the reference frame onto a width x height canvas
func (p Position) Scale(width, height int) Position {
	if width <= 0 || height <= 0 {
		return p
	}
	return Position{
		X: p.X * float64(width) / ReferenceWidth,
		Y: p.Y * float64(height) / ReferenceHeight,
	}
}

// AnimationStep is one phase of an element animation
type AnimationStep struct {
	Type             string `json:"type"`
	DurationInFrames int    `json:"durationInFrames"`
	Easing           string `json:"easing,omitempty"`
	Direction        string `json:"direction,omitempty"`
}

type Animation struct {
	Enter  AnimationStep  `json:"enter"`
	During *AnimationStep `json:"during,omitempty"`
	Exit   *AnimationStep `json:"exit,omitempty"`
}

// Element is one positioned, timed visual of a scene.
// DurationInFrames of 0 means the element lives until the scene ends.
type Element struct {
	Component        string         `json:"component"`
	Props            map[string]any `json:"props"`
	Position         Position       `json:"position"`
	EnterAt          int            `json:"enterAt"`
	DurationInFrames int            `json:"durationInFrames,omitempty"`
	Animation        Animation      `json:"animation"`
}

// Src returns the src prop of the element, if any
func (e Element) Src() string {
	src, _ := e.Props["src"].(string)
	return src
}

type Background struct {
	Type  string  `json:"type"`
	Color string  `json:"color,omitempty"`
	From  string  `json:"from,omitempty"`
	To    string  `json:"to,omitempty"`
	Angle float64 `json:"angle,omitempty"`
}

type Transition struct {
	Type             string `json:"type"`
	DurationInFrames int    `json:"durationInFrames"`
	Color            string `json:"color,omitempty"`
}

type CameraMotion struct {
	Type     string  `json:"type" yaml:"type"`
	EndScale float64 `json:"endScale,omitempty" yaml:"endScale,omitempty"`
	PanX     float64 `json:"panX,omitempty" yaml:"panX,omitempty"`
	PanY     float64 `json:"panY,omitempty" yaml:"panY,omitempty"`
}

// Composed is a single composed scene. A nil Transition ends the sequence
// or was disabled explicitly.
type Composed struct {
	Layout       Layout         `json:"layout"`
	LayoutProps  map[string]any `json:"layoutProps,omitempty"`
	Background   Background     `json:"background"`
	Elements     []Element      `json:"elements"`
	Transition   *Transition    `json:"transition"`
	CameraMotion *CameraMotion  `json:"cameraMotion,omitempty"`
}

var ErrInvalidScene = errors.New("invalid scene")

// Validate checks the structural shape of a scene produced outside the rule-based composer
func (c *Composed) Validate() error {
	if !c.Layout.Valid() {
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidScene, c.Layout)
	}

	switch c.Background.Type {
	case BackgroundSolid, BackgroundGradient, BackgroundRadial:
	default:
		return fmt.Errorf("%w: unknown background type %q", ErrInvalidScene, c.Background.Type)
	}

	for i, el := range c.Elements {
		if el.Component == "" {
			return fmt.Errorf("%w: element %d has no component", ErrInvalidScene, i)
		}
		if el.Animation.Enter.Type == "" {
			return fmt.Errorf("%w: element %d has no enter animation", ErrInvalidScene, i)
		}
		if el.EnterAt < 0 {
			return fmt.Errorf("%w: element %d enters at negative frame %d", ErrInvalidScene, i, el.EnterAt)
		}
	}

	if c.Transition != nil && c.Transition.Type == "" {
		return fmt.Errorf("%w: transition without type", ErrInvalidScene)
	}

	if c.CameraMotion != nil {
		switch c.CameraMotion.Type {
		case KenBurns, ZoomFocus, Drift:
		default:
			return fmt.Errorf("%w: unknown camera motion %q", ErrInvalidScene, c.CameraMotion.Type)
		}
	}
	return nil
}

// ValidateComplete checks a scene ready for the sequence: Validate plus exactly one
// Subtitle, painted last.
func (c *Composed) ValidateComplete() error {
	if err := c.Validate(); err != nil {
		return err
	}

	subtitles := 0
	for _, el := range c.Elements {
		if el.Component == Subtitle {
			subtitles++
		}
	}
	switch {
	case subtitles != 1:
		return fmt.Errorf("%w: want one subtitle, got %d", ErrInvalidScene, subtitles)
	case c.Elements[len(c.Elements)-1].Component != Subtitle:
		return fmt.Errorf("%w: subtitle is not the last element", ErrInvalidScene)
	}
	return nil
}

// Components returns the component names of the scene in paint order
func (c *Composed) Components() []string {
	out := make([]string, len(c.Elements))
	for i, el := range c.Elements {
		out[i] = el.Component
	}
	return out
}

// TransitionType returns the transition type or "" when there is none
func (c *Composed) TransitionType() string {
	if c.Transition == nil {
		return ""
	}
	return c.Transition.Type
}
