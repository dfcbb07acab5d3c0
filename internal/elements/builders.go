package elements

import (
	"fmt"

	"github.com/ivlev/scenecomposer/internal/assets"
	"github.com/ivlev/scenecomposer/internal/rules"
	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

const (
	// SubtitleBuffer frames are kept free of foreground entrances at the end of a scene
	SubtitleBuffer = 15

	maxStrongForeground    = 2
	maxCharacterForeground = 3
	characterColumnX       = 1200
	characterRowY          = 450
	characterRowPitch      = 120
)

// Input is everything a builder needs to lay out one scene
type Input struct {
	Matches     []assets.Match
	TotalFrames int
	FPS         int
	DurationSec float64
	Layout      scene.Layout
	Overrides   *script.Overrides
}

// Builder turns ranked asset matches into ordered scene elements.
// The subtitle is not part of a builder's output.
type Builder interface {
	Build(in Input) []scene.Element
}

// NewBuilder creates the builder for a scene mode
func NewBuilder(mode Mode) (Builder, error) {
	switch mode {
	case StrongBackgroundMode:
		return &StrongBackgroundBuilder{}, nil
	case SimpleBackgroundMode, "":
		return &SimpleBackgroundBuilder{}, nil
	case CharacterMode:
		return &CharacterBuilder{}, nil
	default:
		return nil, fmt.Errorf("unknown scene mode: %s", mode)
	}
}

// SliceFrames is the stagger between foreground entrances: at most three seconds,
// and never more than the available frames split evenly.
func SliceFrames(totalFrames, fps, count int) int {
	if count <= 0 {
		return 0
	}
	available := totalFrames - SubtitleBuffer
	if available <= 0 {
		return 0
	}
	slice := available / count
	if target := 3 * fps; target < slice {
		return target
	}
	return slice
}

// StrongBackgroundBuilder lays background matches out as overlays with at most two foreground elements
type StrongBackgroundBuilder struct{}

func (b *StrongBackgroundBuilder) Build(in Input) []scene.Element {
	var out []scene.Element
	var fg []assets.Match
	for _, m := range in.Matches {
		if m.Asset.Category == assets.Background {
			out = append(out, Overlay(m.Asset, in.TotalFrames))
			continue
		}
		fg = append(fg, m)
	}

	return append(out, stagger(fg, maxStrongForeground, in, nil)...)
}

// SimpleBackgroundBuilder adds decoration layers so the frame is never empty,
// then up to the suggested number of element, effect and emoji assets.
type SimpleBackgroundBuilder struct{}

func (b *SimpleBackgroundBuilder) Build(in Input) []scene.Element {
	out := []scene.Element{GradientOrb(), FloatingParticles()}

	var fg []assets.Match
	for _, m := range in.Matches {
		switch m.Asset.Category {
		case assets.Element, assets.Effect, assets.Emoji:
			fg = append(fg, m)
		}
	}

	limit := rules.SuggestElementCount(in.DurationSec).Max
	return append(out, stagger(fg, limit, in, nil)...)
}

// CharacterBuilder puts the best character on the left and stacks up to three
// supporting elements on the right.
type CharacterBuilder struct{}

func (b *CharacterBuilder) Build(in Input) []scene.Element {
	var out []scene.Element
	var fg []assets.Match
	placed := false
	for _, m := range in.Matches {
		if m.Asset.Category == assets.Character {
			if !placed {
				out = append(out, CharacterLead(m.Asset, in.TotalFrames))
				placed = true
			}
			continue
		}
		fg = append(fg, m)
	}

	rightColumn := func(i int, el *scene.Element) {
		el.Position = scene.Position{X: characterColumnX, Y: float64(characterRowY + i*characterRowPitch)}
	}
	return append(out, stagger(fg, maxCharacterForeground, in, rightColumn)...)
}

// stagger places up to limit foreground matches one slice apart
func stagger(matches []assets.Match, limit int, in Input, place func(i int, el *scene.Element)) []scene.Element {
	count := min(len(matches), limit)
	slice := SliceFrames(in.TotalFrames, in.FPS, count)

	var out []scene.Element
	seen := make(map[string]bool)
	for _, m := range matches {
		if len(out) >= count {
			break
		}
		if seen[m.Asset.ID] {
			continue
		}
		seen[m.Asset.ID] = true

		i := len(out)
		el := Lottie(m.Asset, i*slice, slice)
		if place != nil {
			place(i, &el)
		}
		if in.Overrides != nil {
			if enter, ok := in.Overrides.ElementEnter[i]; ok && enter != "" {
				el.Animation.Enter.Type = enter
			}
		}
		out = append(out, el)
	}
	return out
}
