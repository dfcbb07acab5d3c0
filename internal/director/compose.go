package director

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivlev/scenecomposer/internal/elements"
	"github.com/ivlev/scenecomposer/internal/prompt"
	"github.com/ivlev/scenecomposer/internal/rules"
	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

// SceneComposer is an alternate producer of a single composed scene, such as a language model
type SceneComposer interface {
	ComposeScene(ctx context.Context, pc prompt.Context) (*scene.Composed, error)
}

// Mode selects how a sequence is composed
type Mode string

const (
	ModeRules Mode = "rules"
	ModeLLM   Mode = "llm"
)

var (
	ErrUnknownMode   = errors.New("unknown compose mode")
	ErrMissingClient = errors.New("llm mode requires a scene composer")
)

// ComposeConfig picks the composition path; Client is required for ModeLLM
type ComposeConfig struct {
	Mode   Mode
	Client SceneComposer
}

// Compose dispatches to the rule-based or the model-assisted path
func (d *Director) Compose(ctx context.Context, sections []script.Section, cfg ComposeConfig) ([]scene.Composed, error) {
	switch cfg.Mode {
	case ModeRules, "":
		return d.ComposeSequence(sections)
	case ModeLLM:
		if cfg.Client == nil {
			return nil, ErrMissingClient
		}
		return d.ComposeSequenceLLM(ctx, sections, cfg.Client)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, cfg.Mode)
	}
}

// ComposeSequenceLLM asks client for each section in order. A section whose call fails
// or returns an invalid scene is composed by the rules instead; the sequence always completes.
func (d *Director) ComposeSequenceLLM(ctx context.Context, sections []script.Section, client SceneComposer) ([]scene.Composed, error) {
	if err := script.ValidateSections(sections); err != nil {
		return nil, err
	}

	scenes := make([]scene.Composed, 0, len(sections))
	state := NewState()
	for i, section := range sections {
		pc := prompt.Context{
			Section:        section,
			PrevTransition: state.PrevTransition,
			SceneIndex:     i,
			TotalScenes:    len(sections),
		}
		if i > 0 {
			prev := scenes[i-1]
			pc.PrevScene = &prev
		}

		var normalized scene.Composed
		composed, err := client.ComposeScene(ctx, pc)
		if err == nil && composed == nil {
			err = errors.New("empty scene")
		}
		if err == nil {
			err = composed.Validate()
		}
		if err == nil {
			normalized = d.normalize(*composed, section, i, len(sections), state.PrevTransition)
			err = normalized.ValidateComplete()
		}

		if err != nil {
			d.Logger.Warn("llm compose failed, falling back to rules",
				zap.Int("scene", i+1),
				zap.Error(err),
			)
			fallback, next, err := d.ComposeScene(section, i, len(sections), state)
			if err != nil {
				return nil, err
			}
			state = next
			scenes = append(scenes, fallback)
			scenesComposed.WithLabelValues(sourceFallback).Inc()
			continue
		}

		scenes = append(scenes, normalized)
		state = d.advance(state, normalized, nil)
		scenesComposed.WithLabelValues(sourceLLM).Inc()
	}

	return scenes, nil
}

// normalize enforces the sequence invariants on a scene produced outside the rules:
// one trailing subtitle, a null transition only at the end or when disabled, and no
// transition repeated from the previous scene.
func (d *Director) normalize(c scene.Composed, section script.Section, index, total int, prev string) scene.Composed {
	els := make([]scene.Element, 0, len(c.Elements)+1)
	for _, el := range c.Elements {
		if el.Component == scene.Subtitle {
			continue
		}
		if el.Props == nil {
			el.Props = map[string]any{}
		}
		els = append(els, el)
	}
	c.Elements = append(els, elements.Subtitle(section.Narration))

	overridden := section.Overrides != nil && section.Overrides.Transition != nil
	switch {
	case index == total-1 || overridden:
		c.Transition = transitionConfig(d.resolveTransition(section, index, total, prev))
	case c.Transition == nil:
		c.Transition = transitionConfig(rules.SelectTransition(section.Type, prev, section.Narration))
	case c.Transition.Type == prev:
		for _, candidate := range rules.TransitionFallbacks {
			if candidate != prev {
				c.Transition = transitionConfig(candidate)
				break
			}
		}
	}
	return c
}

// GeneratePrompts renders the model prompts for every section without calling a model.
// The previous transition is tracked with the rule defaults.
func (d *Director) GeneratePrompts(sections []script.Section) []prompt.Prompt {
	out := make([]prompt.Prompt, 0, len(sections))
	prev := ""
	for i, section := range sections {
		out = append(out, prompt.BuildFull(prompt.Context{
			Section:        section,
			PrevTransition: prev,
			SceneIndex:     i,
			TotalScenes:    len(sections),
		}, d.Registry))
		prev = rules.SelectTransition(section.Type, prev, section.Narration)
	}
	return out
}
