package director

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ivlev/scenecomposer/internal/assets"
	"github.com/ivlev/scenecomposer/internal/elements"
	"github.com/ivlev/scenecomposer/internal/rules"
	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

const (
	DefaultFPS = 30

	// maxMatches bounds the candidate list handed to a builder
	maxMatches = 10
)

// Director composes script sections into scenes
type Director struct {
	FPS        int
	Palette    []string
	Registry   *assets.Registry
	Logger     *zap.Logger
	EndCardURL string // when set, the last scene shows a QR code for it
}

type Option func(*Director)

func WithFPS(fps int) Option {
	return func(d *Director) {
		if fps > 0 {
			d.FPS = fps
		}
	}
}

func WithPalette(palette []string) Option {
	return func(d *Director) {
		if len(palette) > 0 {
			d.Palette = palette
		}
	}
}

func WithRegistry(r *assets.Registry) Option {
	return func(d *Director) {
		if r != nil {
			d.Registry = r
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Director) {
		if l != nil {
			d.Logger = l
		}
	}
}

func WithEndCardURL(url string) Option {
	return func(d *Director) {
		d.EndCardURL = url
	}
}

// NewDirector creates a new Director with default settings
func NewDirector(opts ...Option) *Director {
	d := &Director{
		FPS:      DefaultFPS,
		Palette:  rules.DefaultPalette,
		Registry: assets.Default(),
		Logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State is carried from one section to the next
type State struct {
	PrevTransition string
	UsedIDs        map[string]struct{}
}

// NewState returns the state at the start of a sequence
func NewState() State {
	return State{UsedIDs: make(map[string]struct{})}
}

// ComposeSequence composes every section in order with the rule tables.
// It fails only when a section is structurally invalid.
func (d *Director) ComposeSequence(sections []script.Section) ([]scene.Composed, error) {
	if err := script.ValidateSections(sections); err != nil {
		return nil, err
	}

	scenes := make([]scene.Composed, 0, len(sections))
	state := NewState()
	for i, section := range sections {
		composed, next, err := d.ComposeScene(section, i, len(sections), state)
		if err != nil {
			return nil, err
		}
		state = next
		scenes = append(scenes, composed)
		scenesComposed.WithLabelValues(sourceRules).Inc()
	}

	d.Logger.Info("sequence composed",
		zap.Int("scenes", len(scenes)),
		zap.Int("used_assets", len(state.UsedIDs)),
	)
	return scenes, nil
}

// ComposeScene is one step of the sequence fold: it composes section i of total
// and returns the state for the next section. The given state is not modified.
// An invalid section returns a *script.ValidationError and the state unchanged.
func (d *Director) ComposeScene(section script.Section, index, total int, state State) (scene.Composed, State, error) {
	if err := script.ValidateSection(index, section); err != nil {
		return scene.Composed{}, state, err
	}

	fps := d.fps()
	totalFrames := int(math.Round(section.Duration * float64(fps)))
	overrides := section.Overrides

	directiveType := ""
	if section.Directive != nil {
		directiveType = section.Directive.Type
	}
	layout := rules.SelectLayout(section.Type, directiveType, 0)

	transitionType := d.resolveTransition(section, index, total, state.PrevTransition)
	camera := rules.SelectCameraMotion(section.Type, index)

	exclude := make(map[string]struct{}, len(state.UsedIDs))
	for id := range state.UsedIDs {
		exclude[id] = struct{}{}
	}
	if overrides != nil {
		for _, id := range overrides.ExcludeAssetIDs {
			exclude[id] = struct{}{}
		}
	}

	// Explicit background layers go first and are not matched again in this scene
	var els []scene.Element
	overrideIDs := make(map[string]struct{})
	if overrides != nil {
		for _, id := range overrides.BgAssetIDs {
			if _, dup := overrideIDs[id]; dup {
				continue
			}
			asset, ok := d.Registry.ByID(id)
			if !ok {
				d.Logger.Warn("unknown background asset override", zap.String("asset", id), zap.Int("scene", index+1))
				continue
			}
			els = append(els, elements.Overlay(asset, totalFrames))
			overrideIDs[id] = struct{}{}
			exclude[id] = struct{}{}
		}
	}

	excludeIDs := keys(exclude)
	matches := d.Registry.Match(section.Narration, assets.MatchOptions{
		MaxResults: maxMatches,
		ExcludeIDs: excludeIDs,
	})
	if len(matches) == 0 {
		for _, cat := range assets.HintsFor(string(section.Type)) {
			if best := d.Registry.FindBest(string(section.Type), cat, excludeIDs); best != nil {
				matches = append(matches, assets.Match{Asset: *best, Score: 0})
				break
			}
		}
	}

	mode := elements.DetermineMode(matches, overrides)
	builder, err := elements.NewBuilder(mode)
	if err != nil {
		builder = &elements.SimpleBackgroundBuilder{}
	}
	els = append(els, builder.Build(elements.Input{
		Matches:     matches,
		TotalFrames: totalFrames,
		FPS:         fps,
		DurationSec: section.Duration,
		Layout:      layout,
		Overrides:   overrides,
	})...)

	if index == total-1 && d.EndCardURL != "" {
		qr, err := elements.QRCode(d.EndCardURL, elements.SubtitleBuffer)
		if err != nil {
			d.Logger.Warn("end card qr code skipped", zap.Error(err))
		} else {
			els = append(els, qr)
		}
	}

	els = append(els, elements.Subtitle(section.Narration))

	composed := scene.Composed{
		Layout:       layout,
		Background:   scene.Background{Type: scene.BackgroundSolid, Color: rules.PaletteColor(d.Palette, index)},
		Elements:     els,
		Transition:   transitionConfig(transitionType),
		CameraMotion: camera,
	}

	d.Logger.Debug("scene composed",
		zap.Int("scene", index+1),
		zap.String("type", string(section.Type)),
		zap.String("mode", string(mode)),
		zap.String("layout", string(layout)),
		zap.String("transition", transitionType),
		zap.Int("matches", len(matches)),
		zap.Int("elements", len(els)),
	)
	scenesByMode.WithLabelValues(string(mode)).Inc()

	return composed, d.advance(state, composed, overrideIDs), nil
}

// resolveTransition applies the terminal rule, then an explicit override, then the rule table
func (d *Director) resolveTransition(section script.Section, index, total int, prev string) string {
	if index == total-1 {
		return ""
	}
	if section.Overrides != nil && section.Overrides.Transition != nil {
		if t := *section.Overrides.Transition; t != script.TransitionNone {
			return t
		}
		return ""
	}
	return rules.SelectTransition(section.Type, prev, section.Narration)
}

// advance records the assets a scene consumed and its transition.
// Assets placed through a background override stay available to later scenes.
func (d *Director) advance(state State, composed scene.Composed, skip map[string]struct{}) State {
	next := State{
		PrevTransition: composed.TransitionType(),
		UsedIDs:        make(map[string]struct{}, len(state.UsedIDs)+len(composed.Elements)),
	}
	for id := range state.UsedIDs {
		next.UsedIDs[id] = struct{}{}
	}
	for _, el := range composed.Elements {
		id, ok := d.Registry.IDForSrc(el.Src())
		if !ok {
			continue
		}
		if _, skipped := skip[id]; skipped {
			continue
		}
		next.UsedIDs[id] = struct{}{}
	}
	return next
}

func (d *Director) fps() int {
	if d.FPS <= 0 {
		return DefaultFPS
	}
	return d.FPS
}

func transitionConfig(transitionType string) *scene.Transition {
	if transitionType == "" {
		return nil
	}
	return &scene.Transition{
		Type:             transitionType,
		DurationInFrames: rules.TransitionDuration(transitionType),
		Color:            rules.TransitionColor(transitionType),
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// String describes the director configuration for logs
func (d *Director) String() string {
	return fmt.Sprintf("Director{fps=%d, palette=%d colors, assets=%d}", d.fps(), len(d.Palette), d.Registry.Len())
}
