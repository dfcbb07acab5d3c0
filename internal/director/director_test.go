package director

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scenecomposer/internal/elements"
	"github.com/ivlev/scenecomposer/internal/mocks"
	"github.com/ivlev/scenecomposer/internal/prompt"
	"github.com/ivlev/scenecomposer/internal/rules"
	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

func loadFixture(t *testing.T, name string) []script.Section {
	t.Helper()
	s, err := script.Load("../../testdata/scripts/" + name)
	require.NoError(t, err)
	return s.Sections
}

func srcs(c scene.Composed) []string {
	var out []string
	for _, el := range c.Elements {
		if src := el.Src(); src != "" {
			out = append(out, src)
		}
	}
	return out
}

func TestComposeSequenceFixture(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")
	d := NewDirector()

	scenes, err := d.ComposeSequence(sections)
	require.NoError(t, err)
	require.Len(t, scenes, 6)

	for i, sc := range scenes {
		require.NoError(t, sc.ValidateComplete(), "scene %d", i+1)
		assert.Equal(t, rules.DefaultPalette[i%len(rules.DefaultPalette)], sc.Background.Color)
		assert.Equal(t, scene.BackgroundSolid, sc.Background.Type)

		require.GreaterOrEqual(t, len(sc.Elements), 2, "scene %d needs content beyond the subtitle", i+1)
		last := sc.Elements[len(sc.Elements)-1]
		assert.Equal(t, scene.Subtitle, last.Component)
		assert.Equal(t, sections[i].Narration, last.Props["text"])

		subtitles := 0
		for _, el := range sc.Elements {
			if el.Component == scene.Subtitle {
				subtitles++
			}
		}
		assert.Equal(t, 1, subtitles)
	}

	assert.Equal(t, scene.CenterLayout, scenes[2].Layout)
	assert.Equal(t, scene.SplitLayout, scenes[3].Layout)

	want := []string{rules.SlideUp, rules.ColorWipe, rules.ZoomIn, rules.SlideUp, rules.ColorWipe, ""}
	for i, sc := range scenes {
		assert.Equal(t, want[i], sc.TransitionType(), "scene %d", i+1)
	}
	assert.Equal(t, 15, scenes[1].Transition.DurationInFrames)
	assert.Equal(t, "#4FC3F7", scenes[1].Transition.Color)
	assert.Equal(t, 12, scenes[2].Transition.DurationInFrames)
}

func TestComposeSequenceDeterministic(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")

	first, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)
	second, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestComposeSequenceNoRepeatedTransitions(t *testing.T) {
	var sections []script.Section
	for i := 0; i < 8; i++ {
		sections = append(sections, script.Section{
			Type:      script.Callout,
			Narration: "가격이 급등하며 위로 올라갑니다",
			Duration:  4,
		})
	}

	scenes, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)

	for i := 1; i < len(scenes); i++ {
		prev, cur := scenes[i-1].TransitionType(), scenes[i].TransitionType()
		if prev != "" && cur != "" {
			assert.NotEqual(t, prev, cur, "scenes %d and %d", i, i+1)
		}
	}
	assert.Nil(t, scenes[len(scenes)-1].Transition)
}

func TestComposeSequenceSingleSection(t *testing.T) {
	scenes, err := NewDirector().ComposeSequence([]script.Section{
		{Type: script.Intro, Narration: "짧은 인사", Duration: 2},
	})
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Nil(t, scenes[0].Transition)
}

func TestComposeSequenceInvalidSection(t *testing.T) {
	_, err := NewDirector().ComposeSequence([]script.Section{
		{Type: script.Intro, Narration: "안녕하세요", Duration: 3},
		{Type: "montage", Narration: "이상한 타입", Duration: 3},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, script.ErrUnknownSectionType)

	var verr *script.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, verr.Index)
}

func TestComposeSceneInvalidSection(t *testing.T) {
	d := NewDirector()
	state := NewState()
	state.PrevTransition = rules.SlideUp

	tests := []struct {
		name    string
		section script.Section
		wantErr error
	}{
		{"unknown type", script.Section{Type: "recap", Narration: "돈", Duration: 3}, script.ErrUnknownSectionType},
		{"empty narration", script.Section{Type: script.Explain, Duration: 3}, nil},
		{"zero duration", script.Section{Type: script.Explain, Narration: "돈"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composed, next, err := d.ComposeScene(tt.section, 1, 2, state)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			var verr *script.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, 1, verr.Index)
			assert.Equal(t, scene.Composed{}, composed)
			assert.Equal(t, state, next)
		})
	}
}

func TestElementCaps(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")
	scenes, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)

	for i, sc := range scenes {
		var fg int
		for _, el := range sc.Elements {
			if el.Component == scene.LottieElement {
				fg++
			}
		}

		switch sc.Elements[0].Component {
		case scene.LottieOverlay:
			assert.LessOrEqual(t, fg, 2, "strong background scene %d", i+1)
		case scene.GradientOrb:
			assert.LessOrEqual(t, fg, rules.SuggestElementCount(sections[i].Duration).Max, "simple scene %d", i+1)
		default:
			// character lead plus at most three supporting elements
			assert.LessOrEqual(t, fg, 4, "character scene %d", i+1)
		}
	}
}

func TestAssetsNotReusedAcrossScenes(t *testing.T) {
	sections := []script.Section{
		{Type: script.Explain, Narration: "돈을 투자하면 원금이 자산이 됩니다", Duration: 6},
		{Type: script.Explain, Narration: "돈을 투자하면 원금이 자산이 됩니다", Duration: 6},
		{Type: script.Outro, Narration: "감사합니다", Duration: 3},
	}

	scenes, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)

	assert.Contains(t, srcs(scenes[0]), "animations/element/Coins drop.json")
	assert.NotContains(t, srcs(scenes[1]), "animations/element/Coins drop.json")
}

func TestExcludeAssetIDs(t *testing.T) {
	sections := []script.Section{
		{
			Type:      script.Explain,
			Narration: "돈을 투자하면 원금이 자산이 됩니다",
			Duration:  6,
			Overrides: &script.Overrides{ExcludeAssetIDs: []string{"coins_drop"}},
		},
	}

	scenes, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)
	assert.NotContains(t, srcs(scenes[0]), "animations/element/Coins drop.json")
}

func TestBackgroundOverride(t *testing.T) {
	sections := loadFixture(t, "space_economy.json")
	d := NewDirector()

	scenes, err := d.ComposeSequence(sections)
	require.NoError(t, err)
	require.Len(t, scenes, 3)

	first := scenes[1].Elements[0]
	assert.Equal(t, scene.LottieOverlay, first.Component)
	assert.Equal(t, "animations/background/Abstract Background.json", first.Src())

	if len(scenes[1].Elements) > 2 {
		assert.Equal(t, "bounce_in", scenes[1].Elements[1].Animation.Enter.Type)
	}

	t.Run("override assets stay available", func(t *testing.T) {
		_, state, err := d.ComposeScene(sections[1], 1, 3, NewState())
		require.NoError(t, err)
		assert.NotContains(t, state.UsedIDs, "abstract_bg")

		next := script.Section{Type: script.Explain, Narration: "추상적인 배경이 펼쳐집니다", Duration: 6}
		composed, _, err := d.ComposeScene(next, 2, 4, state)
		require.NoError(t, err)
		assert.Contains(t, srcs(composed), "animations/background/Abstract Background.json")
	})

	t.Run("unknown override asset is skipped", func(t *testing.T) {
		section := script.Section{
			Type:      script.Explain,
			Narration: "설명",
			Duration:  5,
			Overrides: &script.Overrides{BgAssetIDs: []string{"does_not_exist"}},
		}
		composed, _, err := d.ComposeScene(section, 0, 2, NewState())
		require.NoError(t, err)
		require.NoError(t, composed.ValidateComplete())
		assert.NotEqual(t, "animations/background/does_not_exist.json", composed.Elements[0].Src())
	})
}

func TestTransitionOverride(t *testing.T) {
	none := script.TransitionNone
	wipe := rules.WipeLeft
	sections := []script.Section{
		{Type: script.Intro, Narration: "시작", Duration: 3, Overrides: &script.Overrides{Transition: &wipe}},
		{Type: script.Explain, Narration: "설명", Duration: 3, Overrides: &script.Overrides{Transition: &none}},
		{Type: script.Explain, Narration: "설명", Duration: 3},
		{Type: script.Outro, Narration: "끝", Duration: 3, Overrides: &script.Overrides{Transition: &wipe}},
	}

	scenes, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)

	assert.Equal(t, rules.WipeLeft, scenes[0].TransitionType())
	assert.Nil(t, scenes[1].Transition)
	assert.Equal(t, rules.ColorWipe, scenes[2].TransitionType())
	assert.Nil(t, scenes[3].Transition, "the last scene never transitions")
}

func TestCameraMotion(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")
	scenes, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)

	require.NotNil(t, scenes[0].CameraMotion)
	assert.Equal(t, scene.KenBurns, scenes[0].CameraMotion.Type)
	require.NotNil(t, scenes[1].CameraMotion)
	assert.Equal(t, scene.Drift, scenes[1].CameraMotion.Type)
	require.NotNil(t, scenes[2].CameraMotion)
	assert.Equal(t, scene.ZoomFocus, scenes[2].CameraMotion.Type)
}

func TestEndCardURL(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")
	scenes, err := NewDirector(WithEndCardURL("https://example.com/subscribe")).ComposeSequence(sections)
	require.NoError(t, err)

	last := scenes[len(scenes)-1]
	n := len(last.Elements)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, scene.QRCode, last.Elements[n-2].Component)
	assert.Equal(t, scene.Subtitle, last.Elements[n-1].Component)

	for _, sc := range scenes[:len(scenes)-1] {
		assert.NotContains(t, sc.Components(), scene.QRCode)
	}
}

func TestOptions(t *testing.T) {
	d := NewDirector(WithFPS(60), WithPalette([]string{"#000000"}), WithFPS(-1), WithPalette(nil))
	assert.Equal(t, 60, d.FPS)
	assert.Equal(t, []string{"#000000"}, d.Palette)
	assert.Contains(t, d.String(), "fps=60")

	scenes, err := d.ComposeSequence([]script.Section{
		{Type: script.Explain, Narration: "a", Duration: 2},
		{Type: script.Explain, Narration: "b", Duration: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "#000000", scenes[1].Background.Color)
}

func TestComposeDispatch(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")
	d := NewDirector()

	_, err := d.Compose(context.Background(), sections, ComposeConfig{Mode: "dream"})
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = d.Compose(context.Background(), sections, ComposeConfig{Mode: ModeLLM})
	assert.ErrorIs(t, err, ErrMissingClient)

	scenes, err := d.Compose(context.Background(), sections, ComposeConfig{})
	require.NoError(t, err)
	assert.Len(t, scenes, len(sections))
}

func TestComposeSequenceLLMFallback(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")[:5]
	d := NewDirector()

	want, err := d.ComposeSequence(sections)
	require.NoError(t, err)

	client := mocks.NewMockSceneComposer(t)
	for i := range sections {
		index := i
		call := client.On("ComposeScene", mock.Anything, mock.MatchedBy(func(pc prompt.Context) bool {
			return pc.SceneIndex == index
		})).Once()
		if index == 2 {
			call.Return(nil, errors.New("model unavailable"))
			continue
		}
		sc := want[index]
		call.Return(&sc, nil)
	}

	llmBefore := testutil.ToFloat64(scenesComposed.WithLabelValues(sourceLLM))
	fallbackBefore := testutil.ToFloat64(scenesComposed.WithLabelValues(sourceFallback))
	rulesBefore := testutil.ToFloat64(scenesComposed.WithLabelValues(sourceRules))

	got, err := d.ComposeSequenceLLM(context.Background(), sections, client)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, 4.0, testutil.ToFloat64(scenesComposed.WithLabelValues(sourceLLM))-llmBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(scenesComposed.WithLabelValues(sourceFallback))-fallbackBefore)
	assert.Equal(t, 0.0, testutil.ToFloat64(scenesComposed.WithLabelValues(sourceRules))-rulesBefore)
}

func TestComposeSequenceRecordsMetrics(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")
	before := testutil.ToFloat64(scenesComposed.WithLabelValues(sourceRules))

	var modesBefore float64
	for _, mode := range []elements.Mode{elements.CharacterMode, elements.StrongBackgroundMode, elements.SimpleBackgroundMode} {
		modesBefore += testutil.ToFloat64(scenesByMode.WithLabelValues(string(mode)))
	}

	_, err := NewDirector().ComposeSequence(sections)
	require.NoError(t, err)

	var modesAfter float64
	for _, mode := range []elements.Mode{elements.CharacterMode, elements.StrongBackgroundMode, elements.SimpleBackgroundMode} {
		modesAfter += testutil.ToFloat64(scenesByMode.WithLabelValues(string(mode)))
	}
	assert.Equal(t, float64(len(sections)), testutil.ToFloat64(scenesComposed.WithLabelValues(sourceRules))-before)
	assert.Equal(t, float64(len(sections)), modesAfter-modesBefore)
}

func TestComposeSequenceLLMInvalidScene(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")[:2]
	d := NewDirector()

	want, err := d.ComposeSequence(sections)
	require.NoError(t, err)

	client := mocks.NewMockSceneComposer(t)
	client.On("ComposeScene", mock.Anything, mock.MatchedBy(func(pc prompt.Context) bool {
		return pc.SceneIndex == 0 && pc.PrevScene == nil && pc.PrevTransition == ""
	})).Return(&scene.Composed{Layout: "mosaic"}, nil).Once()
	client.On("ComposeScene", mock.Anything, mock.MatchedBy(func(pc prompt.Context) bool {
		return pc.SceneIndex == 1 && pc.PrevScene != nil && pc.PrevTransition == rules.SlideUp
	})).Return(nil, nil).Once()

	got, err := d.ComposeSequenceLLM(context.Background(), sections, client)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestComposeSequenceLLMNormalizes(t *testing.T) {
	sections := []script.Section{
		{Type: script.Explain, Narration: "첫 번째 장면", Duration: 4},
		{Type: script.Explain, Narration: "두 번째 장면", Duration: 4},
		{Type: script.Outro, Narration: "마지막 장면", Duration: 4},
	}

	modelScene := func(transition *scene.Transition) *scene.Composed {
		return &scene.Composed{
			Layout:     scene.CenterLayout,
			Background: scene.Background{Type: scene.BackgroundGradient, From: "#000000", To: "#111111"},
			Elements: []scene.Element{
				{Component: scene.Subtitle, Props: map[string]any{"text": "model subtitle"}, Animation: scene.Animation{Enter: scene.AnimationStep{Type: "fade_in", DurationInFrames: 6}}},
				{Component: scene.GradientOrb, Animation: scene.Animation{Enter: scene.AnimationStep{Type: "fade_in", DurationInFrames: 20}}},
			},
			Transition: transition,
		}
	}

	client := mocks.NewMockSceneComposer(t)
	client.On("ComposeScene", mock.Anything, mock.MatchedBy(func(pc prompt.Context) bool { return pc.SceneIndex == 0 })).
		Return(modelScene(&scene.Transition{Type: rules.Fade, DurationInFrames: 12}), nil).Once()
	client.On("ComposeScene", mock.Anything, mock.MatchedBy(func(pc prompt.Context) bool { return pc.SceneIndex == 1 })).
		Return(modelScene(&scene.Transition{Type: rules.Fade, DurationInFrames: 12}), nil).Once()
	client.On("ComposeScene", mock.Anything, mock.MatchedBy(func(pc prompt.Context) bool { return pc.SceneIndex == 2 })).
		Return(modelScene(&scene.Transition{Type: rules.ZoomIn, DurationInFrames: 12}), nil).Once()

	got, err := NewDirector().ComposeSequenceLLM(context.Background(), sections, client)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, sc := range got {
		require.Len(t, sc.Elements, 2)
		assert.Equal(t, scene.GradientOrb, sc.Elements[0].Component)
		assert.NotNil(t, sc.Elements[0].Props)
		assert.Equal(t, scene.Subtitle, sc.Elements[1].Component)
		assert.Equal(t, sections[i].Narration, sc.Elements[1].Props["text"])
		assert.Equal(t, scene.BackgroundGradient, sc.Background.Type)
	}

	assert.Equal(t, rules.Fade, got[0].TransitionType())
	assert.Equal(t, rules.ColorWipe, got[1].TransitionType(), "repeat replaced by the first differing fallback")
	assert.Nil(t, got[2].Transition)
}

func TestNormalizeMissingTransition(t *testing.T) {
	d := NewDirector()
	section := script.Section{Type: script.Chart, Narration: "그래프", Duration: 5}

	got := d.normalize(scene.Composed{Layout: scene.CenterLayout}, section, 0, 3, "")
	assert.Equal(t, rules.ZoomIn, got.TransitionType())

	none := script.TransitionNone
	section.Overrides = &script.Overrides{Transition: &none}
	got = d.normalize(scene.Composed{Layout: scene.CenterLayout, Transition: &scene.Transition{Type: rules.Fade}}, section, 0, 3, "")
	assert.Nil(t, got.Transition)
}

func TestGeneratePrompts(t *testing.T) {
	sections := loadFixture(t, "compound_interest.yaml")
	prompts := NewDirector().GeneratePrompts(sections)
	require.Len(t, prompts, len(sections))

	assert.Contains(t, prompts[0].User, "Compose scene 1/6.")
	assert.Contains(t, prompts[0].User, "Previous transition: none (first scene)")
	assert.Contains(t, prompts[1].User, "Previous transition: slide_up")
	assert.Contains(t, prompts[2].User, "Directive: @chart")
	assert.Contains(t, prompts[5].User, "This is the last scene")

	for _, p := range prompts {
		assert.True(t, strings.HasPrefix(p.System, "You are a motion graphics director"))
		assert.Equal(t, prompts[0].System, p.System)
	}
}
