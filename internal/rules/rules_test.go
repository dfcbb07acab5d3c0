package rules

import (
	"encoding/json"
	"testing"

	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

func TestSelectTransition(t *testing.T) {
	tests := []struct {
		name      string
		section   script.SectionType
		prev      string
		narration string
		want      string
	}{
		{"intro default", script.Intro, "", "", SlideUp},
		{"explain default", script.Explain, SlideUp, "", ColorWipe},
		{"chart default", script.Chart, "", "", ZoomIn},
		{"comparison default", script.Comparison, "", "", SlideUp},
		{"callout default", script.Callout, "", "", ZoomIn},
		{"outro default", script.Outro, "", "", Fade},
		{"repeat falls back to first differing", script.Chart, ZoomIn, "", ColorWipe},
		{"repeat of color_wipe skips it", script.Explain, ColorWipe, "", WipeLeft},
		{"upward narration overrides", script.Chart, "", "매출이 급등했습니다", SlideUp},
		{"upward english", script.Outro, "", "Prices keep rising", SlideUp},
		{"motion verb up", script.Explain, "", "Then the price goes up again", SlideUp},
		{"sign up is not motion", script.Outro, "", "Sign up and set up your alerts", Fade},
		{"up inside a word", script.Outro, "", "Check the update and the setup", Fade},
		{"upward repeat still falls back", script.Callout, SlideUp, "기하급수적으로 커집니다", ColorWipe},
		{"unknown type has no transition", script.SectionType("teaser"), "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTransition(tt.section, tt.prev, tt.narration)
			if got != tt.want {
				t.Errorf("SelectTransition(%s, %q) = %q, want %q", tt.section, tt.prev, got, tt.want)
			}
		})
	}
}

func TestSelectTransitionNeverRepeats(t *testing.T) {
	prevs := append([]string{""}, AvailableTransitions...)
	for _, st := range script.SectionTypes {
		for _, prev := range prevs {
			got := SelectTransition(st, prev, "")
			if prev != "" && got == prev {
				t.Errorf("SelectTransition(%s, %q) repeated the previous transition", st, prev)
			}
		}
	}
}

func TestTransitionConfig(t *testing.T) {
	if got := TransitionDuration(ColorWipe); got != 15 {
		t.Errorf("color_wipe duration = %d, want 15", got)
	}
	if got := TransitionDuration(Fade); got != 12 {
		t.Errorf("fade duration = %d, want 12", got)
	}
	if got := TransitionColor(ColorWipe); got != "#4FC3F7" {
		t.Errorf("color_wipe color = %q", got)
	}
	if got := TransitionColor(ZoomIn); got != "" {
		t.Errorf("zoom_in color = %q, want empty", got)
	}
}

func TestSelectLayout(t *testing.T) {
	tests := []struct {
		name      string
		section   script.SectionType
		directive string
		count     int
		want      scene.Layout
	}{
		{"chart directive", script.Explain, "chart", 0, scene.CenterLayout},
		{"compare directive with at", script.Intro, "@compare", 3, scene.SplitLayout},
		{"timeline directive", script.Chart, "timeline", 0, scene.FullScreen},
		{"flow directive", script.Outro, "flow", 0, scene.CenterLayout},
		{"unknown directive ignored", script.Callout, "hologram", 0, scene.FocusLayout},
		{"one element", script.Intro, "", 1, scene.CenterLayout},
		{"two elements", script.Intro, "", 2, scene.SplitLayout},
		{"many elements", script.Intro, "", 7, scene.GridLayout},
		{"intro default", script.Intro, "", 0, scene.FullScreen},
		{"explain default", script.Explain, "", 0, scene.SplitLayout},
		{"chart default", script.Chart, "", 0, scene.CenterLayout},
		{"comparison default", script.Comparison, "", 0, scene.SplitLayout},
		{"callout default", script.Callout, "", 0, scene.FocusLayout},
		{"outro default", script.Outro, "", 0, scene.FullScreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectLayout(tt.section, tt.directive, tt.count); got != tt.want {
				t.Errorf("SelectLayout = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelectCameraMotion(t *testing.T) {
	intro := SelectCameraMotion(script.Intro, 0)
	if intro == nil || intro.Type != scene.KenBurns || intro.EndScale != 1.12 {
		t.Fatalf("unexpected intro camera: %+v", intro)
	}

	odd := SelectCameraMotion(script.Explain, 1)
	even := SelectCameraMotion(script.Explain, 2)
	if odd.Type != scene.Drift || even.Type != scene.Drift {
		t.Fatalf("explain should drift, got %s and %s", odd.Type, even.Type)
	}
	if odd.PanX != -even.PanX || odd.PanX == 0 {
		t.Errorf("drift should alternate direction: odd=%v even=%v", odd.PanX, even.PanX)
	}

	// Alternation must not leak into the shared defaults table
	again := SelectCameraMotion(script.Explain, 1)
	if again.PanX != odd.PanX {
		t.Errorf("camera defaults mutated: %v != %v", again.PanX, odd.PanX)
	}

	zoom := SelectCameraMotion(script.Callout, 2)
	if zoom.Type != scene.ZoomFocus || zoom.PanX != 0 {
		t.Errorf("callout camera should be an unpanned zoom_focus: %+v", zoom)
	}

	if SelectCameraMotion(script.SectionType("x"), 0) != nil {
		t.Error("unknown section type should have no camera motion")
	}
}

func TestSuggestElementCount(t *testing.T) {
	tests := []struct {
		duration float64
		want     ElementCount
	}{
		{1, ElementCount{1, 2}},
		{4.99, ElementCount{1, 2}},
		{5, ElementCount{2, 3}},
		{15, ElementCount{2, 3}},
		{15.01, ElementCount{3, 5}},
		{60, ElementCount{3, 5}},
	}
	for _, tt := range tests {
		if got := SuggestElementCount(tt.duration); got != tt.want {
			t.Errorf("SuggestElementCount(%v) = %+v, want %+v", tt.duration, got, tt.want)
		}
	}
}

func TestPaletteColor(t *testing.T) {
	for i := 0; i < 9; i++ {
		if got := PaletteColor(nil, i); got != DefaultPalette[i%4] {
			t.Errorf("PaletteColor(%d) = %s", i, got)
		}
	}
	if got := PaletteColor([]string{"#000"}, 5); got != "#000" {
		t.Errorf("custom palette ignored: %s", got)
	}
}

func TestTablesSerializable(t *testing.T) {
	tables := []any{
		TransitionDefaults, ColorWipeColors, LayoutByType, LayoutByDirective, CameraDefaults,
		ElementOrdering, ElementSizing, RecommendedMotion, AvailableLayouts, AvailableComponents,
		AvailableTransitions,
	}
	for i, table := range tables {
		if _, err := json.Marshal(table); err != nil {
			t.Errorf("table %d is not serializable: %v", i, err)
		}
	}
}
