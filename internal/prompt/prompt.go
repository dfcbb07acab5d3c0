package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/scenecomposer/internal/assets"
	"github.com/ivlev/scenecomposer/internal/rules"
	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

// Context is what the model needs to compose one section
type Context struct {
	Section        script.Section
	PrevTransition string
	SceneIndex     int
	TotalScenes    int
	PrevScene      *scene.Composed
}

// Prompt is a system/user message pair
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Example is a worked input/output pair shown to the model
type Example struct {
	Input  map[string]any `yaml:"input"`
	Output map[string]any `yaml:"output"`
}

//go:embed fewshot.yaml
var fewShotYAML []byte

// FewShotExamples returns the built-in worked examples
func FewShotExamples() ([]Example, error) {
	var examples []Example
	if err := yaml.Unmarshal(fewShotYAML, &examples); err != nil {
		return nil, fmt.Errorf("parse few-shot examples: %w", err)
	}
	return examples, nil
}

const outputSchema = `{
  "layout": "<LayoutType>",
  "layoutProps"?: { "ratio"?: number, "columns"?: number, "topHeight"?: number },
  "background": { "type": "solid" | "gradient" | "radial", "color"?: string, "from"?: string, "to"?: string, "angle"?: number },
  "elements": [
    {
      "component": "<ComponentName>",
      "props": { ... },
      "position": { "x": number, "y": number },
      "enterAt": number,  // frame number
      "durationInFrames"?: number,
      "animation": {
        "enter": { "type": string, "durationInFrames": number, "easing"?: string, "direction"?: string },
        "during"?: { "type": string, "durationInFrames": number },
        "exit"?: { "type": string, "durationInFrames": number }
      }
    }
  ],
  "transition": { "type": "<TransitionType>", "durationInFrames": number, "color"?: string } | null,
  "cameraMotion"?: { "type": "ken_burns" | "zoom_focus" | "drift", "endScale"?: number, "panX"?: number, "panY"?: number }
}`

const sceneModes = `| Category | Role | Scene Position |
|----------|------|----------------|
| background | Full-screen background animation | Behind everything |
| effect | Atmospheric decoration (particles, sparkle) | Above background, below elements |
| element | Information delivery (icons, charts, logos) | Content area |
| emoji | Emotion/reaction (expressions) | Popup at emphasis points |
| character | Action subject | Motion driver |

### 1. Strong Background Mode
When a background asset is present or bgAssetIds override is set.
- Background animation plays as full-screen LottieOverlay
- Maximum 2 foreground elements
- No auto-added particles/orbs

### 2. Simple Background Mode
When no background or character asset is matched.
- Auto-adds FloatingParticles + GradientOrb for visual density
- Foreground elements staggered in by narration length

### 3. Character Mode
When a character asset is matched.
- Character placed first (left side, looping)
- Up to 3 supporting elements stagger in on the right`

const cameraMotion = `Each scene can have camera motion applied to all elements except Subtitle:
- "ken_burns": slow zoom + pan (intro/outro). endScale, panX, panY
- "zoom_focus": zoom into center (charts/callouts). endScale
- "drift": gentle horizontal drift (explanations). panX`

const compositionRules = `1. Scene duration MUST match narration duration exactly
2. Default easing: KURZGESAGT [0.32, 0, 0.15, 1]
3. Screen must not be empty for more than 0.5s (15 frames at 30fps)
4. Maximum 3 elements entering simultaneously
5. Maximum 5 elements per scene
6. Chart animations start 0.3s (9 frames) after data is mentioned in narration
7. Never use the same transition type consecutively
8. Visual continuity: the last element of scene N should relate to the first element of scene N+1
9. Do not add a Subtitle element; it is appended automatically`

// BuildSystemPrompt renders the rule tables and asset registry into the system prompt
func BuildSystemPrompt(registry *assets.Registry) string {
	var b strings.Builder

	b.WriteString("You are a motion graphics director for financial education videos in Kurzgesagt style.\n")
	b.WriteString("Your task is to compose scene layouts from script sections.\n")

	section(&b, "Available Layouts", compact(rules.AvailableLayouts))
	section(&b, "Available Components", compact(rules.AvailableComponents))
	section(&b, "Available Assets (Lottie)", indented(registry.All()))
	section(&b, "Available Transitions", compact(rules.AvailableTransitions))
	section(&b, "Color Palette", compact(rules.DefaultPalette))
	section(&b, "Color Wipe Colors", compact(rules.ColorWipeColors))
	section(&b, "Layout Defaults by Section Type", compact(rules.LayoutByType))
	section(&b, "Layout Overrides by Directive", compact(rules.LayoutByDirective))
	section(&b, "Transition Defaults by Section Type", compact(rules.TransitionDefaults))
	section(&b, "Element Sizing Defaults", indented(rules.ElementSizing))

	ordering := rules.ElementOrdering
	section(&b, "Element Ordering Rules", fmt.Sprintf(
		"- Enter order: %s\n- Stagger delay: %d frames (0.2s at 30fps)\n- Max simultaneous: %d\n- Exit starts %d frames before scene end",
		strings.Join(ordering.EnterOrder, " → "), ordering.StaggerDelay, ordering.MaxSimultaneous, ordering.ExitStartBeforeEnd,
	))

	section(&b, "Motion Recommendations", indented(rules.RecommendedMotion))
	section(&b, "Scene Modes", sceneModes)
	section(&b, "Camera Motion", cameraMotion)
	section(&b, "Rules", compositionRules)
	section(&b, "Output Format", outputSchema)

	return strings.TrimRight(b.String(), "\n")
}

// BuildFewShotSection renders the worked examples
func BuildFewShotSection() string {
	examples, err := FewShotExamples()
	if err != nil || len(examples) == 0 {
		return ""
	}

	parts := make([]string, len(examples))
	for i, ex := range examples {
		parts[i] = fmt.Sprintf("### Example %d\nInput: %s\nOutput: %s", i+1, compact(ex.Input), compact(ex.Output))
	}
	return "## Few-shot Examples\n\n" + strings.Join(parts, "\n\n")
}

// BuildUserPrompt describes a single section to compose
func BuildUserPrompt(ctx Context) string {
	s := ctx.Section
	prev := ctx.PrevTransition
	if prev == "" {
		prev = "none (first scene)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Compose scene %d/%d.\n\n", ctx.SceneIndex+1, ctx.TotalScenes)
	fmt.Fprintf(&b, "Section type: %s\n", s.Type)
	fmt.Fprintf(&b, "Narration: %q\n", s.Narration)
	fmt.Fprintf(&b, "Duration: %gs (%d frames at 30fps)\n", s.Duration, int(math.Round(s.Duration*30)))
	fmt.Fprintf(&b, "Previous transition: %s", prev)

	if s.Directive != nil {
		params := s.Directive.Params
		if params == nil {
			params = map[string]any{}
		}
		fmt.Fprintf(&b, "\nDirective: @%s %s", s.Directive.Type, compact(params))
	}

	if s.Type == script.Outro || ctx.SceneIndex == ctx.TotalScenes-1 {
		b.WriteString("\nNote: This is the last scene. Transition should be null.")
	}

	b.WriteString("\n\nRespond with a single JSON object matching the output format.")

	if ctx.PrevScene != nil {
		fmt.Fprintf(&b, "\n\nPrevious scene used components: [%s]", strings.Join(ctx.PrevScene.Components(), ", "))
		if ctx.PrevScene.CameraMotion != nil {
			fmt.Fprintf(&b, "\nPrevious camera: %s", ctx.PrevScene.CameraMotion.Type)
		}
	}

	return b.String()
}

// BuildFull combines the system prompt, the few-shot examples and the user prompt
func BuildFull(ctx Context, registry *assets.Registry) Prompt {
	system := BuildSystemPrompt(registry)
	if fewShot := BuildFewShotSection(); fewShot != "" {
		system += "\n\n" + fewShot
	}
	return Prompt{System: system, User: BuildUserPrompt(ctx)}
}

func section(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "\n## %s\n%s\n", title, body)
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func indented(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
