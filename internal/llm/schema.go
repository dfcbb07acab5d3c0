package llm

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ivlev/scenecomposer/internal/rules"
	"github.com/ivlev/scenecomposer/internal/scene"
)

// ToolName is the only function the model is allowed to call
const ToolName = "compose_scene"

func step(required ...string) jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"type":             {Type: jsonschema.String},
			"durationInFrames": {Type: jsonschema.Integer},
			"easing":           {Type: jsonschema.String},
			"direction":        {Type: jsonschema.String},
		},
		Required: required,
	}
}

// sceneSchema mirrors scene.Composed
func sceneSchema() jsonschema.Definition {
	layouts := make([]string, 0, len(rules.AvailableLayouts))
	for _, l := range rules.AvailableLayouts {
		layouts = append(layouts, string(l))
	}

	element := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"component": {Type: jsonschema.String},
			"props":     {Type: jsonschema.Object},
			"position": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"x": {Type: jsonschema.Number},
					"y": {Type: jsonschema.Number},
				},
				Required: []string{"x", "y"},
			},
			"enterAt":          {Type: jsonschema.Integer, Description: "frame number"},
			"durationInFrames": {Type: jsonschema.Integer},
			"animation": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"enter":  step("type", "durationInFrames"),
					"during": step(),
					"exit":   step(),
				},
				Required: []string{"enter"},
			},
		},
		Required: []string{"component", "props", "position", "enterAt", "animation"},
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"layout": {Type: jsonschema.String, Enum: layouts},
			"layoutProps": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"ratio":     {Type: jsonschema.Number},
					"columns":   {Type: jsonschema.Integer},
					"topHeight": {Type: jsonschema.Number},
				},
			},
			"background": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"type":  {Type: jsonschema.String, Enum: []string{scene.BackgroundSolid, scene.BackgroundGradient, scene.BackgroundRadial}},
					"color": {Type: jsonschema.String},
					"from":  {Type: jsonschema.String},
					"to":    {Type: jsonschema.String},
					"angle": {Type: jsonschema.Number},
				},
				Required: []string{"type"},
			},
			"elements": {Type: jsonschema.Array, Items: &element},
			"transition": {
				Type:        jsonschema.Object,
				Description: "omit on the last scene",
				Properties: map[string]jsonschema.Definition{
					"type":             {Type: jsonschema.String, Enum: rules.AvailableTransitions},
					"durationInFrames": {Type: jsonschema.Integer},
					"color":            {Type: jsonschema.String},
				},
				Required: []string{"type", "durationInFrames"},
			},
			"cameraMotion": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"type":     {Type: jsonschema.String, Enum: rules.CameraMotionTypes},
					"endScale": {Type: jsonschema.Number},
					"panX":     {Type: jsonschema.Number},
					"panY":     {Type: jsonschema.Number},
				},
				Required: []string{"type"},
			},
		},
		Required: []string{"layout", "background", "elements"},
	}
}

func composeSceneTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        ToolName,
			Description: "Output the composed scene layout as structured data.",
			Parameters:  sceneSchema(),
		},
	}
}
