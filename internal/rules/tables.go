package rules

import "github.com/ivlev/scenecomposer/internal/scene"

// Ordering describes how elements of a scene should enter
type Ordering struct {
	EnterOrder         []string `json:"enterOrder"`
	StaggerDelay       int      `json:"staggerDelay"`
	MaxSimultaneous    int      `json:"maxSimultaneous"`
	ExitStartBeforeEnd int      `json:"exitStartBeforeEnd"`
}

// ElementOrdering: stagger 6 frames (0.2s at 30fps), exits start 15 frames before the end
var ElementOrdering = Ordering{
	EnterOrder:         []string{"background", "layout_frame", "character", "label", "main_content", "data", "effect"},
	StaggerDelay:       6,
	MaxSimultaneous:    3,
	ExitStartBeforeEnd: 15,
}

// Size is a default element box in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

var ElementSizing = map[string]Size{
	"character":       {Width: 400, Height: 500},
	"chart":           {Width: 800, Height: 500},
	"countUpNumber":   {Width: 400, Height: 120},
	"calloutBox":      {Width: 600, Height: 200},
	"comparisonTable": {Width: 900, Height: 400},
	"icon":            {Width: 120, Height: 120},
	"titleCard":       {Width: 1200, Height: 400},
	"endCard":         {Width: 1000, Height: 600},
}

// Motion is a recommended enter/during/exit combination for a component
type Motion struct {
	Enter  string `json:"enter"`
	During string `json:"during"`
	Exit   string `json:"exit"`
}

var RecommendedMotion = map[string]Motion{
	"Character":             {Enter: "slide_in", During: "float", Exit: "slide_out"},
	"CountUpNumber":         {Enter: "bounce_in", During: "pulse", Exit: "fade_out"},
	"AnimatedLineChart":     {Enter: "draw_line", During: "none", Exit: "fade_out"},
	"CompoundInterestChart": {Enter: "draw_line", During: "none", Exit: "fade_out"},
	"CalloutBox":            {Enter: "scale_in", During: "pulse", Exit: "scale_out"},
	"TitleCard":             {Enter: "scale_in", During: "none", Exit: "fade_out"},
	"EndCard":               {Enter: "scale_in", During: "none", Exit: "fade_out"},
	"FloatingIcons":         {Enter: "fade_in", During: "float", Exit: "fade_out"},
	"LottieElement":         {Enter: "scale_in", During: "none", Exit: "fade_out"},
	"Subtitle":              {Enter: "fade_in", During: "none", Exit: "fade_out"},
}

var AvailableLayouts = []scene.Layout{
	scene.FullScreen,
	scene.CenterLayout,
	scene.SplitLayout,
	scene.TopBottomLayout,
	scene.GridLayout,
	scene.FocusLayout,
}

var AvailableComponents = []string{
	"TitleCard",
	"EndCard",
	"CountUpNumber",
	"CompoundInterestChart",
	"CalloutBox",
	scene.LottieElement,
	scene.LottieOverlay,
	"LottieShowcase",
	scene.Subtitle,
	"Spotlight",
	scene.FloatingParticles,
	"GeometricDecor",
	scene.GradientOrb,
	scene.QRCode,
}

var AvailableTransitions = []string{
	Fade,
	WipeLeft,
	WipeRight,
	ColorWipe,
	CircleWipe,
	ZoomIn,
	ZoomOut,
	SlideUp,
	CrossDissolve,
}

var CameraMotionTypes = []string{scene.KenBurns, scene.ZoomFocus, scene.Drift}
