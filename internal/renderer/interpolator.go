package renderer

import (
	"math"

	"github.com/ivlev/scenecomposer/internal/scene"
)

// CameraState is the camera transform at a specific frame
type CameraState struct {
	X    float64 // horizontal pan in pixels
	Y    float64 // vertical pan in pixels
	Zoom float64 // 1.0 = no zoom
}

// CameraAt interpolates a scene camera motion at frame of totalFrames.
// Nil motion keeps the camera at rest.
func CameraAt(motion *scene.CameraMotion, frame, totalFrames int) CameraState {
	rest := CameraState{Zoom: 1.0}
	if motion == nil || totalFrames <= 0 {
		return rest
	}

	t := float64(frame) / float64(totalFrames)
	t = easeInOutCubic(math.Max(0, math.Min(1, t)))

	endScale := motion.EndScale
	if endScale == 0 {
		endScale = 1.0
	}

	switch motion.Type {
	case scene.KenBurns:
		return CameraState{
			X:    lerp(0, motion.PanX, t),
			Y:    lerp(0, motion.PanY, t),
			Zoom: lerp(1.0, endScale, t),
		}
	case scene.ZoomFocus:
		return CameraState{Zoom: lerp(1.0, endScale, t)}
	case scene.Drift:
		return CameraState{X: lerp(0, motion.PanX, t), Zoom: 1.0}
	default:
		return rest
	}
}

// Apply maps a canvas point through the camera, zooming around center
func (c CameraState) Apply(x, y, centerX, centerY float64) (float64, float64) {
	return centerX + (x-centerX)*c.Zoom + c.X, centerY + (y-centerY)*c.Zoom + c.Y
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
