package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/system"
)

const (
	tileWidth   = 320
	tileColumns = 3
	tileGap     = 8
	labelHeight = 18
	markerSize  = 10
)

var (
	sheetBackground = color.RGBA{0x10, 0x10, 0x14, 0xff}
	labelColor      = color.RGBA{0xee, 0xee, 0xee, 0xff}
	subtitleColor   = color.RGBA{0x00, 0x00, 0x00, 0x99}
	markerColors    = map[string]color.RGBA{
		scene.LottieElement:     {0xff, 0xff, 0xff, 0xff},
		scene.LottieOverlay:     {0x9e, 0x9e, 0x9e, 0xff},
		scene.GradientOrb:       {0x4f, 0xc3, 0xf7, 0xff},
		scene.FloatingParticles: {0xff, 0xd5, 0x4f, 0xff},
		scene.QRCode:            {0x81, 0xc7, 0x84, 0xff},
	}
	defaultMarker = color.RGBA{0xe9, 0x2f, 0x60, 0xff}
)

// RenderStoryboard draws a contact sheet of seq as PNG: one tile per scene showing the
// background, element positions at mid-scene with the camera applied, and a label.
// composed supplies element positions, which the sequence document does not carry; they are
// scaled from the reference frame onto the sequence canvas.
func RenderStoryboard(w io.Writer, seq Sequence, composed []scene.Composed) error {
	img := Storyboard(seq, composed)
	defer system.PutImage(img)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode storyboard: %w", err)
	}
	return nil
}

// Storyboard builds the contact sheet image. Sheets come from the shared image pool.
func Storyboard(seq Sequence, composed []scene.Composed) *image.RGBA {
	width, height := seq.Width, seq.Height
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	tileHeight := tileWidth * height / width

	cols := min(tileColumns, max(len(seq.Scenes), 1))
	rows := (len(seq.Scenes) + cols - 1) / cols
	rows = max(rows, 1)

	sheetW := cols*tileWidth + (cols+1)*tileGap
	sheetH := rows*(tileHeight+labelHeight) + (rows+1)*tileGap
	sheet := system.GetImage(image.Rect(0, 0, sheetW, sheetH))
	draw.Draw(sheet, sheet.Bounds(), &image.Uniform{sheetBackground}, image.Point{}, draw.Src)

	scale := float64(tileWidth) / float64(width)
	for i, sc := range seq.Scenes {
		col, row := i%cols, i/cols
		x0 := tileGap + col*(tileWidth+tileGap)
		y0 := tileGap + row*(tileHeight+labelHeight+tileGap)
		tile := image.Rect(x0, y0, x0+tileWidth, y0+tileHeight)

		var positions []scene.Position
		if i < len(composed) {
			for _, el := range composed[i].Elements {
				positions = append(positions, el.Position.Scale(width, height))
			}
		}
		drawTile(sheet, tile, sc, positions, float64(width), float64(height), scale)
		drawLabel(sheet, x0+2, y0+tileHeight+13, tileLabel(sc, seq.FPS))
	}
	return sheet
}

func drawTile(dst *image.RGBA, tile image.Rectangle, sc Scene, positions []scene.Position, width, height, scale float64) {
	draw.Draw(dst, tile, &image.Uniform{backgroundColor(sc.Background)}, image.Point{}, draw.Src)

	camera := CameraAt(sc.CameraMotion, sc.DurationInFrames/2, sc.DurationInFrames)
	for i, el := range sc.Elements {
		if el.Component == scene.Subtitle {
			bar := image.Rect(tile.Min.X, tile.Max.Y-tile.Dy()/8, tile.Max.X, tile.Max.Y)
			draw.Draw(dst, bar, &image.Uniform{subtitleColor}, image.Point{}, draw.Over)
			continue
		}

		x, y := width/2, height/2
		if i < len(positions) {
			x, y = positions[i].X, positions[i].Y
		}
		x, y = camera.Apply(x, y, width/2, height/2)
		cx := tile.Min.X + int(x*scale)
		cy := tile.Min.Y + int(y*scale)
		marker := image.Rect(cx-markerSize/2, cy-markerSize/2, cx+markerSize/2, cy+markerSize/2).Intersect(tile)
		if marker.Empty() {
			continue
		}

		c, ok := markerColors[el.Component]
		if !ok {
			c = defaultMarker
		}
		draw.Draw(dst, marker, &image.Uniform{c}, image.Point{}, draw.Over)
	}
}

func tileLabel(sc Scene, fps int) string {
	if fps <= 0 {
		fps = DefaultFPS
	}
	transition := "end"
	if sc.Transition != nil {
		transition = sc.Transition.Type
	}
	return fmt.Sprintf("%s %.1fs %d el > %s", sc.ID, float64(sc.DurationInFrames)/float64(fps), len(sc.Elements), transition)
}

func drawLabel(dst *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{labelColor},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func backgroundColor(bg Background) color.RGBA {
	hex := bg.Color
	if hex == "" && len(bg.Colors) > 0 {
		hex = bg.Colors[0]
	}
	if c, ok := parseHex(hex); ok {
		return c
	}
	return color.RGBA{0x1b, 0x28, 0x38, 0xff}
}

func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
