// Package widgets provides custom Fyne widgets for Soundscape.
package widgets

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"slices"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

const (
	fieldOfView = 75 * math.Pi / 180
	nearPlane   = 0.1
)

// Orbiter receives pointer gestures on the surface.
type Orbiter interface {
	Rotate(dAzimuth, dPolar float64)
	Pan(dx, dy float64)
	Zoom(factor float64)
}

// Quad is a primitive projected to screen space.
type Quad struct {
	Rect  image.Rectangle
	Depth float64
	Color color.RGBA
}

// Surface draws animation frames as a flat perspective projection of their
// primitives. It is a ports.FrameSink.
type Surface struct {
	widget.BaseWidget

	raster *canvas.Raster
	fps    *canvas.Text

	mu      sync.Mutex
	frame   render.Frame
	orbiter Orbiter

	// OnDoubleTapped is called on a double click, typically to toggle theater mode
	OnDoubleTapped func()
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	s := &Surface{}
	s.raster = canvas.NewRaster(s.draw)
	s.fps = canvas.NewText("", color.White)
	s.fps.TextSize = 12
	s.fps.Hidden = true
	s.ExtendBaseWidget(s)
	return s
}

// CreateRenderer implements fyne.Widget.
func (s *Surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(s.raster, container.NewVBox(s.fps)))
}

// MinSize returns a minimal size so the surface expands to fill available space.
func (s *Surface) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

// SetOrbiter routes drag and scroll gestures to o.
func (s *Surface) SetOrbiter(o Orbiter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orbiter = o
}

// PushFrame copies frame and schedules a redraw. Safe to call from any goroutine.
func (s *Surface) PushFrame(frame *render.Frame) {
	s.mu.Lock()
	frame.CopyInto(&s.frame)
	s.mu.Unlock()
	fyne.Do(s.raster.Refresh)
}

// SetFPS updates the frame rate overlay. Must be called on the UI goroutine.
func (s *Surface) SetFPS(visible bool, fps float64) {
	s.fps.Hidden = !visible
	s.fps.Text = fmt.Sprintf("%.0f FPS", fps)
	s.fps.Refresh()
}

func (s *Surface) draw(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	s.mu.Lock()
	bg := toRGBA(s.frame.Background)
	quads := Project(&s.frame, w, h)
	s.mu.Unlock()

	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for _, q := range quads {
		draw.Draw(img, q.Rect, image.NewUniform(q.Color), image.Point{}, draw.Src)
	}
	return img
}

// Project maps each primitive in front of the camera to a screen rectangle,
// ordered far to near so they can be painted in sequence.
func Project(frame *render.Frame, w, h int) []Quad {
	if w <= 0 || h <= 0 || len(frame.Primitives) == 0 {
		return nil
	}

	eye := toR3(frame.Camera.Position)
	forward := r3.Sub(toR3(frame.Camera.Target), eye)
	if r3.Norm(forward) == 0 {
		return nil
	}
	forward = r3.Unit(forward)
	worldUp := r3.Vec{Y: 1}
	if math.Abs(r3.Dot(forward, worldUp)) > 0.999 {
		worldUp = r3.Vec{Z: -1}
	}
	right := r3.Unit(r3.Cross(forward, worldUp))
	up := r3.Cross(right, forward)

	focal := float64(h) / (2 * math.Tan(fieldOfView/2))
	cx, cy := float64(w)/2, float64(h)/2

	quads := make([]Quad, 0, len(frame.Primitives))
	for _, p := range frame.Primitives {
		rel := r3.Sub(toR3(p.Position), eye)
		depth := r3.Dot(rel, forward)
		if depth <= nearPlane {
			continue
		}
		scale := focal / depth
		x := cx + r3.Dot(rel, right)*scale
		y := cy - r3.Dot(rel, up)*scale
		hw := math.Max(math.Max(p.Size.X, p.Size.Z)*scale/2, 0.5)
		hh := math.Max(p.Size.Y*scale/2, 0.5)

		rect := image.Rect(int(x-hw), int(y-hh), int(math.Ceil(x+hw)), int(math.Ceil(y+hh)))
		if !rect.Overlaps(image.Rect(0, 0, w, h)) {
			continue
		}
		quads = append(quads, Quad{Rect: rect, Depth: depth, Color: toRGBA(p.Color)})
	}

	slices.SortStableFunc(quads, func(a, b Quad) int {
		switch {
		case a.Depth > b.Depth:
			return -1
		case a.Depth < b.Depth:
			return 1
		}
		return 0
	})
	return quads
}

func toR3(v render.Vec3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func toRGBA(c domain.Color) color.RGBA {
	ch := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return color.RGBA{R: ch(c.R), G: ch(c.G), B: ch(c.B), A: 0xff}
}

// Dragged implements fyne.Draggable; horizontal drags orbit, vertical drags tilt.
func (s *Surface) Dragged(ev *fyne.DragEvent) {
	s.mu.Lock()
	o := s.orbiter
	s.mu.Unlock()
	if o != nil {
		o.Rotate(-float64(ev.Dragged.DX)*0.01, -float64(ev.Dragged.DY)*0.01)
	}
}

// DragEnd implements fyne.Draggable.
func (s *Surface) DragEnd() {}

// Scrolled implements fyne.Scrollable. Vertical scroll zooms, horizontal pans.
func (s *Surface) Scrolled(ev *fyne.ScrollEvent) {
	s.mu.Lock()
	o := s.orbiter
	s.mu.Unlock()
	if o == nil {
		return
	}
	if dy := float64(ev.Scrolled.DY); dy != 0 {
		o.Zoom(math.Pow(0.95, dy/10))
	}
	if dx := float64(ev.Scrolled.DX); dx != 0 {
		o.Pan(dx*0.01, 0)
	}
}

// DoubleTapped implements fyne.DoubleTappable.
func (s *Surface) DoubleTapped(*fyne.PointEvent) {
	if s.OnDoubleTapped != nil {
		s.OnDoubleTapped()
	}
}

var (
	_ fyne.Draggable      = (*Surface)(nil)
	_ fyne.Scrollable     = (*Surface)(nil)
	_ fyne.DoubleTappable = (*Surface)(nil)
)
