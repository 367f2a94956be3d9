// Package slides describes short shape animations as a scene graph and
// renders them as an HTML slideshow driven by SVG animations.
package slides

import (
	"fmt"
	"time"
)

type Color string

const (
	Blue  Color = "#58C4DD"
	Green Color = "#83C167"
	Pink  Color = "#D147BD"
	White Color = "#FFFFFF"
)

type ShapeKind string

const (
	KindCircle ShapeKind = "circle"
	KindSquare ShapeKind = "square"
)

// Shape sizes are in scene units: the frame is 8 units tall.
type Shape struct {
	Name        string
	Kind        ShapeKind
	Color       Color
	FillOpacity float64
	// Size is the radius of a circle or the side length of a square.
	Size float64
}

func Circle(name string, color Color, fillOpacity float64) Shape {
	return Shape{Name: name, Kind: KindCircle, Color: color, FillOpacity: fillOpacity, Size: 1}
}

func Square(name string, color Color, fillOpacity float64) Shape {
	return Shape{Name: name, Kind: KindSquare, Color: color, FillOpacity: fillOpacity, Size: 2}
}

// DefaultRunTime is how long one animation plays.
const DefaultRunTime = time.Second

type Animation interface {
	target() string
	runTime() time.Duration
}

// Create draws the outline of a shape and then fills it.
type Create struct {
	Shape Shape
}

func (c Create) target() string         { return c.Shape.Name }
func (c Create) runTime() time.Duration { return DefaultRunTime }

// Transform morphs the shape on stage named From.Name into To. The result
// keeps the name of From.
type Transform struct {
	From Shape
	To   Shape
}

func (t Transform) target() string         { return t.From.Name }
func (t Transform) runTime() time.Duration { return DefaultRunTime }

// Slide plays its animations one after another.
type Slide struct {
	Animations []Animation
}

type Config struct {
	// MediaEmbed inlines slide media into the HTML page instead of
	// referencing separate files.
	MediaEmbed bool
}

type Presentation struct {
	Name   string
	Slides []Slide
	Config Config
}

// Scene collects animations into slides.
type Scene struct {
	name    string
	slides  []Slide
	current Slide
}

func NewScene(name string) *Scene {
	return &Scene{name: name}
}

func (s *Scene) Play(animations ...Animation) {
	s.current.Animations = append(s.current.Animations, animations...)
}

// NextSlide closes the current slide; later animations start a new one.
func (s *Scene) NextSlide() {
	s.slides = append(s.slides, s.current)
	s.current = Slide{}
}

func (s *Scene) Presentation(cfg Config) Presentation {
	slides := append([]Slide(nil), s.slides...)
	if len(s.current.Animations) > 0 {
		slides = append(slides, s.current)
	}
	return Presentation{Name: s.name, Slides: slides, Config: cfg}
}

// CircleToSquare draws a blue circle on the first slide and transforms it
// into a green square on the second.
func CircleToSquare(cfg Config) Presentation {
	blueCircle := Circle("blue_circle", Blue, 0.5)
	greenSquare := Square("green_square", Green, 0.8)

	scene := NewScene("CircleToSquare")
	scene.Play(Create{Shape: blueCircle})
	scene.NextSlide()
	scene.Play(Transform{From: blueCircle, To: greenSquare})
	return scene.Presentation(cfg)
}

// Validate checks that every animation targets a shape that is on stage
// when it plays.
func (p Presentation) Validate() error {
	_, err := p.frames()
	return err
}

func (p Presentation) String() string {
	return fmt.Sprintf("%s (%d slides)", p.Name, len(p.Slides))
}
