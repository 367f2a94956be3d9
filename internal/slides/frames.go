package slides

import (
	"fmt"
	"strconv"
	"time"
)

// frame is the state of one slide: the shapes on stage when it starts plus
// the timed attribute animations played on them.
type frame struct {
	Index    int
	Elements []*element
	Duration time.Duration
}

type element struct {
	ID          string
	D           string
	Stroke      Color
	Fill        Color
	FillOpacity string
	DashOffset  string
	Animations  []animate
}

type animate struct {
	Attribute string
	From      string
	To        string
	Begin     string
	Dur       string
}

func newElement(shape Shape, hidden bool) *element {
	el := &element{
		ID:          shape.Name,
		D:           shape.pathData(),
		Stroke:      shape.Color,
		Fill:        shape.Color,
		FillOpacity: num(shape.FillOpacity),
		DashOffset:  "0",
	}
	if hidden {
		el.FillOpacity = "0"
		el.DashOffset = "1"
	}
	return el
}

func (e *element) animate(attribute, from, to string, begin, dur time.Duration) {
	e.Animations = append(e.Animations, animate{
		Attribute: attribute,
		From:      from,
		To:        to,
		Begin:     seconds(begin),
		Dur:       seconds(dur),
	})
}

func (p Presentation) frames() ([]frame, error) {
	if len(p.Slides) == 0 {
		return nil, fmt.Errorf("presentation %q has no slides", p.Name)
	}

	var stage []Shape
	onStage := func(name string) int {
		for i, shape := range stage {
			if shape.Name == name {
				return i
			}
		}
		return -1
	}

	frames := make([]frame, 0, len(p.Slides))
	for slideIndex, slide := range p.Slides {
		f := frame{Index: slideIndex + 1}
		elements := map[string]*element{}
		for _, shape := range stage {
			el := newElement(shape, false)
			f.Elements = append(f.Elements, el)
			elements[shape.Name] = el
		}

		var at time.Duration
		for _, animation := range slide.Animations {
			run := animation.runTime()
			switch a := animation.(type) {
			case Create:
				if a.Shape.Name == "" {
					return nil, fmt.Errorf("slide %d: shape name is required", f.Index)
				}
				if onStage(a.Shape.Name) >= 0 {
					return nil, fmt.Errorf("slide %d: shape %q is already on stage", f.Index, a.Shape.Name)
				}
				el := newElement(a.Shape, true)
				el.animate("stroke-dashoffset", "1", "0", at, run)
				el.animate("fill-opacity", "0", num(a.Shape.FillOpacity), at+run/2, run/2)
				f.Elements = append(f.Elements, el)
				elements[a.Shape.Name] = el
				stage = append(stage, a.Shape)
			case Transform:
				index := onStage(a.From.Name)
				if index < 0 {
					return nil, fmt.Errorf("slide %d: shape %q is not on stage", f.Index, a.From.Name)
				}
				current := stage[index]
				target := a.To
				target.Name = current.Name
				el := elements[current.Name]
				el.animate("d", current.pathData(), target.pathData(), at, run)
				el.animate("stroke", string(current.Color), string(target.Color), at, run)
				el.animate("fill", string(current.Color), string(target.Color), at, run)
				el.animate("fill-opacity", num(current.FillOpacity), num(target.FillOpacity), at, run)
				stage[index] = target
			default:
				return nil, fmt.Errorf("slide %d: unsupported animation %T", f.Index, animation)
			}
			at += run
		}
		f.Duration = at
		frames = append(frames, f)
	}
	return frames, nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
