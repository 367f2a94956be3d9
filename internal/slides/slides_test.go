package slides

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCircleToSquareScene(t *testing.T) {
	p := CircleToSquare(Config{MediaEmbed: true})
	if p.Name != "CircleToSquare" || len(p.Slides) != 2 {
		t.Fatalf("presentation = %s", p)
	}
	create, ok := p.Slides[0].Animations[0].(Create)
	if !ok || create.Shape.Kind != KindCircle || create.Shape.Color != Blue || create.Shape.FillOpacity != 0.5 {
		t.Fatalf("slide 1 = %#v", p.Slides[0].Animations)
	}
	transform, ok := p.Slides[1].Animations[0].(Transform)
	if !ok || transform.To.Kind != KindSquare || transform.To.Color != Green || transform.To.FillOpacity != 0.8 {
		t.Fatalf("slide 2 = %#v", p.Slides[1].Animations)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestFramesCarryStageAcrossSlides(t *testing.T) {
	frames, err := CircleToSquare(Config{}).frames()
	if err != nil {
		t.Fatalf("frames() error = %v", err)
	}
	first, second := frames[0], frames[1]
	if len(first.Elements) != 1 || first.Elements[0].DashOffset != "1" || first.Elements[0].FillOpacity != "0" {
		t.Fatalf("slide 1 element = %+v", first.Elements[0])
	}
	if len(second.Elements) != 1 || second.Elements[0].ID != "blue_circle" || second.Elements[0].FillOpacity != "0.5" {
		t.Fatalf("slide 2 element = %+v", second.Elements[0])
	}

	byAttribute := map[string]animate{}
	for _, a := range second.Elements[0].Animations {
		byAttribute[a.Attribute] = a
	}
	if byAttribute["fill"].To != string(Green) || byAttribute["fill-opacity"].To != "0.8" {
		t.Fatalf("transform animations = %+v", second.Elements[0].Animations)
	}
	if byAttribute["d"].From != Circle("c", Blue, 0).pathData() || byAttribute["d"].To != Square("s", Green, 0).pathData() {
		t.Fatalf("d animation = %+v", byAttribute["d"])
	}
	if second.Duration != DefaultRunTime {
		t.Fatalf("Duration = %s", second.Duration)
	}
}

func TestFramesRejectInvalidScenes(t *testing.T) {
	scene := NewScene("Broken")
	scene.Play(Transform{From: Circle("ghost", Blue, 0.5), To: Square("sq", Green, 0.8)})
	if err := scene.Presentation(Config{}).Validate(); err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("Validate() error = %v", err)
	}

	scene = NewScene("Twice")
	scene.Play(Create{Shape: Circle("c", Blue, 0.5)}, Create{Shape: Circle("c", Blue, 0.5)})
	if err := scene.Presentation(Config{}).Validate(); err == nil {
		t.Fatal("expected error for shape created twice")
	}

	if err := (Presentation{Name: "Empty"}).Validate(); err == nil {
		t.Fatal("expected error for presentation without slides")
	}
}

func TestOutlinesShareAnchorsAtCorners(t *testing.T) {
	circleStart, circle := Circle("c", Blue, 0).outline()
	squareStart, square := Square("s", Green, 0).outline()
	if num(circleStart.x) != "0.7071" || num(squareStart.x) != "1" || num(squareStart.y) != "1" {
		t.Fatalf("starts = %+v, %+v", circleStart, squareStart)
	}
	if num(circle[3][2].x) != num(circleStart.x) || num(circle[3][2].y) != num(circleStart.y) {
		t.Fatalf("circle is not closed: %+v", circle[3][2])
	}
	if square[1][2] != (point{-1, -1}) {
		t.Fatalf("square corner = %+v", square[1][2])
	}
}

func TestRenderEmbedsMedia(t *testing.T) {
	out := &bytes.Buffer{}
	if err := Render(out, CircleToSquare(Config{MediaEmbed: true})); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	page := out.String()
	if strings.Count(page, "<svg") != 2 || strings.Contains(page, "<object") {
		t.Fatalf("embedded page:\n%s", page)
	}
	for _, want := range []string{"<title>CircleToSquare</title>", `attributeName="d"`, `to="#83C167"`, `id="slide-2"`} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestRenderFilesWithoutEmbedding(t *testing.T) {
	dir := t.TempDir()
	written, err := RenderFiles(dir, CircleToSquare(Config{MediaEmbed: false}))
	if err != nil {
		t.Fatalf("RenderFiles() error = %v", err)
	}
	if len(written) != 3 || filepath.Base(written[0]) != "CircleToSquare.html" {
		t.Fatalf("written = %v", written)
	}
	page, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(page), `data="CircleToSquare_2.svg"`) || strings.Contains(string(page), "<svg") {
		t.Fatalf("page:\n%s", page)
	}
	media, err := os.ReadFile(filepath.Join(dir, "CircleToSquare_1.svg"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(media), "<svg") || !strings.Contains(string(media), `attributeName="stroke-dashoffset"`) {
		t.Fatalf("media:\n%s", media)
	}

	if err := RenderSVG(&bytes.Buffer{}, CircleToSquare(Config{}), 3); err == nil {
		t.Fatal("expected out of range error")
	}
}
