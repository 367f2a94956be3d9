package slides

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

var templates = template.Must(template.New("slides").Parse(`
{{- define "svg" -}}
<svg xmlns="http://www.w3.org/2000/svg" viewBox="-7.1111 -4 14.2222 8" data-slide="{{ .Index }}">
<rect x="-7.1111" y="-4" width="14.2222" height="8" fill="#000000"/>
<g transform="scale(1,-1)">
{{- range .Elements }}
<path id="{{ .ID }}" d="{{ .D }}" stroke="{{ .Stroke }}" stroke-width="0.04" fill="{{ .Fill }}" fill-opacity="{{ .FillOpacity }}" pathLength="1" stroke-dasharray="1" stroke-dashoffset="{{ .DashOffset }}">
{{- range .Animations }}
<animate attributeName="{{ .Attribute }}" from="{{ .From }}" to="{{ .To }}" begin="{{ .Begin }}" dur="{{ .Dur }}" fill="freeze"/>
{{- end }}
</path>
{{- end }}
</g>
</svg>
{{- end -}}

{{- define "html" -}}
<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ .Name }}</title>
<style>
html, body { margin: 0; height: 100%; background: #000000; }
.slide { display: none; width: 100vw; height: 100vh; }
.slide.active { display: block; }
.slide svg, .slide object { width: 100%; height: 100%; }
</style>
</head>
<body>
{{- range .Slides }}
<section class="slide" id="slide-{{ .Index }}">
{{- if $.Embed }}
{{ .SVG }}
{{- else }}
<object type="image/svg+xml" data="{{ .File }}"></object>
{{- end }}
</section>
{{- end }}
<script>
(function () {
  var slides = document.querySelectorAll(".slide");
  var current = 0;
  function media(slide) {
    var object = slide.querySelector("object");
    if (object) {
      return object.contentDocument && object.contentDocument.documentElement;
    }
    return slide.querySelector("svg");
  }
  function show(index) {
    if (index < 0 || index >= slides.length) {
      return;
    }
    slides[current].classList.remove("active");
    current = index;
    slides[current].classList.add("active");
    var svg = media(slides[current]);
    if (svg && svg.setCurrentTime) {
      svg.setCurrentTime(0);
      svg.unpauseAnimations();
    }
  }
  slides.forEach(function (slide) {
    var svg = media(slide);
    if (svg && svg.pauseAnimations) {
      svg.pauseAnimations();
    }
  });
  document.addEventListener("keydown", function (event) {
    if (event.key === "ArrowRight" || event.key === " " || event.key === "PageDown") {
      show(current + 1);
    } else if (event.key === "ArrowLeft" || event.key === "PageUp") {
      show(current - 1);
    }
  });
  document.addEventListener("click", function () { show(current + 1); });
  show(0);
})();
</script>
</body>
</html>
{{ end -}}
`))

type slideView struct {
	Index int
	SVG   template.HTML
	File  string
}

type pageView struct {
	Name   string
	Embed  bool
	Slides []slideView
}

// SlideFile names the media file of a 1-based slide.
func SlideFile(p Presentation, index int) string {
	return fmt.Sprintf("%s_%d.svg", p.Name, index)
}

// RenderSVG writes the animated media of one 1-based slide.
func RenderSVG(w io.Writer, p Presentation, index int) error {
	frames, err := p.frames()
	if err != nil {
		return err
	}
	if index < 1 || index > len(frames) {
		return fmt.Errorf("slide %d out of range 1..%d", index, len(frames))
	}
	if err := templates.ExecuteTemplate(w, "svg", frames[index-1]); err != nil {
		return fmt.Errorf("render slide %d: %w", index, err)
	}
	return nil
}

// Render writes the slideshow page. Without MediaEmbed the page references
// the per-slide files written by RenderFiles.
func Render(w io.Writer, p Presentation) error {
	frames, err := p.frames()
	if err != nil {
		return err
	}
	view := pageView{Name: p.Name, Embed: p.Config.MediaEmbed}
	for _, f := range frames {
		slide := slideView{Index: f.Index, File: SlideFile(p, f.Index)}
		if p.Config.MediaEmbed {
			buf := &bytes.Buffer{}
			if err := templates.ExecuteTemplate(buf, "svg", f); err != nil {
				return fmt.Errorf("render slide %d: %w", f.Index, err)
			}
			slide.SVG = template.HTML(buf.String())
		}
		view.Slides = append(view.Slides, slide)
	}
	if err := templates.ExecuteTemplate(w, "html", view); err != nil {
		return fmt.Errorf("render presentation %q: %w", p.Name, err)
	}
	return nil
}

// RenderFiles writes <name>.html into dir, plus one SVG per slide when media
// is not embedded. It returns the written paths, page first.
func RenderFiles(dir string, p Presentation) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slides dir: %w", err)
	}
	page := filepath.Join(dir, p.Name+".html")
	written := []string{page}

	buf := &bytes.Buffer{}
	if err := Render(buf, p); err != nil {
		return nil, err
	}
	if err := os.WriteFile(page, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %q: %w", page, err)
	}
	if p.Config.MediaEmbed {
		return written, nil
	}

	for index := 1; index <= len(p.Slides); index++ {
		buf.Reset()
		if err := RenderSVG(buf, p, index); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, SlideFile(p, index))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("write %q: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
