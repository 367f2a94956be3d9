package sqlload

import (
	"errors"
	"fmt"
	"os"
)

var ErrInvalidInput = errors.New("either sql file or sql string must be provided")

// Source is where query text comes from: a File or an Inline string.
type Source interface {
	read() (string, error)
	String() string
}

type File struct {
	Path string
}

func (f File) read() (string, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read sql file %q: %w", f.Path, err)
	}
	return string(raw), nil
}

func (f File) String() string {
	return "file:" + f.Path
}

type Inline struct {
	Text string
}

func (s Inline) read() (string, error) {
	return s.Text, nil
}

func (s Inline) String() string {
	return "inline"
}

// SourceFrom picks a Source from the optional file/string pair. A non-empty
// text always wins; the file is only used when no text is given.
func SourceFrom(file, text string) (Source, error) {
	switch {
	case text != "":
		return Inline{Text: text}, nil
	case file != "":
		return File{Path: file}, nil
	default:
		return nil, ErrInvalidInput
	}
}
