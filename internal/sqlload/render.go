package sqlload

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"text/template"

	"github.com/samber/lo"
)

var ErrTemplate = errors.New("render sql template")

var templateFuncs = template.FuncMap{
	"quote": quoteLiteral,
	"ident": quoteIdent,
	"join":  joinValues,
	"list":  quoteList,
}

// Render substitutes params into text using text/template syntax
// ({{ .name }}). Without params the text is returned as is. Every referenced
// key must be present in params. Jinja-style files need the leading dot:
// {{ name }} is a parse error.
func Render(text string, params map[string]any) (string, error) {
	if len(params) == 0 {
		return text, nil
	}
	tmpl, err := template.New("query").Option("missingkey=error").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, params); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	return out.String(), nil
}

func quoteLiteral(value any) string {
	return "'" + strings.ReplaceAll(fmt.Sprint(value), "'", "''") + "'"
}

// quoteIdent wraps a possibly dotted table path in backticks as one identifier.
func quoteIdent(value any) string {
	return "`" + strings.ReplaceAll(fmt.Sprint(value), "`", "\\`") + "`"
}

func joinValues(sep string, values any) string {
	return strings.Join(lo.Map(toSlice(values), func(value any, _ int) string { return fmt.Sprint(value) }), sep)
}

func quoteList(values any) string {
	return strings.Join(lo.Map(toSlice(values), func(value any, _ int) string { return quoteLiteral(value) }), ", ")
}

// toSlice accepts any slice or array param; scalars become one-element lists.
func toSlice(values any) []any {
	v := reflect.ValueOf(values)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []any{values}
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

// ParseParams turns repeated key=value flags into template params.
func ParseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q: want key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
