package mt

import (
	_ "embed"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var layoutYAML []byte

type layoutField struct {
	Name     string `yaml:"name"`
	Width    int    `yaml:"width"`
	Optional bool   `yaml:"optional"`
}

// layout slices a fixed-width header into the string fields of a struct.
type layout struct {
	Skip   int           `yaml:"skip"`
	Fields []layoutField `yaml:"fields"`

	name  string
	index [][]int // struct field path per entry of Fields
}

type headerLayouts struct {
	Basic  *layout `yaml:"basic"`
	Input  *layout `yaml:"input"`
	Output *layout `yaml:"output"`
}

var layouts = sync.OnceValue(func() *headerLayouts {
	l, err := loadLayouts(layoutYAML)
	if err != nil {
		panic("mt: " + err.Error())
	}
	return l
})

func loadLayouts(data []byte) (*headerLayouts, error) {
	var l headerLayouts
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode header layouts: %w", err)
	}
	for _, h := range []struct {
		name string
		l    *layout
		ty   reflect.Type
	}{
		{"basic", l.Basic, reflect.TypeFor[BasicHeader]()},
		{"input", l.Input, reflect.TypeFor[InputHeader]()},
		{"output", l.Output, reflect.TypeFor[OutputHeader]()},
	} {
		if h.l == nil {
			return nil, fmt.Errorf("missing %s header layout", h.name)
		}
		h.l.name = h.name
		if err := h.l.bind(h.ty); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// fieldMap records the index path of every string field tagged `mt:"name"`.
// Nested structs are walked with their own tag as a "name." prefix.
func fieldMap(out map[string][]int, prefix string, index []int, s reflect.Type) error {
	for i := range s.NumField() {
		field := s.Field(i)
		name, ok := field.Tag.Lookup("mt")
		if !ok || name == "-" || !field.IsExported() {
			continue
		}
		path := append(slices.Clone(index), i)
		switch field.Type.Kind() {
		case reflect.String:
			if _, ok := out[prefix+name]; ok {
				return fmt.Errorf("multiple fields with name %q", prefix+name)
			}
			out[prefix+name] = path
		case reflect.Struct:
			if err := fieldMap(out, prefix+name+".", path, field.Type); err != nil {
				return err
			}
		default:
			return fmt.Errorf("field %q should have type string or struct (got %s)", prefix+name, field.Type)
		}
	}
	return nil
}

func (l *layout) bind(t reflect.Type) error {
	fields := make(map[string][]int)
	if err := fieldMap(fields, "", nil, t); err != nil {
		return fmt.Errorf("%s header: %w", l.name, err)
	}
	l.index = make([][]int, len(l.Fields))
	optional := false
	for i, f := range l.Fields {
		if f.Width <= 0 {
			return fmt.Errorf("%s header: field %q has width %d", l.name, f.Name, f.Width)
		}
		if optional && !f.Optional {
			return fmt.Errorf("%s header: required field %q follows an optional one", l.name, f.Name)
		}
		optional = f.Optional
		path, ok := fields[f.Name]
		if !ok {
			return fmt.Errorf("%s header: no field named %q", l.name, f.Name)
		}
		l.index[i] = path
	}
	return nil
}

// lengths lists the raw lengths the layout accepts, shortest first.
func (l *layout) lengths() []int {
	var out []int
	n := l.Skip
	for _, f := range l.Fields {
		if f.Optional {
			out = append(out, n)
		}
		n += f.Width
	}
	return append(out, n)
}

// slice checks the length of raw and copies its sub-fields into dst, a
// pointer to the struct the layout was bound to. dst is untouched on error.
func (l *layout) slice(raw string, dst any) error {
	want := l.lengths()
	if !slices.Contains(want, len(raw)) {
		return fmt.Errorf("%w: %s header has %d characters, want %s",
			ErrHeaderLength, l.name, len(raw), joinLengths(want))
	}
	v := reflect.ValueOf(dst).Elem()
	pos := l.Skip
	for i, f := range l.Fields {
		if pos == len(raw) {
			break
		}
		v.FieldByIndex(l.index[i]).SetString(raw[pos : pos+f.Width])
		pos += f.Width
	}
	return nil
}

func joinLengths(n []int) string {
	s := make([]string, len(n))
	for i := range n {
		s[i] = strconv.Itoa(n[i])
	}
	if len(s) == 1 {
		return s[0]
	}
	return strings.Join(s[:len(s)-1], ", ") + " or " + s[len(s)-1]
}
