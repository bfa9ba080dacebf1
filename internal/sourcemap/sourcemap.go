// Package sourcemap builds version 3 source maps.
//
// The generator mirrors the small part of the mozilla source-map API the
// loaders need: add mappings with 1-based lines and 0-based columns, attach
// source contents, and serialise to the JSON shape bundlers consume.
package sourcemap

import (
	"encoding/json"
	"sort"
	"strings"
)

// Map is the JSON representation of a version 3 source map.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// JSON encodes the map.
func (m *Map) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// Parse decodes a JSON source map.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Position is a location in a file. Line is 1-based, Column is 0-based.
type Position struct {
	Line   int
	Column int
}

// Mapping links a generated position to an original one.
type Mapping struct {
	Generated Position
	Original  Position
	Source    string
	Name      string
}

// Generator accumulates mappings for one generated file.
type Generator struct {
	file       string
	sourceRoot string
	sources    []string
	sourceIdx  map[string]int
	names      []string
	nameIdx    map[string]int
	contents   map[string]string
	mappings   []Mapping
}

// New returns a generator for the given generated file name.
func New(file, sourceRoot string) *Generator {
	return &Generator{
		file:       file,
		sourceRoot: sourceRoot,
		sourceIdx:  make(map[string]int),
		nameIdx:    make(map[string]int),
		contents:   make(map[string]string),
	}
}

// AddMapping records one mapping. Sources and names are registered on first use.
func (g *Generator) AddMapping(m Mapping) {
	if m.Source != "" {
		g.source(m.Source)
	}
	if m.Name != "" {
		if _, ok := g.nameIdx[m.Name]; !ok {
			g.nameIdx[m.Name] = len(g.names)
			g.names = append(g.names, m.Name)
		}
	}
	g.mappings = append(g.mappings, m)
}

// SetSourceContent attaches the original text of a source.
func (g *Generator) SetSourceContent(source, content string) {
	g.source(source)
	g.contents[source] = content
}

// Len returns the number of mappings added so far.
func (g *Generator) Len() int {
	return len(g.mappings)
}

func (g *Generator) source(name string) int {
	if idx, ok := g.sourceIdx[name]; ok {
		return idx
	}
	idx := len(g.sources)
	g.sourceIdx[name] = idx
	g.sources = append(g.sources, name)
	return idx
}

// ToMap serialises the accumulated mappings.
func (g *Generator) ToMap() *Map {
	m := &Map{
		Version:    3,
		File:       g.file,
		SourceRoot: g.sourceRoot,
		Sources:    append([]string{}, g.sources...),
		Names:      append([]string{}, g.names...),
		Mappings:   g.encode(),
	}
	if len(g.contents) > 0 {
		m.SourcesContent = make([]string, len(g.sources))
		for i, src := range g.sources {
			m.SourcesContent[i] = g.contents[src]
		}
	}
	return m
}

func (g *Generator) encode() string {
	mappings := make([]Mapping, len(g.mappings))
	copy(mappings, g.mappings)
	sort.SliceStable(mappings, func(i, j int) bool {
		a, b := mappings[i].Generated, mappings[j].Generated
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	var (
		b          strings.Builder
		line       = 1
		prevGenCol int
		prevSource int
		prevOrigLn int
		prevOrigCl int
		prevName   int
		first      = true
	)
	for _, m := range mappings {
		if m.Generated.Line < 1 {
			continue
		}
		if m.Generated.Line != line {
			for line < m.Generated.Line {
				b.WriteByte(';')
				line++
			}
			prevGenCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		writeVLQ(&b, m.Generated.Column-prevGenCol)
		prevGenCol = m.Generated.Column

		if m.Source == "" {
			continue
		}
		src := g.sourceIdx[m.Source]
		writeVLQ(&b, src-prevSource)
		prevSource = src
		// stored 0-based
		writeVLQ(&b, m.Original.Line-1-prevOrigLn)
		prevOrigLn = m.Original.Line - 1
		writeVLQ(&b, m.Original.Column-prevOrigCl)
		prevOrigCl = m.Original.Column

		if m.Name != "" {
			name := g.nameIdx[m.Name]
			writeVLQ(&b, name-prevName)
			prevName = name
		}
	}
	return b.String()
}
