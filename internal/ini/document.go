package ini

import (
	"bytes"
	"strings"

	"settings-converter/internal/scerrors"
)

const utf8BOM = "\ufeff"

type lineKind int

const (
	// lineRaw covers blank lines, comments, preamble and anything unparsable.
	lineRaw lineKind = iota
	lineSection
	lineField
)

type line struct {
	kind  lineKind
	raw   string
	eol   string
	key   string
	value string
}

type section struct {
	keys   []string
	fields map[string][]int
}

// Document is an INI file held in memory. Lines that are never modified are
// written back exactly as they were read.
type Document struct {
	bom      string
	lines    []line
	order    []string
	sections map[string]*section
}

type parseOptions struct {
	strict bool
	path   string
}

// Option tunes parsing.
type Option func(*parseOptions)

// Strict makes unparsable lines an error instead of keeping them verbatim.
func Strict() Option {
	return func(o *parseOptions) { o.strict = true }
}

func withPath(path string) Option {
	return func(o *parseOptions) { o.path = path }
}

// Parse builds a Document from the raw file contents.
func Parse(data []byte, opts ...Option) (*Document, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	doc := &Document{sections: make(map[string]*section)}
	text := string(data)
	if strings.HasPrefix(text, utf8BOM) {
		doc.bom = utf8BOM
		text = text[len(utf8BOM):]
	}

	current := ""
	for n, ln := range splitLines(text) {
		trimmed := strings.TrimSpace(ln.raw)
		if trimmed == "" || trimmed[0] == ';' || trimmed[0] == '#' {
			doc.lines = append(doc.lines, ln)
			continue
		}
		if name, ok := headerName(trimmed); ok {
			ln.kind = lineSection
			ln.key = name
			current = name
			doc.section(name)
			doc.lines = append(doc.lines, ln)
			continue
		}

		key, value, ok := splitField(trimmed)
		if !ok || current == "" || trimmed[0] == '[' {
			if o.strict {
				return nil, scerrors.New(scerrors.KindParse, &ParseError{Path: o.path, Line: n + 1, Text: ln.raw})
			}
			// An unreadable header ends the previous section.
			if trimmed[0] == '[' {
				current = ""
			}
			doc.lines = append(doc.lines, ln)
			continue
		}
		ln.kind = lineField
		ln.key = key
		ln.value = value
		sec := doc.section(current)
		if _, seen := sec.fields[key]; !seen {
			sec.keys = append(sec.keys, key)
		}
		sec.fields[key] = append(sec.fields[key], len(doc.lines))
		doc.lines = append(doc.lines, ln)
	}
	return doc, nil
}

func splitLines(text string) []line {
	if text == "" {
		return nil
	}
	var out []line
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			out = append(out, line{raw: text})
			break
		}
		raw, eol := text[:i], "\n"
		if strings.HasSuffix(raw, "\r") {
			raw, eol = raw[:len(raw)-1], "\r\n"
		}
		out = append(out, line{raw: raw, eol: eol})
		text = text[i+1:]
	}
	return out
}

// headerName reads a "[name]" line, optionally followed by a ';' or '#'
// comment.
func headerName(s string) (string, bool) {
	if s == "" || s[0] != '[' {
		return "", false
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", false
	}
	if rest := strings.TrimSpace(s[end+1:]); rest != "" && rest[0] != ';' && rest[0] != '#' {
		return "", false
	}
	name := strings.TrimSpace(s[1:end])
	return name, name != ""
}

// splitField splits at the first '=' or ':' and trims both halves.
func splitField(s string) (string, string, bool) {
	i := strings.IndexAny(s, "=:")
	if i <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(s[:i])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(s[i+1:]), true
}

func (d *Document) section(name string) *section {
	sec, ok := d.sections[name]
	if !ok {
		sec = &section{fields: make(map[string][]int)}
		d.sections[name] = sec
		d.order = append(d.order, name)
	}
	return sec
}

// Sections returns section names in first-seen order.
func (d *Document) Sections() []string {
	return append([]string(nil), d.order...)
}

// Keys returns the field names of a section in first-seen order.
func (d *Document) Keys(sectionName string) []string {
	sec, ok := d.sections[sectionName]
	if !ok {
		return nil
	}
	return append([]string(nil), sec.keys...)
}

// Get looks up a field. A missing section or field is reported through the
// bool, never as an error. Repeated keys resolve to the last occurrence.
func (d *Document) Get(sectionName, field string) (string, bool) {
	sec, ok := d.sections[sectionName]
	if !ok {
		return "", false
	}
	idx := sec.fields[field]
	if len(idx) == 0 {
		return "", false
	}
	return d.lines[idx[len(idx)-1]].value, true
}

// Set replaces the value of an existing field and reports whether the field
// exists. Sections and fields are never created.
func (d *Document) Set(sectionName, field, value string) bool {
	sec, ok := d.sections[sectionName]
	if !ok {
		return false
	}
	idx := sec.fields[field]
	if len(idx) == 0 {
		return false
	}
	for _, i := range idx {
		ln := &d.lines[i]
		if ln.value == value {
			continue
		}
		ln.value = value
		ln.raw = ln.key + "=" + value
	}
	return true
}

// Bytes serializes the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(d.bom)
	for _, ln := range d.lines {
		buf.WriteString(ln.raw)
		buf.WriteString(ln.eol)
	}
	return buf.Bytes()
}
