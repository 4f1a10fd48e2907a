package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"settings-converter/internal/scerrors"
)

//go:embed rules.toml
var defaultRules []byte

// Rule ties one governed field to its value under every profile.
type Rule struct {
	File    string
	Section string
	Field   string
	Values  map[ID]string
}

// Label is the field name shown in reports.
func (r Rule) Label() string {
	return r.Section + "." + r.Field
}

// Value returns the value the field takes under p.
func (r Rule) Value(p ID) string {
	return r.Values[p]
}

// Target is a governed file resolved under one install root.
type Target struct {
	Path  string
	File  string
	Rules []Rule
}

// Table is the immutable rule set.
type Table struct {
	profiles []ID
	files    []string
	rules    map[string][]Rule
	caches   []string
}

type tableDoc struct {
	Profiles   []string   `toml:"profiles"`
	CacheFiles []string   `toml:"cache_files"`
	Files      []fileDecl `toml:"files"`
}

type fileDecl struct {
	Path   string      `toml:"path"`
	Fields []fieldDecl `toml:"fields"`
}

type fieldDecl struct {
	Section string            `toml:"section"`
	Name    string            `toml:"name"`
	Values  map[string]string `toml:"values"`
}

var builtin = func() *Table {
	t, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded rules.toml: %v", err))
	}
	return t
}()

// Default returns the built-in rule table.
func Default() *Table {
	return builtin
}

// LoadFile reads a rule table from a TOML file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scerrors.New(scerrors.KindConfig, fmt.Errorf("read rules: %w", err))
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a rule table. Every field must define a value
// for every registered profile.
func Parse(data []byte) (*Table, error) {
	var doc tableDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, scerrors.New(scerrors.KindConfig, fmt.Errorf("decode rules: %w", err))
	}
	if len(doc.Profiles) == 0 {
		return nil, scerrors.New(scerrors.KindConfig, errors.New("rules declare no profiles"))
	}

	t := &Table{rules: make(map[string][]Rule)}
	seenProfile := make(map[string]bool, len(doc.Profiles))
	for _, p := range doc.Profiles {
		p = strings.TrimSpace(p)
		if p == "" || seenProfile[p] {
			return nil, scerrors.Errorf(scerrors.KindConfig, "invalid or duplicate profile %q", p)
		}
		seenProfile[p] = true
		t.profiles = append(t.profiles, ID(p))
	}

	seenRule := make(map[string]bool)
	for _, f := range doc.Files {
		if strings.TrimSpace(f.Path) == "" {
			return nil, scerrors.Errorf(scerrors.KindConfig, "file entry without path")
		}
		if _, dup := t.rules[f.Path]; dup {
			return nil, scerrors.Errorf(scerrors.KindConfig, "file %q declared twice", f.Path)
		}
		rules := make([]Rule, 0, len(f.Fields))
		for _, fd := range f.Fields {
			key := f.Path + "\x00" + fd.Section + "\x00" + fd.Name
			if fd.Section == "" || fd.Name == "" {
				return nil, scerrors.Errorf(scerrors.KindConfig, "%s: field needs section and name", f.Path)
			}
			if seenRule[key] {
				return nil, scerrors.Errorf(scerrors.KindConfig, "%s: %s.%s declared twice", f.Path, fd.Section, fd.Name)
			}
			seenRule[key] = true

			values := make(map[ID]string, len(t.profiles))
			for _, p := range t.profiles {
				v, ok := fd.Values[string(p)]
				if !ok {
					return nil, scerrors.Errorf(scerrors.KindConfig, "%s: %s.%s has no value for profile %q", f.Path, fd.Section, fd.Name, p)
				}
				values[p] = v
			}
			for p := range fd.Values {
				if !seenProfile[p] {
					return nil, scerrors.Errorf(scerrors.KindConfig, "%s: %s.%s sets unknown profile %q", f.Path, fd.Section, fd.Name, p)
				}
			}
			rules = append(rules, Rule{File: f.Path, Section: fd.Section, Field: fd.Name, Values: values})
		}
		t.files = append(t.files, f.Path)
		t.rules[f.Path] = rules
	}
	t.caches = append(t.caches, doc.CacheFiles...)
	return t, nil
}

// Files returns the governed file names in declaration order.
func (t *Table) Files() []string {
	return append([]string(nil), t.files...)
}

// Rules returns the rules of one governed file in declaration order.
func (t *Table) Rules(file string) []Rule {
	return append([]Rule(nil), t.rules[file]...)
}

// Targets resolves every governed file under every install root. Files are
// ordered by declaration first, then by root. Absolute file paths are used
// once, as is.
func (t *Table) Targets(roots []string) []Target {
	var out []Target
	for _, file := range t.files {
		for _, path := range expand(file, roots) {
			out = append(out, Target{Path: path, File: file, Rules: t.Rules(file)})
		}
	}
	return out
}

// CacheTargets resolves the cache files to delete after a run.
func (t *Table) CacheTargets(roots []string) []string {
	var out []string
	for _, file := range t.caches {
		out = append(out, expand(file, roots)...)
	}
	return out
}

func expand(file string, roots []string) []string {
	native := filepath.FromSlash(file)
	if filepath.IsAbs(native) {
		return []string{native}
	}
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		p := filepath.Join(root, native)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
