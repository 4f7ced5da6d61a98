package entries

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type EntryType string

const (
	File      EntryType = "file"
	Directory EntryType = "directory"
)

// Entry describes a file or directory seeded into a volume before a test,
// along with how the file list is expected to render it.
type Entry struct {
	Type             EntryType `yaml:"type" json:"type"`
	SourceFileName   string    `yaml:"sourceFileName" json:"sourceFileName"`
	TargetPath       string    `yaml:"targetPath" json:"targetPath"`
	MimeType         string    `yaml:"mimeType" json:"mimeType"`
	SharedOption     string    `yaml:"sharedOption" json:"sharedOption"`
	LastModifiedTime string    `yaml:"lastModifiedTime" json:"lastModifiedTime"`
	NameText         string    `yaml:"nameText" json:"nameText"`
	SizeText         string    `yaml:"sizeText" json:"sizeText"`
	TypeText         string    `yaml:"typeText" json:"typeText"`
}

// Row is the entry as a file list row: name, size, type and modification time.
func (e Entry) Row() []string {
	return []string{e.NameText, e.SizeText, e.TypeText, e.LastModifiedTime}
}

func Rows(set []Entry) [][]string {
	rows := make([][]string, 0, len(set))
	for _, e := range set {
		rows = append(rows, e.Row())
	}
	return rows
}

func FileName(row []string) string { return column(row, 0) }
func FileSize(row []string) string { return column(row, 1) }
func FileType(row []string) string { return column(row, 2) }

func column(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

//go:embed entries.yaml
var catalogYAML []byte

var catalog = mustParse(catalogYAML)

func Parse(data []byte) (map[string]Entry, error) {
	c := map[string]Entry{}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, errors.Wrap(err, "parsing entry catalog")
	}
	for name, e := range c {
		if e.Type != File && e.Type != Directory {
			return nil, errors.Errorf("entry %s: unexpected type %q", name, e.Type)
		}
	}
	return c, nil
}

func mustParse(data []byte) map[string]Entry {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

func Get(name string) (Entry, bool) {
	e, ok := catalog[name]
	return e, ok
}

func MustGet(name string) Entry {
	e, ok := Get(name)
	if !ok {
		panic(fmt.Sprintf("unknown test entry: %s", name))
	}
	return e
}

// Names lists the catalog keys in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func set(names ...string) []Entry {
	s := make([]Entry, len(names))
	for i, n := range names {
		s[i] = MustGet(n)
	}
	return s
}

var (
	BasicLocal = set("hello", "world", "desktop", "beautiful", "photos")

	BasicDrive = set("hello", "world", "desktop", "beautiful", "photos",
		"unsupported", "testDocument", "testSharedDocument")

	Nested = set("directoryA", "directoryB", "directoryC")

	// BasicFake must stay in sync with the entries prepared by fake test volumes.
	BasicFake = set("hello", "directoryA")

	// Recent has no directories, they are not listed in "Recent".
	Recent = set("hello", "world", "desktop", "beautiful",
		"unsupported", "testDocument", "testSharedDocument")

	Offline = set("testDocument", "testSharedDocument")

	SharedWithMe = set("testSharedDocument")
)

// Without returns a copy of set lacking entries whose NameText is name.
func Without(set []Entry, name string) []Entry {
	out := make([]Entry, 0, len(set))
	for _, e := range set {
		if e.NameText != name {
			out = append(out, e)
		}
	}
	return out
}
