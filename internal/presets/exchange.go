package presets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/parser"
	"github.com/manav03panchal/clockset/internal/validate"
)

// DocumentVersion is written into every exported document.
const DocumentVersion = 1

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Document is the export file layout. Clocks are written as H:MM:SS so the
// file stays easy to edit by hand.
type Document struct {
	Version int     `json:"version" yaml:"version"`
	Presets []Entry `json:"presets" yaml:"presets"`
}

// Entry is one exported preset.
type Entry struct {
	Name   string   `json:"name" yaml:"name"`
	Clocks []string `json:"clocks" yaml:"clocks"`
}

// NewDocument builds a document from presets, keeping their order.
func NewDocument(presets []*model.Preset) *Document {
	doc := &Document{Version: DocumentVersion, Presets: make([]Entry, 0, len(presets))}
	for _, p := range presets {
		e := Entry{Name: p.Name, Clocks: make([]string, len(p.Clocks))}
		for i, c := range p.Clocks {
			e.Clocks[i] = c.String()
		}
		doc.Presets = append(doc.Presets, e)
	}
	return doc
}

// FormatFromPath picks the export format from a file extension. Anything
// other than .json is YAML.
func FormatFromPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Encode writes doc to w in format.
func Encode(w io.Writer, doc *Document, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.NewUserErrorWithField("format", format, "unknown export format", "Use yaml or json.")
	}
}

// Decode reads a document in either format. YAML is a superset of JSON, so
// one decoder serves both.
func Decode(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, errors.NewUserError(fmt.Sprintf("could not read preset file: %v", err), "Export a file with 'clockset preset export' to see the expected layout.")
	}
	if doc.Version > DocumentVersion {
		return nil, errors.NewUserError(fmt.Sprintf("preset file version %d is newer than this clockset supports", doc.Version), "")
	}
	return &doc, nil
}

// ToPresets converts the entries into new presets with fresh ids. The first
// invalid entry fails the whole document.
func (d *Document) ToPresets() ([]*model.Preset, error) {
	out := make([]*model.Preset, 0, len(d.Presets))
	for i, e := range d.Presets {
		clocks, err := parser.ParseClocks(e.Clocks)
		if err != nil {
			return nil, errors.Wrapf(err, "preset %d (%q)", i+1, e.Name)
		}
		p := model.NewPreset(validate.SanitizePresetName(e.Name), clocks)
		if err := validate.Preset(p); err != nil {
			return nil, errors.Wrapf(err, "preset %d (%q)", i+1, e.Name)
		}
		out = append(out, p)
	}
	return out, nil
}

// ImportResult counts what Import did.
type ImportResult struct {
	Added    int      `json:"added"`
	Replaced int      `json:"replaced"`
	Skipped  []string `json:"skipped,omitempty"`
}

// Import saves incoming presets. A preset whose name already exists is
// skipped, or recreated in place of the old one when replace is set.
func (s *Store) Import(incoming []*model.Preset, replace bool) (*ImportResult, error) {
	existing := make(map[string]*model.Preset)
	for _, p := range s.List() {
		existing[strings.ToLower(p.Name)] = p
	}

	res := &ImportResult{}
	for _, p := range incoming {
		old, dup := existing[strings.ToLower(p.Name)]
		if dup && !replace {
			res.Skipped = append(res.Skipped, p.Name)
			continue
		}
		if err := s.Save(p); err != nil {
			return res, err
		}
		if dup {
			if err := s.Delete(old.ID); err != nil {
				return res, err
			}
			res.Replaced++
		} else {
			res.Added++
		}
		existing[strings.ToLower(p.Name)] = p
	}
	return res, nil
}
