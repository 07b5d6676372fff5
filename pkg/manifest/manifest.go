package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/vsroc/pkg/curve"
	"github.com/gilchrisn/vsroc/pkg/idrange"
	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Experiment is one ranked result to plot.
type Experiment struct {
	Legend string `yaml:"legend"`
	Path   string `yaml:"path"`
	// Group tags replicate runs of one protocol. Empty means the legend.
	Group string `yaml:"group,omitempty"`
}

// GroupName returns the replicate group of the experiment.
func (e Experiment) GroupName() string {
	if e.Group != "" {
		return e.Group
	}
	return e.Legend
}

// Manifest describes one plotting run.
type Manifest struct {
	Title         string       `yaml:"title"`
	Experiments   []Experiment `yaml:"experiments"`
	TruePositives string       `yaml:"true_positives"`
	TrueNegatives string       `yaml:"true_negatives,omitempty"`
	Omit          string       `yaml:"omit,omitempty"`
	Markers       string       `yaml:"markers,omitempty"`

	// Unset plot options fall back to the configuration.
	XAxis  string   `yaml:"x_axis,omitempty"`
	Zoom   *float64 `yaml:"zoom,omitempty"`
	LogX   *bool    `yaml:"log_x,omitempty"`
	XLabel string   `yaml:"x_label,omitempty"`
	YLabel string   `yaml:"y_label,omitempty"`
}

// Load reads a YAML manifest. Relative experiment paths are resolved against
// the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, vserr.Wrap(vserr.KindIO, path, err, "could not read manifest")
	}

	m, err := Parse(data, path)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range m.Experiments {
		if p := m.Experiments[i].Path; p != "" && !filepath.IsAbs(p) {
			m.Experiments[i].Path = filepath.Join(base, p)
		}
	}
	return m, nil
}

// Parse decodes a manifest document. Unknown keys are rejected.
func Parse(data []byte, source string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, vserr.Wrap(vserr.KindParse, source, err, "invalid manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the fields a run cannot do without.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return vserr.New(vserr.KindParse, "manifest", "title is required")
	}
	if len(m.Experiments) == 0 {
		return vserr.New(vserr.KindParse, m.Title, "at least one experiment is required")
	}

	seen := make(map[string]bool, len(m.Experiments))
	for i, e := range m.Experiments {
		if strings.TrimSpace(e.Legend) == "" {
			return vserr.New(vserr.KindParse, m.Title, "experiment %d has no legend", i+1)
		}
		if strings.TrimSpace(e.Path) == "" {
			return vserr.New(vserr.KindParse, e.Legend, "experiment has no path")
		}
		if seen[e.Legend] {
			return vserr.New(vserr.KindParse, e.Legend, "legend is used by more than one experiment")
		}
		seen[e.Legend] = true
	}

	if strings.TrimSpace(m.TruePositives) == "" {
		return vserr.New(vserr.KindParse, m.Title, "true_positives is required")
	}
	if m.Zoom != nil && (*m.Zoom < 0 || *m.Zoom > 100) {
		return vserr.New(vserr.KindParse, m.Title, "zoom %g is outside [0, 100]", *m.Zoom)
	}
	if m.XAxis != "" {
		axis, err := curve.ParseAxis(m.XAxis)
		if err != nil {
			return err
		}
		if err := m.CheckAxis(axis); err != nil {
			return err
		}
	}
	return nil
}

// CheckAxis rejects a true-negative x axis without a true negative range.
func (m *Manifest) CheckAxis(axis curve.Axis) error {
	if axis == curve.AxisTrueNegatives && strings.TrimSpace(m.TrueNegatives) == "" {
		return vserr.New(vserr.KindParse, m.Title, "x_axis %s needs true_negatives", axis)
	}
	return nil
}

// Categories parses the ID specs of the manifest.
func (m *Manifest) Categories() (intersect.Categories, error) {
	var cats intersect.Categories
	var err error

	if cats.TruePositives, err = idrange.Parse(m.TruePositives); err != nil {
		return cats, fmt.Errorf("true positives: %w", err)
	}
	if cats.TrueNegatives, err = idrange.Parse(m.TrueNegatives); err != nil {
		return cats, fmt.Errorf("true negatives: %w", err)
	}
	if cats.Omit, err = idrange.ParseOmit(m.Omit); err != nil {
		return cats, fmt.Errorf("omit: %w", err)
	}
	if err := cats.Validate(); err != nil {
		return cats, err
	}
	return cats, nil
}

// MarkerList parses the marker spec of the manifest.
func (m *Manifest) MarkerList() ([]idrange.Marker, error) {
	markers, err := idrange.ParseMarkers(m.Markers)
	if err != nil {
		return nil, fmt.Errorf("markers: %w", err)
	}
	return markers, nil
}

// OmitSpec returns the omit spec, with the no-omission sentinel when unset.
func (m *Manifest) OmitSpec() string {
	if strings.TrimSpace(m.Omit) == "" {
		return idrange.NoOmission
	}
	return m.Omit
}
