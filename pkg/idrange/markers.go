package idrange

import (
	"strings"

	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Marker names a reference ligand to highlight on the curves.
type Marker struct {
	Name string             `json:"name" yaml:"name"`
	ID   ranking.CompoundID `json:"id" yaml:"id"`
}

// ParseMarkers parses "lig1:328,lig2:535". An empty spec yields no markers.
func ParseMarkers(spec string) ([]Marker, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var markers []Marker
	for i, item := range strings.Split(spec, ",") {
		name, idStr, ok := strings.Cut(strings.TrimSpace(item), ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, vserr.New(vserr.KindParse, spec, "marker %d: expected name:id, got %q", i+1, item)
		}
		id, err := parseID(idStr)
		if err != nil {
			return nil, vserr.New(vserr.KindParse, spec, "marker %d: %v", i+1, err)
		}
		markers = append(markers, Marker{Name: name, ID: id})
	}
	return markers, nil
}
