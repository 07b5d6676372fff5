package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

const sample = `
title: "Kinase benchmark"
true_positives: "1-3,7"
true_negatives: "10-20"
omit: "0-0"
markers: "ref:2"
zoom: 5
experiments:
  - legend: glide
    path: glide.csv
    group: docking
  - legend: icm
    path: /data/icm.csv
`

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Kinase benchmark", m.Title)
	require.Len(t, m.Experiments, 2)
	assert.Equal(t, filepath.Join(dir, "glide.csv"), m.Experiments[0].Path)
	assert.Equal(t, "/data/icm.csv", m.Experiments[1].Path)
	assert.Equal(t, "docking", m.Experiments[0].GroupName())
	assert.Equal(t, "icm", m.Experiments[1].GroupName())

	require.NotNil(t, m.Zoom)
	assert.Equal(t, 5.0, *m.Zoom)
	assert.Nil(t, m.LogX)
}

func TestCategories(t *testing.T) {
	m, err := Parse([]byte(sample), "sample")
	require.NoError(t, err)

	cats, err := m.Categories()
	require.NoError(t, err)
	assert.Equal(t, 4, cats.TruePositives.Len())
	assert.Equal(t, 11, cats.TrueNegatives.Len())
	assert.True(t, cats.Omit.IsEmpty())
	assert.Equal(t, "0-0", m.OmitSpec())

	markers, err := m.MarkerList()
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, ranking.CompoundID(2), markers[0].ID)
}

func TestCategoriesRejectOverlap(t *testing.T) {
	m := &Manifest{
		Title:         "overlap",
		TruePositives: "1-5",
		TrueNegatives: "5-9",
		Experiments:   []Experiment{{Legend: "a", Path: "a.csv"}},
	}
	_, err := m.Categories()
	assert.True(t, errors.Is(err, vserr.ErrParse))
}

func TestValidate(t *testing.T) {
	zoom := 120.0
	tests := []struct {
		name string
		m    Manifest
	}{
		{"no title", Manifest{TruePositives: "1", Experiments: []Experiment{{Legend: "a", Path: "a"}}}},
		{"no experiments", Manifest{Title: "t", TruePositives: "1"}},
		{"no legend", Manifest{Title: "t", TruePositives: "1", Experiments: []Experiment{{Path: "a"}}}},
		{"no path", Manifest{Title: "t", TruePositives: "1", Experiments: []Experiment{{Legend: "a"}}}},
		{"duplicate legend", Manifest{Title: "t", TruePositives: "1", Experiments: []Experiment{
			{Legend: "a", Path: "a"}, {Legend: "a", Path: "b"}}}},
		{"no true positives", Manifest{Title: "t", Experiments: []Experiment{{Legend: "a", Path: "a"}}}},
		{"zoom out of range", Manifest{Title: "t", TruePositives: "1", Zoom: &zoom,
			Experiments: []Experiment{{Legend: "a", Path: "a"}}}},
		{"unknown x axis", Manifest{Title: "t", TruePositives: "1", XAxis: "decoys",
			Experiments: []Experiment{{Legend: "a", Path: "a"}}}},
		{"roc axis without true negatives", Manifest{Title: "t", TruePositives: "1", XAxis: "true_negatives",
			Experiments: []Experiment{{Legend: "a", Path: "a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			assert.True(t, errors.Is(err, vserr.ErrParse), "got %v", err)
		})
	}
}

func TestParseXAxis(t *testing.T) {
	m, err := Parse([]byte(sample+"x_axis: true_negatives\n"), "roc.yaml")
	require.NoError(t, err)
	assert.Equal(t, "true_negatives", m.XAxis)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("title: x\ncolour: red\n"), "bad.yaml")
	assert.True(t, errors.Is(err, vserr.ErrParse))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, vserr.ErrIO))
}
