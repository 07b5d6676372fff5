package curve

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Store persists curves as headerless "screened,found,x,y" rows.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Key identifies a stored curve: the experiment plus every input that
// changes the curve it produces.
type Key struct {
	Legend        string
	TruePositives string
	TrueNegatives string
	Omit          string
	Axis          Axis
}

// FileName names the curve file of k, e.g.
// glide_roc_knowns_1-514_negs_none_omits_0-0.csv. Curves on the
// true-negative axis carry an "_xneg" suffix.
func FileName(k Key) string {
	omit := k.Omit
	if strings.TrimSpace(omit) == "" {
		omit = "0-0"
	}
	suffix := ""
	if k.Axis == AxisTrueNegatives {
		suffix = "_xneg"
	}
	return fmt.Sprintf("%s_roc_knowns_%s_negs_%s_omits_%s%s.csv",
		SafeName(k.Legend), SafeName(k.TruePositives), SafeName(k.TrueNegatives), SafeName(omit), suffix)
}

// SafeName maps a spec or legend onto characters safe in file names.
func SafeName(spec string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(spec) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('+')
		case r == ' ':
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

// Path returns where Save puts a curve named name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Save writes c to Dir/name. The file appears only once fully written.
func (s *Store) Save(c Curve, name string) (string, error) {
	path := s.Path(name)

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", vserr.Wrap(vserr.KindIO, s.Dir, err, "failed to create curve directory")
	}

	tmp, err := os.CreateTemp(s.Dir, ".curve-*.tmp")
	if err != nil {
		return "", vserr.Wrap(vserr.KindIO, path, err, "failed to create curve file")
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := bufio.NewWriter(tmp)
	for _, p := range c.Points {
		fmt.Fprintf(w, "%d,%d,%s,%s\n", p.Screened, p.Found, formatFloat(p.X), formatFloat(p.Y))
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return "", vserr.Wrap(vserr.KindIO, path, err, "failed to write curve")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", vserr.Wrap(vserr.KindIO, path, err, "failed to close curve file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", vserr.Wrap(vserr.KindIO, path, err, "failed to move curve into place")
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Exists reports whether a curve file named name is already stored.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Load reads a stored curve and attaches legend to it.
func Load(path, legend string) (Curve, error) {
	file, err := os.Open(path)
	if err != nil {
		return Curve{}, vserr.Wrap(vserr.KindIO, path, err, "could not open curve file")
	}
	defer file.Close()

	c := Curve{Legend: legend}
	reader := ranking.NewReader(file)
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return Curve{}, vserr.New(vserr.KindParse, path, "line %d: %v", perr.Line, perr.Err)
			}
			return Curve{}, vserr.Wrap(vserr.KindIO, path, err, "failed to read curve file")
		}

		p, err := parseRow(fields)
		if err != nil {
			lineNo, _ := reader.FieldPos(0)
			return Curve{}, vserr.New(vserr.KindParse, path, "line %d: %v", lineNo, err)
		}
		c.Points = append(c.Points, p)
	}
	return c, nil
}

func parseRow(fields []string) (Point, error) {
	if len(fields) < 4 {
		return Point{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}

	var p Point
	var err error
	if p.Screened, err = strconv.Atoi(strings.TrimSpace(fields[0])); err != nil {
		return Point{}, fmt.Errorf("screened count: %w", err)
	}
	if p.Found, err = strconv.Atoi(strings.TrimSpace(fields[1])); err != nil {
		return Point{}, fmt.Errorf("found count: %w", err)
	}
	if p.X, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
		return Point{}, fmt.Errorf("x percent: %w", err)
	}
	if p.Y, err = strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err != nil {
		return Point{}, fmt.Errorf("y percent: %w", err)
	}
	return p, nil
}

// Totals recovers the totals of a stored curve from its final row. On
// AxisTrueNegatives the library is TruePositive ∪ TrueNegative, so the
// true-negative total is the remainder; on AxisLibrary it is not
// recoverable and stays zero.
func Totals(c Curve, axis Axis) (intersect.Totals, error) {
	last, ok := c.Last()
	if !ok {
		return intersect.Totals{}, vserr.New(vserr.KindZeroCategory, c.Legend, "stored curve is empty")
	}
	if last.Screened <= 0 || last.Found <= 0 {
		return intersect.Totals{}, vserr.New(vserr.KindZeroCategory, c.Legend,
			"stored curve ends with %d screened and %d found", last.Screened, last.Found)
	}
	t := intersect.Totals{
		Library:       last.Screened,
		TruePositives: last.Found,
	}
	if axis == AxisTrueNegatives {
		t.TrueNegatives = t.Library - t.TruePositives
		if t.TrueNegatives <= 0 {
			return intersect.Totals{}, vserr.New(vserr.KindZeroCategory, c.Legend, "stored curve has no true negatives")
		}
	}
	return t, nil
}
