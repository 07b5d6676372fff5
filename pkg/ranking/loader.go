package ranking

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// LoadFile reads a ranked result table from path.
func LoadFile(path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, vserr.Wrap(vserr.KindIO, path, err, "could not open result file")
	}
	defer file.Close()

	return Load(file, path)
}

// NewReader returns a csv reader tolerant of ragged rows and stray quotes.
func NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	return reader
}

// Load parses a comma-separated ranked result. The first row is a header and
// is discarded; column 0 of every other row is the compound ID.
func Load(r io.Reader, source string) (*Result, error) {
	result := &Result{Source: source}
	seen := make(map[CompoundID]int)

	reader := NewReader(r)
	header := true
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, vserr.New(vserr.KindParse, source, "line %d: %v", perr.Line, perr.Err)
			}
			return nil, vserr.Wrap(vserr.KindIO, source, err, "read failed")
		}
		if header {
			header = false
			continue
		}

		lineNo, _ := reader.FieldPos(0)
		idField := strings.TrimSpace(fields[0])
		if idField == "" {
			return nil, vserr.New(vserr.KindParse, source, "line %d: missing compound id", lineNo)
		}

		id, err := strconv.ParseInt(idField, 10, 64)
		if err != nil {
			return nil, vserr.New(vserr.KindParse, source, "line %d: compound id %q is not an integer", lineNo, idField)
		}
		if id <= 0 {
			return nil, vserr.New(vserr.KindParse, source, "line %d: compound id %d is not positive", lineNo, id)
		}

		cid := CompoundID(id)
		if prev, dup := seen[cid]; dup {
			return nil, vserr.New(vserr.KindParse, source, "line %d: compound id %d already ranked at line %d", lineNo, id, prev)
		}
		seen[cid] = lineNo

		result.Records = append(result.Records, Record{ID: cid, Raw: fields})
	}

	return result, nil
}
