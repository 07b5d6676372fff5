package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Entry is the provenance of one successful run.
type Entry struct {
	Dir   string
	Args  []string
	RunID string
}

// String renders the log body: the working directory, the invocation and
// the run ID, one per line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Dir)
	b.WriteByte('\n')
	b.WriteString(strings.Join(e.Args, " "))
	b.WriteByte('\n')
	if e.RunID != "" {
		fmt.Fprintf(&b, "run %s\n", e.RunID)
	}
	return b.String()
}

// Write replaces the log at path with entry. The file appears only once
// fully written.
func Write(path string, entry Entry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".runlog-*.tmp")
	if err != nil {
		return vserr.Wrap(vserr.KindIO, path, err, "failed to create run log")
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(entry.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return vserr.Wrap(vserr.KindIO, path, err, "failed to write run log")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return vserr.Wrap(vserr.KindIO, path, err, "failed to close run log")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return vserr.Wrap(vserr.KindIO, path, err, "failed to move run log into place")
	}
	return nil
}

// Current describes the running process.
func Current(runID string) (Entry, error) {
	dir, err := os.Getwd()
	if err != nil {
		return Entry{}, vserr.Wrap(vserr.KindIO, "", err, "could not resolve working directory")
	}
	return Entry{Dir: dir, Args: os.Args, RunID: runID}, nil
}
