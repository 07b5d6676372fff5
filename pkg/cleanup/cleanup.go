package cleanup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name string
	Dir  bool
}

// Deletion is a path planned for removal.
type Deletion struct {
	Path string
	Dir  bool
}

// Confirm decides whether a plan may be applied.
type Confirm func(plan []Deletion) (bool, error)

// Outcome reports what Apply did.
type Outcome struct {
	Planned  int
	Removed  int
	Declined bool
}

// PlanDeletions selects the leftovers of earlier runs in a listing of dir:
// entries named only by digits (slice directories) and *.log files. The
// plan is sorted by path.
func PlanDeletions(dir string, listing []Entry) []Deletion {
	var plan []Deletion
	for _, e := range listing {
		if isSliceName(e.Name) || strings.HasSuffix(e.Name, ".log") {
			plan = append(plan, Deletion{Path: filepath.Join(dir, e.Name), Dir: e.Dir})
		}
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Path < plan[j].Path })
	return plan
}

func isSliceName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ReadListing lists dir for PlanDeletions.
func ReadListing(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, vserr.Wrap(vserr.KindIO, dir, err, "could not list directory")
	}
	listing := make([]Entry, len(entries))
	for i, e := range entries {
		listing[i] = Entry{Name: e.Name(), Dir: e.IsDir()}
	}
	return listing, nil
}

// Apply removes every planned path once confirm agrees. An empty plan is
// never confirmed.
func Apply(plan []Deletion, confirm Confirm) (Outcome, error) {
	out := Outcome{Planned: len(plan)}
	if len(plan) == 0 {
		return out, nil
	}
	if confirm == nil {
		return out, fmt.Errorf("no confirmation policy for %d deletion(s)", len(plan))
	}

	ok, err := confirm(plan)
	if err != nil {
		return out, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		out.Declined = true
		return out, nil
	}

	for _, d := range plan {
		var err error
		if d.Dir {
			err = os.RemoveAll(d.Path)
		} else {
			err = os.Remove(d.Path)
		}
		if err != nil && !os.IsNotExist(err) {
			return out, vserr.Wrap(vserr.KindIO, d.Path, err, "failed to delete")
		}
		out.Removed++
	}
	return out, nil
}

// AlwaysConfirm approves every plan.
func AlwaysConfirm(plan []Deletion) (bool, error) { return true, nil }

// Prompt lists the plan on out and reads a y/n answer from in.
func Prompt(in io.Reader, out io.Writer) Confirm {
	return func(plan []Deletion) (bool, error) {
		fmt.Fprintln(out, "The following files and directories will be deleted:")
		for _, d := range plan {
			fmt.Fprintf(out, "  %s\n", d.Path)
		}
		fmt.Fprintln(out, "Are you sure you want to delete them? (y/n)")

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
