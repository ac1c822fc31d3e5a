// Package models - Label tables that map model class ids to names.
package models

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// UnknownLabel is substituted for class ids that fall outside the label table.
const UnknownLabel = "Unknown"

// Labels is an ordered label table where the slice index is the class id.
//
// A Labels value is read-only once loaded.
type Labels struct {
	names     []string
	nameToIdx map[string]int
}

// NewLabels builds a label table from names in class id order.
func NewLabels(names ...string) *Labels {
	l := &Labels{
		names:     make([]string, len(names)),
		nameToIdx: make(map[string]int, len(names)),
	}
	copy(l.names, names)
	for i, name := range l.names {
		// First occurrence wins so Index is stable for duplicated names.
		if _, ok := l.nameToIdx[name]; !ok {
			l.nameToIdx[name] = i
		}
	}
	return l
}

// LoadLabels reads a newline-delimited label file.
//
// Arguments:
//   - path: Path to the label file, one label per line.
//
// Returns:
//   - *Labels: The loaded label table.
//   - error: An error if the file cannot be read.
//
// @example
// labels, err := LoadLabels("labelmap.txt")
//
//	if err != nil {
//	    return err
//	}
//
// fmt.Println(labels.Label(0))
func LoadLabels(path string) (*Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open label file %s", path)
	}
	defer f.Close()

	labels, err := ParseLabels(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse label file %s", path)
	}
	return labels, nil
}

// ParseLabels reads one label per line from r.
//
// Windows line endings are trimmed and trailing blank lines are dropped. Blank lines in the
// middle of the file are kept so that indices stay aligned with the model's class ids.
func ParseLabels(r io.Reader) (*Labels, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		names = append(names, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for len(names) > 0 && strings.TrimSpace(names[len(names)-1]) == "" {
		names = names[:len(names)-1]
	}
	if len(names) == 0 {
		return nil, errors.New("label table is empty")
	}

	return NewLabels(names...), nil
}

// Label returns the name for a class id, or UnknownLabel when idx is out of range.
func (l *Labels) Label(idx int) string {
	if l == nil || idx < 0 || idx >= len(l.names) {
		return UnknownLabel
	}
	return l.names[idx]
}

// Index returns the class id of name.
func (l *Labels) Index(name string) (int, bool) {
	if l == nil {
		return -1, false
	}
	idx, ok := l.nameToIdx[name]
	if !ok {
		return -1, false
	}
	return idx, true
}

// Len returns the number of labels in the table.
func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.names)
}

// Names returns a copy of the label names in class id order.
func (l *Labels) Names() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}
