// Package export serializes analysis results into the JSON files consumed by
// the downstream graph tooling.
package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/keldra/resirel/internal/domain/model"
)

// Edge file kinds. The file name becomes "<prefix>_<kind>_edges.json".
const (
	KindDown     = "down"
	KindNonResil = "non_resil"
)

// EdgeGroup is one (source, target) pair with every run that links them,
// each rendered as a "SHORT#runID" label.
type EdgeGroup struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Labels []string `json:"labels"`
}

// GroupEdges collapses edges onto (source, target) pairs, collecting labels.
// Groups keep the order in which each pair was first encountered so output
// files are stable for a given edge list.
func GroupEdges(edges []model.PropagationEdge, short map[string]string) []EdgeGroup {
	groups := make([]EdgeGroup, 0, len(edges))
	index := make(map[[2]string]int, len(edges))

	for _, edge := range edges {
		key := [2]string{edge.Source, edge.Target}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, EdgeGroup{Source: edge.Source, Target: edge.Target})
		}
		groups[i].Labels = append(groups[i].Labels, edge.Label(short))
	}
	return groups
}

// Writer writes result files under a shared path prefix.
type Writer struct {
	prefix string
	indent string
}

// NewWriter creates a Writer for the given output prefix.
func NewWriter(prefix string, opts ...Option) *Writer {
	w := &Writer{
		prefix: prefix,
		indent: defaultIndent,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteTimestamps writes the character -> achievement date map to
// "<prefix>_timestamps.json" with sorted keys. Returns the file path.
func (w *Writer) WriteTimestamps(timestamps map[string]string) (string, error) {
	if timestamps == nil {
		timestamps = map[string]string{}
	}
	return w.writeJSON(fmt.Sprintf("%s_timestamps.json", w.prefix), timestamps)
}

// WriteEdges writes grouped edges to "<prefix>_<kind>_edges.json".
// Returns the file path.
func (w *Writer) WriteEdges(groups []EdgeGroup, kind string) (string, error) {
	if groups == nil {
		groups = []EdgeGroup{}
	}
	return w.writeJSON(fmt.Sprintf("%s_%s_edges.json", w.prefix, kind), groups)
}

func (w *Writer) writeJSON(path string, v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", w.indent)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrWriteResults, path, err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrWriteResults, path, err)
	}
	return path, nil
}
