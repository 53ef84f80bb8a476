package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/callscope/callscope/internal/calltree"
)

// Header is the fixed first line of the text report, standing in for the
// root node which carries no payload of its own.
const Header = "Profiling Result"

// Write serializes the tree as an indented text report, pre-order, one line
// per profiled caller, two spaces of indentation per depth level. Cumulative
// times are truncated to milliseconds at this point only; the tree itself
// keeps full precision.
func Write(w io.Writer, t *calltree.Tree) error {
	return writeNode(w, t, calltree.Root, 0)
}

func writeNode(w io.Writer, t *calltree.Tree, id calltree.NodeID, depth int) error {
	indent := strings.Repeat("  ", depth)
	var err error
	if depth == 0 {
		_, err = fmt.Fprintf(w, "%s%s\n", indent, Header)
	} else {
		_, err = fmt.Fprintf(w, "%s%s - Total Time: %d ms, Call Count: %d\n",
			indent, t.Name(id), t.TotalTime(id).Milliseconds(), t.CallCount(id))
	}
	if err != nil {
		return err
	}
	for _, child := range t.Children(id) {
		if err := writeNode(w, t, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

type (
	Node struct {
		Name       string `json:"name"`
		DurationNS uint64 `json:"duration_ns"`
		CallCount  int    `json:"call_count"`
		Children   []Node `json:"children,omitempty"`
	}

	Report struct {
		ID        string    `json:"id"`
		Timestamp time.Time `json:"timestamp"`
		Roots     []Node    `json:"roots,omitempty"`
	}
)

// Build flattens the tree below the root into the JSON node shape.
func Build(t *calltree.Tree) []Node {
	return buildChildren(t, calltree.Root)
}

func buildChildren(t *calltree.Tree, id calltree.NodeID) []Node {
	ids := t.Children(id)
	if len(ids) == 0 {
		return nil
	}
	nodes := make([]Node, 0, len(ids))
	for _, child := range ids {
		nodes = append(nodes, Node{
			Name:       t.Name(child),
			DurationNS: uint64(t.TotalTime(child).Nanoseconds()),
			CallCount:  t.CallCount(child),
			Children:   buildChildren(t, child),
		})
	}
	return nodes
}

// Marshal encodes the tree as a one-shot JSON report stamped with a fresh ID.
func Marshal(t *calltree.Tree) ([]byte, error) {
	return json.Marshal(Report{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Roots:     Build(t),
	})
}
