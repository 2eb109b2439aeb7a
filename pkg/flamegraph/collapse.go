package flamegraph

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/danpilch/ticktree/pkg/tree"
)

// WriteCollapsed writes t in folded stack format, one "a;b;c value" line per
// node with the node's self time in microseconds as the value. Self time is
// the node's duration minus its children's, floored at zero.
func WriteCollapsed(w io.Writer, t *tree.Tree, duration DurationFunc) error {
	root, ok := t.Root()
	if !ok {
		return fmt.Errorf("tree has no root")
	}

	stacks := make(map[string]int64)
	var path []string
	onPath := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if onPath[name] {
			return
		}
		onPath[name] = true
		path = append(path, name)

		self := duration(name)
		for _, child := range t.Children(name) {
			self -= duration(child)
			visit(child)
		}
		if self < 0 {
			self = 0
		}
		stacks[strings.Join(path, ";")] += int64(self / time.Microsecond)

		path = path[:len(path)-1]
		onPath[name] = false
	}
	visit(root)

	return writeCollapsed(w, stacks)
}

func writeCollapsed(w io.Writer, stacks map[string]int64) error {
	// Sort for deterministic output
	keys := make([]string, 0, len(stacks))
	for k := range stacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s %d\n", k, stacks[k]); err != nil {
			return err
		}
	}
	return nil
}
