package rewrite

import (
	"bytes"
	"fmt"

	"github.com/sourcegraph/go-diff/diff"
)

// contextLines is the number of unchanged lines shown around each change.
const contextLines = 3

// Diff renders the change from before to after as a unified diff. It only
// understands pure insertions (every line of before survives in after), which
// is what Apply produces. Identical inputs yield an empty diff.
func Diff(path string, before, after []byte) ([]byte, error) {
	if bytes.Equal(before, after) {
		return nil, nil
	}

	oldLines := splitLines(before)
	newLines := splitLines(after)

	ops, err := insertionOps(oldLines, newLines)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", path, err)
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
		Hunks:    buildHunks(ops),
	}
	return diff.PrintFileDiff(fd)
}

type lineOp struct {
	added bool
	text  string
	old   int // 1-based line in before, 0 for added lines
	new   int // 1-based line in after
}

// insertionOps aligns newLines against oldLines assuming only additions.
func insertionOps(oldLines, newLines []string) ([]lineOp, error) {
	ops := make([]lineOp, 0, len(newLines))
	i := 0
	for j, line := range newLines {
		remainingOld := len(oldLines) - i
		remainingNew := len(newLines) - j
		if i < len(oldLines) && line == oldLines[i] && remainingNew >= remainingOld {
			ops = append(ops, lineOp{text: line, old: i + 1, new: j + 1})
			i++
			continue
		}
		ops = append(ops, lineOp{added: true, text: line, new: j + 1})
	}
	if i != len(oldLines) {
		return nil, fmt.Errorf("change is not a pure insertion")
	}
	return ops, nil
}

func buildHunks(ops []lineOp) []*diff.Hunk {
	var hunks []*diff.Hunk

	for start := 0; start < len(ops); {
		// find the next added line
		first := start
		for first < len(ops) && !ops[first].added {
			first++
		}
		if first == len(ops) {
			break
		}

		lo := max(first-contextLines, start)
		hi := first
		for {
			for hi < len(ops) && ops[hi].added {
				hi++
			}
			next := hi
			for next < len(ops) && !ops[next].added {
				next++
			}
			if next < len(ops) && next-hi <= 2*contextLines {
				hi = next
				continue
			}
			hi = min(hi+contextLines, len(ops))
			break
		}

		hunks = append(hunks, makeHunk(ops[lo:hi]))
		start = hi
	}
	return hunks
}

func makeHunk(ops []lineOp) *diff.Hunk {
	h := &diff.Hunk{NewStartLine: int32(ops[0].new)}
	var body bytes.Buffer

	for _, op := range ops {
		if op.added {
			body.WriteString("+")
		} else {
			body.WriteString(" ")
			if h.OrigLines == 0 {
				h.OrigStartLine = int32(op.old)
			}
			h.OrigLines++
		}
		body.WriteString(op.text + "\n")
		h.NewLines++
	}
	if h.OrigLines == 0 {
		// no context: the hunk lands after this line of the original
		h.OrigStartLine = int32(max(ops[0].new-1, 0))
	}
	h.Body = body.Bytes()
	return h
}

func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	b = bytes.TrimSuffix(b, []byte("\n"))
	parts := bytes.Split(b, []byte("\n"))
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(p)
	}
	return lines
}
