package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/aymanbagabas/go-udiff"
	"github.com/aymanbagabas/go-udiff/myers"
	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"
)

type LineDiffConfig struct {
	Tool  string
	Color bool
}

// LineDiff returns a textual diff of two sanitized disassembly blobs using
// the configured tool: the built-in unified differ by default, or
// go/git/delta/diff.
func LineDiff(prev, next string, conf *LineDiffConfig) (string, error) {
	switch conf.Tool {
	case "go":
		return goLineDiff(prev, next, conf)
	case "git":
		return gitLineDiff(prev, next, conf)
	case "delta":
		return deltaLineDiff(prev, next)
	case "diff":
		return classicLineDiff(prev, next)
	default:
		// line-level edits, so unchanged instructions stay context lines
		unified, err := udiff.ToUnified("a", "b", prev, myers.ComputeEdits(prev, next), udiff.DefaultContextLines)
		if err != nil {
			return "", err
		}
		return colorized(unified, conf)
	}
}

// diffPair materializes the two blobs on disk for the external diff tools.
// The file names are deterministic and overwritten on every symbol, so two
// runs sharing a temp dir would trample each other; concurrent invocation is
// an accepted non-goal.
func diffPair(prev, next string) (string, string, error) {
	prevPath := filepath.Join(os.TempDir(), "disdiff_temp_a.txt")
	nextPath := filepath.Join(os.TempDir(), "disdiff_temp_b.txt")

	if err := os.WriteFile(prevPath, []byte(prev), 0644); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(nextPath, []byte(next), 0644); err != nil {
		return "", "", err
	}
	return prevPath, nextPath, nil
}

func colorized(diff string, conf *LineDiffConfig) (string, error) {
	if !conf.Color {
		return diff, nil
	}
	b := new(strings.Builder)
	if err := quick.Highlight(b, diff, "diff", "terminal256", "nord"); err != nil {
		return "", err
	}
	return b.String(), nil
}

// goLineDiff diffs in pure Go, line by line. Disassembly is strictly
// line-oriented, so the comparison runs in diffmatchpatch's line mode and
// the result is rendered as +/- instruction lines; unchanged instructions
// are omitted.
func goLineDiff(prev, next string, conf *LineDiffConfig) (string, error) {
	dmp := diffmatchpatch.New()
	pc, nc, lines := dmp.DiffLinesToChars(prev, next)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(pc, nc, false), lines)

	var out strings.Builder
	for _, df := range diffs {
		var prefix string
		switch df.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(df.Text, "\n"), "\n") {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	if out.Len() == 0 {
		return "", nil
	}
	return colorized(out.String(), conf)
}

// gitLineDiff diffs via `git diff --no-index`. Git's file header names the
// temp pair rather than the builds, and its @@ hunk offsets are exactly the
// address noise this tool exists to cancel, so only the hunk bodies are
// kept.
func gitLineDiff(prev, next string, conf *LineDiffConfig) (string, error) {
	prevPath, nextPath, err := diffPair(prev, next)
	if err != nil {
		return "", err
	}

	// git exits 1 whenever the inputs differ, the output is still the patch
	patch, _ := exec.Command("git", "diff", "--no-index", prevPath, nextPath).CombinedOutput()

	var out strings.Builder
	inHunk := false
	for _, line := range strings.Split(strings.TrimSuffix(string(patch), "\n"), "\n") {
		if strings.HasPrefix(line, "@@") {
			inHunk = true
			continue
		}
		if !inHunk {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return colorized(out.String(), conf)
}

// deltaLineDiff renders the diff with delta, sized to the terminal. delta
// colorizes on its own, so the Color flag is not consulted.
func deltaLineDiff(prev, next string) (string, error) {
	prevPath, nextPath, err := diffPair(prev, next)
	if err != nil {
		return "", err
	}

	width := 120
	if term.IsTerminal(0) {
		if w, _, err := term.GetSize(0); err == nil {
			width = w
		}
	}

	// file and hunk headers carry temp names and addresses, drop both
	out, _ := exec.Command("delta",
		"--diff-so-fancy",
		"--paging", "never",
		"--file-style", "omit",
		"--hunk-header-style", "omit",
		"--width", strconv.Itoa(width),
		prevPath, nextPath,
	).CombinedOutput()

	return string(out), nil
}

// classicLineDiff shells out to diff(1), the collaborator the original tool
// used.
func classicLineDiff(prev, next string) (string, error) {
	prevPath, nextPath, err := diffPair(prev, next)
	if err != nil {
		return "", err
	}

	out, err := exec.Command("diff", prevPath, nextPath).CombinedOutput()
	if err != nil {
		// like git, diff exits 1 on differing inputs; only a failed launch
		// is an error
		if _, ok := err.(*exec.ExitError); !ok {
			return "", err
		}
	}

	return string(out), nil
}
