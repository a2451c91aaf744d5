package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/odvcencio/rug/pkg/repo"
)

const commitTemplate = `
# Please enter the commit message for your changes. Lines starting
# with '#' will be ignored, and an empty message aborts the commit.
`

// editorMessage asks the user's editor for a commit message, using
// .rug/COMMIT_EDITMSG as the scratch file.
type editorMessage struct {
	repo   *repo.Repo
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (m *editorMessage) Message() (string, error) {
	path := filepath.Join(m.repo.MetaDir, "COMMIT_EDITMSG")
	if err := os.WriteFile(path, []byte(commitTemplate), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	editor := m.repo.Editor()
	cmd := exec.Command("sh", "-c", editor+` "$@"`, editor, path)
	cmd.Stdin = m.stdin
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %q: %w", editor, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return stripComments(string(data)), nil
}

// stripComments drops '#' lines and surrounding blank lines from an edited
// commit message.
func stripComments(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}
	out := strings.TrimSpace(strings.Join(kept, "\n"))
	if out == "" {
		return ""
	}
	return out + "\n"
}
