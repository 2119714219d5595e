package layout

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Dot invokes the Graphviz dot binary for layout computation.
type Dot struct {
	// Binary overrides the dot executable path. Empty means "dot" on PATH.
	Binary string
}

// Layout pipes the DOT description through dot -Tplain.
func (d *Dot) Layout(ctx context.Context, desc string) (string, error) {
	binary := d.Binary
	if binary == "" {
		binary = "dot"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-Tplain")
	cmd.Stdin = strings.NewReader(desc)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("dot layout failed: %s: %w", msg, err)
		}
		return "", fmt.Errorf("dot layout failed: %w", err)
	}
	return stdout.String(), nil
}
