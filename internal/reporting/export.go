package reporting

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Export writes the HTML report and the scatter plot into dir, creating it
// if needed. A report without packets yields only the HTML file.
func Export(r Report, dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}

	htmlPath, err := GenerateSessionReport(r, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	paths := []string{htmlPath}

	pngPath, err := GenerateScatter(r, dir)
	switch {
	case errors.Is(err, ErrNothingToPlot):
	case err != nil:
		return paths, fmt.Errorf("failed to write plot: %w", err)
	default:
		paths = append(paths, pngPath)
	}
	return paths, nil
}
