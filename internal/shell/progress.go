package shell

import (
	"fmt"
	"io"
	"strings"
	"time"

	interp "github.com/ShoukiYano/Linux-learning-system-sub000/pkg/shell"
)

const progressWidth = 20

// Progress renders a zip or unzip result as a percentage log spread over
// Duration. The result itself is already complete.
type Progress struct {
	Duration time.Duration
	Steps    int

	// Sleep waits between steps. Nil means no waiting.
	Sleep func(time.Duration)
}

var DefaultProgress = Progress{Duration: 1500 * time.Millisecond, Steps: 5, Sleep: time.Sleep}

func (p Progress) Render(w io.Writer, op *interp.AsyncOp) {
	steps := p.Steps
	if steps < 1 {
		steps = 1
	}

	label := "Compressing"
	if op.Type == interp.AsyncUnzip {
		label = "Extracting"
	}
	targets := strings.Join(op.Targets, " ")

	for i := 1; i <= steps; i++ {
		if p.Sleep != nil && p.Duration > 0 {
			p.Sleep(p.Duration / time.Duration(steps))
		}
		pct := i * 100 / steps
		filled := pct * progressWidth / 100
		fmt.Fprintf(w, "%s %s [%s%s] %3d%%\n", label, targets,
			strings.Repeat("#", filled), strings.Repeat(" ", progressWidth-filled), pct)
	}
}
