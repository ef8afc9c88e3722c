// Package export writes run plots to image files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/kinsim/internal/viz"
)

// CanvasToSVG writes every dot of a braille canvas as a circle. Each dot
// takes scale×scale user units.
func CanvasToSVG(w io.Writer, canvas *viz.Canvas, scale float64, background, color string) error {
	if canvas == nil {
		return fmt.Errorf("export: nil canvas")
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, color)

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if canvas.Get(x, y) {
				cx := float64(x)*scale + scale/2
				cy := float64(y)*scale + scale/2
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
