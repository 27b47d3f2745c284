package render

import (
	"fmt"
	"image/color"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/fraudlens/ringview/internal/model"
)

func cssRGB(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SVG writes the snapshot as an SVG document. Node ids are carried as
// element ids so exports stay scriptable.
func SVG(snap model.Snapshot, opts Options, w io.Writer) error {
	opts = opts.withDefaults()
	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:"+cssRGB(bgDark))

	pos := make(map[string]model.GraphNode, len(snap.Nodes))
	for _, n := range snap.Nodes {
		pos[n.ID] = n
	}
	for _, e := range snap.Edges {
		from, okF := pos[e.Source]
		to, okT := pos[e.Target]
		if !okF || !okT {
			continue
		}
		opacity := 0.2 + 0.6*e.Weight
		if opacity > 0.8 {
			opacity = 0.8
		}
		style := fmt.Sprintf("stroke:%s;stroke-width:%.1f;stroke-opacity:%.2f",
			cssRGB(edgeBase), 1+e.Weight, opacity)
		canvas.Line(int(from.X), int(from.Y), int(to.X), int(to.Y), style)
	}

	for _, n := range snap.Nodes {
		r := int(n.Type.Radius())
		x, y := int(n.X), int(n.Y)
		if n.Flagged {
			canvas.Circle(x, y, r+3, "fill:"+cssRGB(flagRing))
		}
		canvas.Gid(n.ID)
		canvas.Circle(x, y, r, "fill:"+cssRGB(nodeColor(n.Type)))
		label := n.Label
		if label == "" {
			label = n.ID
		}
		canvas.Text(x, y+r+14, label,
			"fill:"+cssRGB(textPrimary)+";font-size:11px;text-anchor:middle;font-family:sans-serif")
		canvas.Gend()
	}

	if opts.Title != "" {
		canvas.Text(16, 24, opts.Title,
			"fill:"+cssRGB(textPrimary)+";font-size:14px;font-family:sans-serif")
		canvas.Text(16, 42, fmt.Sprintf("%d nodes, %d edges", len(snap.Nodes), len(snap.Edges)),
			"fill:"+cssRGB(textSecondary)+";font-size:11px;font-family:sans-serif")
	}

	canvas.End()
	return nil
}

// SVGFile renders the snapshot into a file at path.
func SVGFile(snap model.Snapshot, opts Options, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := SVG(snap, opts, f); err != nil {
		return err
	}
	return f.Close()
}
