// Package render draws graph snapshots to PNG and SVG for case exports and
// the offline render command.
package render

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"git.sr.ht/~sbinet/gg"

	"github.com/fraudlens/ringview/internal/model"
)

// Options controls the output canvas. Zero width/height take the layout
// viewport defaults.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 900
	}
	if o.Height <= 0 {
		o.Height = 500
	}
	return o
}

// Dark console palette.
var (
	bgDark        = color.RGBA{0x1e, 0x1e, 0x2e, 0xff}
	edgeBase      = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	flagRing      = color.RGBA{0xff, 0x55, 0x55, 0xff}
	textPrimary   = color.RGBA{0xf8, 0xf8, 0xf2, 0xff}
	textSecondary = color.RGBA{0xa0, 0xa0, 0xb0, 0xff}

	nodeUser   = color.RGBA{0xbd, 0x93, 0xf9, 0xff} // purple
	nodeDevice = color.RGBA{0x8b, 0xe9, 0xfd, 0xff} // cyan
	nodeIP     = color.RGBA{0x50, 0xfa, 0x7b, 0xff} // green
	nodeDomain = color.RGBA{0xff, 0xb8, 0x6c, 0xff} // orange
)

func nodeColor(t model.NodeType) color.RGBA {
	switch t {
	case model.NodeUser:
		return nodeUser
	case model.NodeDevice:
		return nodeDevice
	case model.NodeIP:
		return nodeIP
	case model.NodeEmailDomain:
		return nodeDomain
	default:
		return textSecondary
	}
}

// edgeColor fades the edge with its weight so loose associations recede.
func edgeColor(weight float64) color.RGBA {
	if weight <= 0 {
		weight = 0.1
	}
	if weight > 1 {
		weight = 1
	}
	c := edgeBase
	c.A = uint8(0x30 + weight*0xa0)
	return c
}

// PNG writes the snapshot as a PNG image.
func PNG(snap model.Snapshot, opts Options, w io.Writer) error {
	opts = opts.withDefaults()
	dc := gg.NewContext(opts.Width, opts.Height)

	dc.SetColor(bgDark)
	dc.Clear()

	// Edges under nodes, in snapshot order.
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
		dc.SetColor(edgeColor(e.Weight))
		dc.SetLineWidth(1 + e.Weight)
		dc.DrawLine(from.X, from.Y, to.X, to.Y)
		dc.Stroke()
	}

	for _, n := range snap.Nodes {
		r := n.Type.Radius()
		if n.Flagged {
			dc.SetColor(flagRing)
			dc.DrawCircle(n.X, n.Y, r+3)
			dc.Fill()
		}
		dc.SetColor(nodeColor(n.Type))
		dc.DrawCircle(n.X, n.Y, r)
		dc.Fill()

		dc.SetColor(textPrimary)
		label := n.Label
		if label == "" {
			label = n.ID
		}
		dc.DrawStringAnchored(label, n.X, n.Y+r+10, 0.5, 0.5)
	}

	if opts.Title != "" {
		dc.SetColor(textPrimary)
		dc.DrawStringAnchored(opts.Title, 16, 20, 0, 0.5)
		dc.SetColor(textSecondary)
		stats := fmt.Sprintf("%d nodes, %d edges", len(snap.Nodes), len(snap.Edges))
		dc.DrawStringAnchored(stats, 16, 38, 0, 0.5)
	}

	return dc.EncodePNG(w)
}

// PNGFile renders the snapshot into a file at path.
func PNGFile(snap model.Snapshot, opts Options, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := PNG(snap, opts, f); err != nil {
		return err
	}
	return f.Close()
}

// FileRenderer re-renders every frame into a fixed output file. The render
// command drives it through the view loop to settle a layout on disk.
type FileRenderer struct {
	Path string
	Opts Options
}

func (r *FileRenderer) DrawFrame(snap model.Snapshot) error {
	switch {
	case isSVGPath(r.Path):
		return SVGFile(snap, r.Opts, r.Path)
	default:
		return PNGFile(snap, r.Opts, r.Path)
	}
}

func isSVGPath(path string) bool {
	return len(path) > 4 && path[len(path)-4:] == ".svg"
}
