package length

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/valpere/mojify/internal/engine"
)

const labelMargin = 20

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	gridColor  = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	labelColor = color.RGBA{0x20, 0x20, 0x20, 0xff}
)

// Render draws the link matrix: rows are from sentences, columns to
// sentences, one dot per link shaded by its score. With a positive
// p.BatchSize each image covers that many from rows; the first image is
// written to out and the next ones to <out>_<n><ext>.
func (e *Engine) Render(ctx context.Context, path, out string, p engine.RenderParams) error {
	a, err := load(ctx, path)
	if err != nil {
		return err
	}
	defer a.db.Close()

	ls, err := a.links(ctx)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create image directory: %w", err)
		}
	}

	n := len(a.from)
	rows := p.BatchSize
	if rows <= 0 || rows > n {
		rows = max(n, 1)
	}

	var paths []string
	for chunk, start := 0, 0; start < max(n, 1); chunk, start = chunk+1, start+rows {
		end := min(start+rows, n)
		var chunkLinks []link
		for _, l := range ls {
			if l.From >= start && l.From < end {
				chunkLinks = append(chunkLinks, l)
			}
		}

		img := drawMatrix(chunkLinks, start, end, len(a.to), p)
		target := chunkPath(out, chunk)
		if err := writePNG(target, img); err != nil {
			return err
		}
		paths = append(paths, target)
	}

	e.logger.Debug("alignment rendered", zap.Strings("images", paths))
	return nil
}

func chunkPath(out string, chunk int) string {
	if chunk == 0 {
		return out
	}
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(out, ext), chunk, ext)
}

func drawMatrix(ls []link, start, end, m int, p engine.RenderParams) *image.RGBA {
	w, h := p.Width, p.Height
	if w <= labelMargin*2 {
		w = 800
	}
	if h <= labelMargin*2 {
		h = 800
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	plot := image.Rect(labelMargin, labelMargin, w-1, h-1)
	for x := plot.Min.X; x <= plot.Max.X; x++ {
		img.Set(x, plot.Min.Y, gridColor)
		img.Set(x, plot.Max.Y, gridColor)
	}
	for y := plot.Min.Y; y <= plot.Max.Y; y++ {
		img.Set(plot.Min.X, y, gridColor)
		img.Set(plot.Max.X, y, gridColor)
	}

	label(img, labelMargin+4, 14, p.LangTo)
	label(img, 2, labelMargin+14, p.LangFrom)

	rows := max(end-start, 1)
	cols := max(m, 1)
	pw, ph := plot.Dx(), plot.Dy()
	dot := max(1, min(pw/cols, ph/rows, 6))

	for _, l := range ls {
		x := plot.Min.X + (l.To*pw)/cols
		y := plot.Min.Y + ((l.From-start)*ph)/rows
		shade := uint8(200 * (1 - clamp01(l.Score)))
		c := color.RGBA{shade, shade, 0xff, 0xff}
		for dx := 0; dx < dot; dx++ {
			for dy := 0; dy < dot; dy++ {
				img.Set(x+dx, y+dy, c)
			}
		}
	}
	return img
}

func label(img *image.RGBA, x, y int, text string) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}
