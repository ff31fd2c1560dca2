package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"strings"

	// Decoders for everything the gallery accepts
	_ "image/gif"
	_ "image/jpeg"

	"bitwise74/gallery-bot/internal/model"
	"bitwise74/gallery-bot/internal/storage"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"go.uber.org/zap"
)

const (
	collageSize = 900
	cellSize    = 300
	collageCols = 3
	collageMax  = 9
)

// CollageBuilder renders a 3x3 grid out of a user's archived images.
// Stateless, a failed cell is skipped and the rest of the grid still
// renders.
type CollageBuilder struct {
	Store  storage.Backend
	Client *http.Client
}

// Build composites up to nine records into a 900x900 PNG. Cells
// without an image are filled with a gray placeholder. Fails only when
// not a single image could be processed.
func (c *CollageBuilder) Build(ctx context.Context, media []model.Media) ([]byte, error) {
	if len(media) > collageMax {
		media = media[:collageMax]
	}

	canvas := image.NewRGBA(image.Rect(0, 0, collageSize, collageSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	placed := 0

	for _, m := range media {
		img, err := c.load(ctx, &m)
		if err != nil {
			zap.L().Warn("Skipping collage cell",
				zap.String("filename", m.Filename), zap.Error(err))
			continue
		}

		drawCell(canvas, placed, img)
		placed++
	}

	if placed == 0 {
		return nil, errors.New("no images could be processed for the collage")
	}

	gray := image.NewUniform(color.RGBA{R: 240, G: 240, B: 240, A: 255})
	for i := placed; i < collageMax; i++ {
		draw.Draw(canvas, cellRect(i), gray, image.Point{}, draw.Src)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode collage, %w", err)
	}

	return out.Bytes(), nil
}

func (c *CollageBuilder) load(ctx context.Context, m *model.Media) (image.Image, error) {
	var r io.ReadCloser

	if strings.HasPrefix(m.Locator, "http://") || strings.HasPrefix(m.Locator, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.Locator, nil)
		if err != nil {
			return nil, err
		}

		client := c.Client
		if client == nil {
			client = http.DefaultClient
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch returned status %d", resp.StatusCode)
		}

		r = resp.Body
	} else {
		var err error
		r, err = c.Store.Open(ctx, m.Locator)
		if err != nil {
			return nil, err
		}
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image, %w", err)
	}

	return img, nil
}

func cellRect(i int) image.Rectangle {
	x := (i % collageCols) * cellSize
	y := (i / collageCols) * cellSize
	return image.Rect(x, y, x+cellSize, y+cellSize)
}

// drawCell scales the image cover-style into its cell, cropping the
// longer dimension around the center
func drawCell(canvas *image.RGBA, i int, img image.Image) {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())

	cx := b.Min.X + (b.Dx()-side)/2
	cy := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(cx, cy, cx+side, cy+side)

	xdraw.ApproxBiLinear.Scale(canvas, cellRect(i), img, crop, draw.Src, nil)
}
