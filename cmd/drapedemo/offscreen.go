package main

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"

	"github.com/gogpu/drape"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/gpu/soft"
	"github.com/gogpu/drape/shape"
	"github.com/gogpu/gputypes"
)

func runOffscreen(cfg config) error {
	target := soft.NewTarget(cfg.width, cfg.height)
	dev := soft.New(target)
	r, err := drape.NewRenderer(dev, cfg.options()...)
	if err != nil {
		return err
	}
	defer r.Close()

	shapes := buildScene(cfg.outlineTexture)
	frame := drape.Frame{
		Camera:   cfg.camera,
		Viewport: cfg.viewport(cfg.width, cfg.height),
		Shapes:   shapes,
	}

	if cfg.pickX >= 0 && cfg.pickY >= 0 {
		picked, err := pick(r, dev, frame, cfg.pickX, cfg.pickY)
		if err != nil {
			return err
		}
		if picked == nil {
			log.Printf("Nothing at (%d,%d)", cfg.pickX, cfg.pickY)
		} else {
			log.Printf("Picked %v at (%d,%d)", picked, cfg.pickX, cfg.pickY)
			if cfg.highlight {
				highlight(shapes, picked)
			}
		}
	}

	stats, err := r.RenderFrame(frame)
	if err != nil {
		return err
	}
	if err := savePNG(cfg.output, target.Image()); err != nil {
		return err
	}
	log.Printf("Rendered %d shapes (%d surface batches, %d tiles composited) to %s (%dx%d)",
		stats.ShapesSubmitted, stats.Draw.SurfaceBatches, stats.Draw.TilesComposited, cfg.output, cfg.width, cfg.height)
	return nil
}

// pick renders frame in pick mode and returns the object drawn at (x, y),
// or nil.
func pick(r *drape.Renderer, dev *soft.Device, frame drape.Frame, x, y int) (any, error) {
	frame.PickMode = true
	stats, err := r.RenderFrame(frame)
	if err != nil {
		return nil, err
	}
	// Window coordinates start at the bottom.
	wy := frame.Viewport.Dy() - 1 - y
	img, err := dev.ReadPixels(image.Rect(x, wy, x+1, wy+1))
	if err != nil {
		return nil, fmt.Errorf("read pick color: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, nil
	}
	c := img.RGBAAt(0, 0)
	id := geom.ColorToIdentifier(gputypes.NewColor(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, 1))
	for _, p := range stats.PickedObjects {
		if p.ID == id {
			return p.Object, nil
		}
	}
	return nil, nil
}

func highlight(shapes []shape.Shape, object any) {
	for _, s := range shapes {
		switch s := s.(type) {
		case *shape.Path:
			s.Highlighted = s.Object == object
		case *shape.Ellipse:
			s.Highlighted = s.Object == object
		case *shape.Polygon:
			s.Highlighted = s.Object == object
		}
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
