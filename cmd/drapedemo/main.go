// Command drapedemo renders sample paths and ellipses over the globe,
// either to a PNG with the software device or in a window with OpenGL.
package main

import (
	"flag"
	"image"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/drape"
	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/render"
	"github.com/gogpu/gputypes"
)

type config struct {
	width, height  int
	output         string
	window         bool
	camera         render.Camera
	tileSize       int
	outlineTexture bool
	pickX, pickY   int
	highlight      bool
	clear          gputypes.Color
}

func main() {
	var (
		width     = flag.Int("width", 800, "image width")
		height    = flag.Int("height", 600, "image height")
		output    = flag.String("output", "drape.png", "output file")
		window    = flag.Bool("window", false, "open an OpenGL window instead of writing a PNG")
		lat       = flag.Float64("lat", 40, "camera latitude in degrees")
		lon       = flag.Float64("lon", -110, "camera longitude in degrees")
		alt       = flag.Float64("alt", 2e7, "camera altitude in meters")
		heading   = flag.Float64("heading", 0, "camera heading in degrees")
		tilt      = flag.Float64("tilt", 0, "camera tilt in degrees")
		tileSize  = flag.Int("tile", 512, "surface shape texture size")
		dashed    = flag.Bool("dashed", false, "texture the extruded path outline with dashes")
		pickX     = flag.Int("pickx", -1, "report the shape under this x coordinate (top-left origin)")
		pickY     = flag.Int("picky", -1, "report the shape under this y coordinate (top-left origin)")
		highlight = flag.Bool("highlight", false, "highlight the picked shape in the output")
		clearHex  = flag.String("clear", "#000000", "background color")
		verbose   = flag.Bool("v", false, "log debug output to stderr")
	)
	flag.Parse()

	if *verbose {
		drape.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	background, err := geom.ParseHex(*clearHex)
	if err != nil {
		log.Fatalf("Invalid -clear: %v", err)
	}

	cfg := config{
		width:          *width,
		height:         *height,
		output:         *output,
		window:         *window,
		camera:         render.Camera{Position: geom.NewPosition(*lat, *lon, *alt), Heading: *heading, Tilt: *tilt},
		tileSize:       *tileSize,
		outlineTexture: *dashed,
		pickX:          *pickX,
		pickY:          *pickY,
		highlight:      *highlight,
		clear:          background,
	}

	if cfg.window {
		err = runWindow(cfg)
	} else {
		err = runOffscreen(cfg)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func (c config) options() []drape.Option {
	return []drape.Option{
		drape.WithTileTextureSize(c.tileSize),
		drape.WithClearColor(c.clear),
	}
}

func (c config) viewport(width, height int) image.Rectangle {
	return image.Rect(0, 0, width, height)
}
