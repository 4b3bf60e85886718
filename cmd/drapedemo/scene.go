package main

import (
	"image"
	"image/color"

	"github.com/gogpu/drape/geom"
	"github.com/gogpu/drape/globe"
	"github.com/gogpu/drape/shape"
	"github.com/gogpu/gputypes"
)

// sceneObject names a demo shape in pick reports.
type sceneObject string

func mustHex(s string) gputypes.Color {
	c, err := geom.ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// dashes is an outline texture: 8 opaque texels then 8 transparent ones.
func dashes() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 1))
	for x := 0; x < 8; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{255, 255, 255, 255})
	}
	return img
}

// buildScene returns the demo shapes: the classic three-position path
// draped on the ground and flown at altitude, a ground ellipse, an
// extruded ellipse and a ground polygon with a hole.
func buildScene(outlineTexture bool) []shape.Shape {
	positions := []geom.Position{
		geom.NewPosition(50, -180, 1e5),
		geom.NewPosition(30, -100, 1e6),
		geom.NewPosition(50, -40, 1e5),
	}

	surfacePath := shape.NewPath(positions)
	surfacePath.SetAltitudeMode(globe.ClampToGround)
	surfacePath.SetFollowTerrain(true)
	surfacePath.Attributes.OutlineColor = mustHex("#ffd400")
	surfacePath.Attributes.OutlineWidth = 3
	surfacePath.Object = sceneObject("surface path")

	airPath := shape.NewPath(positions)
	airPath.SetPathType(shape.RhumbLine)
	airPath.SetExtrude(true)
	airPath.Attributes.InteriorColor = mustHex("#2080ff80")
	airPath.Attributes.OutlineColor = mustHex("#ffffff")
	airPath.Attributes.DrawVerticals = true
	airPath.HighlightAttributes = airPath.Attributes.Copy()
	airPath.HighlightAttributes.OutlineColor = mustHex("#ff2020")
	airPath.Object = sceneObject("extruded path")
	if outlineTexture {
		airPath.Attributes.OutlineImage = dashes()
	}

	groundEllipse := shape.NewEllipse(geom.NewPosition(38, -97, 0), 9e5, 5e5)
	groundEllipse.SetHeading(45)
	groundEllipse.SetAltitudeMode(globe.ClampToGround)
	groundEllipse.SetFollowTerrain(true)
	groundEllipse.Attributes.InteriorColor = mustHex("#30c05080")
	groundEllipse.Attributes.OutlineColor = mustHex("#30c050")
	groundEllipse.Object = sceneObject("ground ellipse")

	tower := shape.NewEllipse(geom.NewPosition(45, -75, 4e5), 3e5, 3e5)
	tower.SetExtrude(true)
	tower.Attributes.InteriorColor = mustHex("#e04040c0")
	tower.Attributes.OutlineColor = mustHex("#000000")
	tower.Object = sceneObject("tower")

	park := shape.NewPolygon([]geom.Position{
		geom.NewPosition(20, -120, 0),
		geom.NewPosition(20, -105, 0),
		geom.NewPosition(32, -105, 0),
		geom.NewPosition(32, -120, 0),
	})
	park.AddBoundary([]geom.Position{
		geom.NewPosition(24, -115, 0),
		geom.NewPosition(28, -115, 0),
		geom.NewPosition(28, -110, 0),
		geom.NewPosition(24, -110, 0),
	})
	park.SetPathType(shape.RhumbLine)
	park.SetAltitudeMode(globe.ClampToGround)
	park.SetFollowTerrain(true)
	park.Attributes.InteriorColor = mustHex("#a040e060")
	park.Attributes.OutlineColor = mustHex("#a040e0")
	park.Object = sceneObject("park")

	return []shape.Shape{surfacePath, groundEllipse, park, airPath, tower}
}
