package main

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/gridpath/physics"
)

// drawPhysics outlines every shape in the world's space on top of the grid.
func drawPhysics(screen *ebiten.Image, world *physics.World, scale float64) {
	if world == nil || world.Space() == nil || screen == nil {
		return
	}
	cp.DrawSpace(world.Space(), &physicsDrawer{screen: screen, scale: scale})
}

type physicsDrawer struct {
	screen *ebiten.Image
	scale  float64
}

func (d *physicsDrawer) point(v cp.Vector) (float32, float32) {
	return float32(originX + v.X*d.scale), float32(originY + v.Y*d.scale)
}

func (d *physicsDrawer) line(a, b cp.Vector, c cp.FColor) {
	x0, y0 := d.point(a)
	x1, y1 := d.point(b)
	vector.StrokeLine(d.screen, x0, y0, x1, y1, 1, fcolorToRGBA(c), true)
}

func (d *physicsDrawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	x, y := d.point(pos)
	vector.StrokeCircle(d.screen, x, y, float32(radius*d.scale), 1, fcolorToRGBA(outline), true)
	d.line(pos, cp.Vector{X: pos.X + math.Cos(angle)*radius, Y: pos.Y + math.Sin(angle)*radius}, outline)
}

func (d *physicsDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	d.line(a, b, fill)
}

func (d *physicsDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	d.line(a, b, outline)
}

func (d *physicsDrawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	for i := 0; i < count; i++ {
		d.line(verts[i], verts[(i+1)%count], outline)
	}
}

func (d *physicsDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	x, y := d.point(pos)
	vector.FillCircle(d.screen, x, y, float32(size/2), fcolorToRGBA(fill), true)
}

func (d *physicsDrawer) Flags() uint {
	return cp.DRAW_SHAPES
}

func (d *physicsDrawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1.0, B: 0.2, A: 1.0}
}

// ShapeColor tells tiles from the unit: static shapes blue, sensors yellow.
func (d *physicsDrawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	if shape == nil {
		return cp.FColor{R: 1, G: 1, B: 1, A: 1}
	}
	if shape.Sensor() {
		return cp.FColor{R: 1.0, G: 0.85, B: 0.2, A: 1.0}
	}
	if shape.Body() != nil && shape.Body().GetType() == cp.BODY_STATIC {
		return cp.FColor{R: 0.4, G: 0.7, B: 1.0, A: 1.0}
	}
	return cp.FColor{R: 0.9, G: 0.4, B: 0.9, A: 1.0}
}

func (d *physicsDrawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 0.7, G: 0.7, B: 0.7, A: 1.0}
}

func (d *physicsDrawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1.0, G: 0.1, B: 0.1, A: 1.0}
}

func (d *physicsDrawer) Data() interface{} {
	return nil
}

func fcolorToRGBA(c cp.FColor) color.RGBA {
	clamp := func(v float32) uint8 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}
