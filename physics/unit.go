package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/gridpath/common"
)

// BodyUnit is a kinematic body the movement coordinator can place.
type BodyUnit struct {
	Body  *cp.Body
	Shape *cp.Shape
}

// AddUnit puts a square kinematic body of the given size at pos.
func (w *World) AddUnit(pos common.Vec3, size float64) *BodyUnit {
	body := cp.NewKinematicBody()
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	shape := cp.NewBox(body, size, size, 0)
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryUnit, cp.ALL_CATEGORIES))
	shape.SetSensor(true)

	w.space.AddBody(body)
	w.space.AddShape(shape)
	return &BodyUnit{Body: body, Shape: shape}
}

func (u *BodyUnit) SetPosition(p common.Vec3) {
	if u == nil || u.Body == nil {
		return
	}
	u.Body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
}

func (u *BodyUnit) Position() common.Vec3 {
	if u == nil || u.Body == nil {
		return common.Vec3{}
	}
	p := u.Body.Position()
	return common.Vec3{X: p.X, Y: p.Y}
}
