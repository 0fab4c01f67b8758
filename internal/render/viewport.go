package render

// Transform maps script coordinates onto a viewport.
type Transform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Apply converts a script-space point into viewport pixels.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.OffsetX, y*t.Scale + t.OffsetY
}

// Viewport fits a scriptW x scriptH canvas into viewW x viewH with a uniform
// scale, centring it along the axis that has spare room.
func Viewport(scriptW, scriptH, viewW, viewH int) Transform {
	if scriptW <= 0 || scriptH <= 0 || viewW <= 0 || viewH <= 0 {
		return Transform{Scale: 1}
	}

	scriptAspect := float64(scriptW) / float64(scriptH)
	viewAspect := float64(viewW) / float64(viewH)

	if viewAspect > scriptAspect {
		// wider viewport: match height, pillarbox
		scale := float64(viewH) / float64(scriptH)
		return Transform{
			Scale:   scale,
			OffsetX: (float64(viewW) - float64(scriptW)*scale) / 2,
		}
	}

	scale := float64(viewW) / float64(scriptW)
	return Transform{
		Scale:   scale,
		OffsetY: (float64(viewH) - float64(scriptH)*scale) / 2,
	}
}
