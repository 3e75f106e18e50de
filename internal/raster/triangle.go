package raster

import "math"

// triangle fills one triangle with per-corner labels using a z-buffer.
// Pixels are sampled at their centers.
func (r *Renderer) triangle(fb *Buffer, vi [3]int, labels [3]uint8) {
	x0, y0, z0 := r.px[vi[0]], r.py[vi[0]], r.pz[vi[0]]
	x1, y1, z1 := r.px[vi[1]], r.py[vi[1]], r.pz[vi[1]]
	x2, y2, z2 := r.px[vi[2]], r.py[vi[2]], r.pz[vi[2]]

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math.Abs(det) < 1e-12 {
		return
	}
	invDet := 1.0 / det

	minX := max(int(math.Floor(min(x0, x1, x2))), 0)
	maxX := min(int(math.Ceil(max(x0, x1, x2))), fb.Width-1)
	minY := max(int(math.Floor(min(y0, y1, y2))), 0)
	maxY := min(int(math.Ceil(max(y0, y1, y2))), fb.Height-1)

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		row := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			if z <= r.zbuf[row+sx] {
				continue
			}
			r.zbuf[row+sx] = z

			label := labels[0]
			switch {
			case w1 > w0 && w1 >= w2:
				label = labels[1]
			case w2 > w0 && w2 > w1:
				label = labels[2]
			}
			fb.Pix[row+sx] = label
		}
	}
}
