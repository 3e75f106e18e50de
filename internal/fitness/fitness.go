// Package fitness scores a rendered label image against a reference silhouette.
package fitness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/raster"
	"github.com/ayusman/mudra/internal/skin"
)

// ErrSizeMismatch is returned when the render and reference differ in size.
var ErrSizeMismatch = errors.New("buffer size mismatch")

// Mode selects how pixels are compared.
type Mode int

const (
	// Silhouette compares foreground against background only.
	Silhouette Mode = iota
	// Labels compares raw pixel values, for label encoded references.
	Labels
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Silhouette:
		return "silhouette"
	case Labels:
		return "labels"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "silhouette":
		return Silhouette, nil
	case "labels":
		return Labels, nil
	}
	return 0, fmt.Errorf("unknown evaluator mode %q", s)
}

// BoneError is the error over the pixels a bone covers in the render.
type BoneError struct {
	Covered int     `json:"covered"`
	Wrong   int     `json:"wrong"`
	Error   float64 `json:"error"`
}

// Result holds global and per-bone error for one render.
type Result struct {
	Differences int `json:"differences"`
	Total       int `json:"total"`
	// Global is Differences/Total.
	Global float64 `json:"global"`
	// Bones only holds bones that cover at least one pixel.
	Bones map[int]BoneError `json:"bones"`
}

// Evaluator compares renders against an immutable reference.
type Evaluator struct {
	reference *raster.Buffer
	mode      Mode
}

// NewEvaluator creates an evaluator for reference.
func NewEvaluator(reference *raster.Buffer, mode Mode) *Evaluator {
	return &Evaluator{reference: reference, mode: mode}
}

// Reference returns the reference buffer.
func (e *Evaluator) Reference() *raster.Buffer { return e.reference }

// Mode returns the comparison mode.
func (e *Evaluator) Mode() Mode { return e.mode }

// Evaluate scores rendered against the reference.
//
// A pixel disagrees when exactly one side is foreground (or, in Labels mode,
// when the raw values differ). A rendered pixel of bone b is wrong for b when
// it disagrees; reference foreground the render misses counts only globally.
func (e *Evaluator) Evaluate(rendered *raster.Buffer) (*Result, error) {
	ref := e.reference
	if !rendered.SameSize(ref) {
		return nil, fmt.Errorf("%w: render %dx%d, reference %dx%d",
			ErrSizeMismatch, rendered.Width, rendered.Height, ref.Width, ref.Height)
	}

	res := &Result{
		Total: len(ref.Pix),
		Bones: make(map[int]BoneError),
	}
	for i, v := range rendered.Pix {
		r := ref.Pix[i]
		var differs bool
		if e.mode == Labels {
			differs = v != r
		} else {
			differs = (v != 0) != (r != 0)
		}
		if differs {
			res.Differences++
		}

		bone, ok := skin.BoneOf(v)
		if !ok {
			continue
		}
		be := res.Bones[bone]
		be.Covered++
		if differs {
			be.Wrong++
		}
		res.Bones[bone] = be
	}

	for b, be := range res.Bones {
		be.Error = float64(be.Wrong) / float64(be.Covered)
		res.Bones[b] = be
	}
	if res.Total > 0 {
		res.Global = float64(res.Differences) / float64(res.Total)
	}
	return res, nil
}

// BoneError returns the error for bone, or 0 if the bone covers no pixels.
func (r *Result) BoneError(bone int) float64 {
	return r.Bones[bone].Error
}

// Better reports whether r strictly improves on best.
func (r *Result) Better(best float64) bool {
	return r.Global < best
}
