package pose

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrLengthMismatch is returned when a pose file does not hold exactly one
// value per parameter.
var ErrLengthMismatch = errors.New("pose length mismatch")

// ErrNonFinite is returned when a pose file holds NaN or an infinity.
var ErrNonFinite = errors.New("non-finite pose value")

// WriteTo writes one value per line in declaration order.
func (v *Vector) WriteTo(w io.Writer) (int64, error) {
	var n int64
	bw := bufio.NewWriter(w)
	for _, value := range v.values {
		m, err := bw.WriteString(strconv.FormatFloat(value, 'g', -1, 64) + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ReadFrom reads one value per line. The vector is only updated when the
// whole input parses, every value is finite and the line count matches the
// parameter count. Values outside a parameter's bounds are clamped.
func (v *Vector) ReadFrom(r io.Reader) (int64, error) {
	var (
		n      int64
		values []float64
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		n += int64(len(line)) + 1
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", len(values)+1, err)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return n, fmt.Errorf("line %d: %w: %s", len(values)+1, ErrNonFinite, line)
		}
		values = append(values, value)
	}
	if err := sc.Err(); err != nil {
		return n, err
	}
	if len(values) != len(v.values) {
		return n, v.SetValues(values)
	}
	for i, value := range values {
		values[i] = mgl64.Clamp(value, v.defs[i].Min, v.defs[i].Max)
	}
	return n, v.SetValues(values)
}

// Save writes the vector to path.
func (v *Vector) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create pose file: %w", err)
	}
	if _, err := v.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write pose file: %w", err)
	}
	return f.Close()
}

// Load replaces the vector's values with those stored at path.
func (v *Vector) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open pose file: %w", err)
	}
	defer f.Close()

	if _, err := v.ReadFrom(f); err != nil {
		return fmt.Errorf("failed to load pose %s: %w", path, err)
	}
	return nil
}
