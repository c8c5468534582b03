// Package animkey synthesizes the animation key: the CSS state of the
// site's loading animation at a key-derived instant, rendered as hex.
package animkey

import (
	"fmt"
	"math"
	"strings"

	"github.com/kyupark/xctid/internal/bezier"
	"github.com/kyupark/xctid/internal/codec"
	"github.com/kyupark/xctid/internal/frames"
	"github.com/kyupark/xctid/internal/interp"
	"github.com/kyupark/xctid/internal/protocol"
	"github.com/kyupark/xctid/internal/txerr"
)

// FrameTime multiplies the low nibbles of the indexed key bytes and
// rounds the product to the nearest multiple of ten.
func FrameTime(keyBytes []byte, indices []int) (float64, error) {
	product := 1.0
	for _, idx := range indices {
		if idx < 0 || idx >= len(keyBytes) {
			return 0, fmt.Errorf("%w: key byte index %d out of %d", txerr.ErrInvalidKey, idx, len(keyBytes))
		}
		product *= float64(keyBytes[idx] % 16)
	}
	return codec.RoundHalfUp(product/protocol.FrameTimeStep) * protocol.FrameTimeStep, nil
}

// ScaleByte maps a byte value from [0,255] onto [min,max]. The result is
// truncated when floor is set and rounded to two decimals otherwise.
func ScaleByte(value, min, max float64, floor bool) float64 {
	result := value*(max-min)/255 + min
	if floor {
		return math.Trunc(result)
	}
	return codec.Round2(result)
}

// curveMin is the lower bound a curve control is scaled from: even
// positions are signed, odd ones are not.
func curveMin(i int) float64 {
	if i%2 == 0 {
		return -1
	}
	return 0
}

// Synthesize derives the animation key from the session's key bytes,
// indices and frame table.
func Synthesize(keyBytes []byte, rowIndex int, keyByteIndices []int, table frames.Table) (string, error) {
	if rowIndex < 0 || rowIndex >= len(keyBytes) {
		return "", fmt.Errorf("%w: row index %d out of %d key bytes", txerr.ErrInvalidFrameRow, rowIndex, len(keyBytes))
	}
	rowValue := int(keyBytes[rowIndex] % 16)
	row, ok := table.Row(rowValue)
	if !ok {
		return "", fmt.Errorf("%w: row %d of %d", txerr.ErrInvalidFrameRow, rowValue, len(table))
	}

	frameTime, err := FrameTime(keyBytes, keyByteIndices)
	if err != nil {
		return "", err
	}
	return Animate(row, frameTime/protocol.TotalTime)
}

// Animate renders the state of one frame row at the given progress.
func Animate(row []int, progress float64) (string, error) {
	if len(row) < protocol.MinFrameRow {
		return "", fmt.Errorf("%w: %d values, need %d", txerr.ErrInvalidFrameRow, len(row), protocol.MinFrameRow)
	}

	fromColor := []float64{float64(row[0]), float64(row[1]), float64(row[2]), 1}
	toColor := []float64{float64(row[3]), float64(row[4]), float64(row[5]), 1}
	fromRotation := []float64{0}
	toRotation := []float64{ScaleByte(float64(row[6]), 60, 360, true)}

	controls := make([]float64, 0, len(row)-7)
	for i, v := range row[7:] {
		controls = append(controls, ScaleByte(float64(v), curveMin(i), 1, false))
	}
	curve, err := bezier.New(controls)
	if err != nil {
		return "", err
	}
	eased := curve.Value(progress)

	color, err := interp.Interpolate(fromColor, toColor, eased)
	if err != nil {
		return "", err
	}
	for i := range color {
		color[i] = math.Max(color[i], 0)
	}

	rotation, err := interp.Interpolate(fromRotation, toRotation, eased)
	if err != nil {
		return "", err
	}
	matrix := interp.RotationMatrix(rotation[0])

	var b strings.Builder
	for _, c := range color[:3] {
		b.WriteString(codec.IntHex(int64(math.Round(c))))
	}
	for _, v := range matrix {
		b.WriteString(matrixHex(v))
	}
	b.WriteString("00")

	return strings.NewReplacer(".", "", "-", "").Replace(b.String()), nil
}

func matrixHex(v float64) string {
	h := codec.FloatHex(math.Abs(codec.Round2(v)))
	switch {
	case h == "":
		return "0"
	case strings.HasPrefix(h, "."):
		return strings.ToLower("0" + h)
	}
	return h
}
