// Package frames turns the home page's loading animations into the
// numeric frame table the animation key is drawn from.
package frames

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kyupark/xctid/internal/document"
	"github.com/kyupark/xctid/internal/protocol"
	"github.com/kyupark/xctid/internal/txerr"
)

var reNonDigits = regexp.MustCompile(`[^\d]+`)

// Table holds one row of integers per cubic segment of a frame path.
// Rows may differ in length.
type Table [][]int

// Row returns row i if it exists.
func (t Table) Row(i int) ([]int, bool) {
	if i < 0 || i >= len(t) {
		return nil, false
	}
	return t[i], true
}

// Select picks the loading animation frame chosen by the key.
func Select(doc document.Document, keyBytes []byte) (document.Node, error) {
	if len(keyBytes) <= protocol.FrameKeyByte {
		return nil, fmt.Errorf("%w: %d key bytes, frame selection needs %d",
			txerr.ErrInvalidKey, len(keyBytes), protocol.FrameKeyByte+1)
	}
	all := doc.FindAll(protocol.FrameSelector)
	if len(all) == 0 {
		return nil, txerr.ErrNoFrames
	}
	i := int(keyBytes[protocol.FrameKeyByte]) % protocol.FrameCount
	if i >= len(all) {
		return nil, fmt.Errorf("%w: frame %d selected, %d present", txerr.ErrNoFrames, i, len(all))
	}
	return all[i], nil
}

// PathData reads the path geometry of a frame: the d attribute of the
// second child of its first child.
func PathData(frame document.Node) (string, error) {
	top := frame.Children()
	if len(top) == 0 {
		return "", fmt.Errorf("%w: frame has no children", txerr.ErrMissingPathData)
	}
	inner := top[0].Children()
	if len(inner) < 2 {
		return "", fmt.Errorf("%w: frame group has %d children", txerr.ErrMissingPathData, len(inner))
	}
	d, ok := inner[1].Attr("d")
	if !ok {
		return "", fmt.Errorf("%w: no d attribute", txerr.ErrMissingPathData)
	}
	return d, nil
}

// Parse converts path data into a Table. The leading move command is
// skipped, the rest split on C, and every digit run in a segment becomes
// one value. A value too large for an int fails ErrInvalidFrameRow.
func Parse(d string) (Table, error) {
	if len(d) > protocol.PathPrefixLen {
		d = d[protocol.PathPrefixLen:]
	} else {
		d = ""
	}

	segments := strings.Split(d, "C")
	table := make(Table, 0, len(segments))
	for i, seg := range segments {
		fields := strings.Fields(reNonDigits.ReplaceAllString(seg, " "))
		row := make([]int, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d value %q: %w", txerr.ErrInvalidFrameRow, i, f, err)
			}
			row = append(row, v)
		}
		table = append(table, row)
	}
	return table, nil
}

// Load selects the frame for keyBytes and parses its table.
func Load(doc document.Document, keyBytes []byte) (Table, error) {
	frame, err := Select(doc, keyBytes)
	if err != nil {
		return nil, err
	}
	d, err := PathData(frame)
	if err != nil {
		return nil, err
	}
	return Parse(d)
}
