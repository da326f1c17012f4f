package array

import (
	"strconv"
	"strings"
)

// String renders the array as nested brackets, one level per dimension:
// "[[1, 2, 3], [4, 5, 6]]". A scalar prints as its bare value and a
// destroyed array as "<nil>".
func (arr *NDArray) String() string {
	if !arr.live() {
		return "<nil>"
	}
	if len(arr.shape) == 0 {
		return formatValue(arr.data[0])
	}
	var b strings.Builder
	arr.writeDim(&b, 0, 0)
	return b.String()
}

func (arr *NDArray) writeDim(b *strings.Builder, dim, off int) {
	b.WriteByte('[')
	last := dim == len(arr.shape)-1
	for i := 0; i < arr.shape[dim]; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		pos := off + i*arr.strides[dim]
		if last {
			b.WriteString(formatValue(arr.data[pos]))
		} else {
			arr.writeDim(b, dim+1, pos)
		}
	}
	b.WriteByte(']')
}

func formatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
