package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var ErrUnknownClass = errors.New("class not in class list")

// Label is one line of a YOLO label file: a class index followed by
// normalised coordinates. Boxes carry "xc yc w h"; polygons carry
// "x1 y1 ... xn yn".
type Label struct {
	Class  int
	Values []float64
}

func (l Label) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(l.Class))
	for _, v := range l.Values {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	return sb.String()
}

// ClassNames returns every class used in either file, sorted.
func ClassNames(boxes BoxesFile, polygons PolygonsFile) []string {
	seen := make(map[string]bool)
	for _, frame := range boxes.Boxes {
		for _, b := range frame {
			seen[b.Class] = true
		}
	}
	for _, frame := range polygons.Polygons {
		for _, p := range frame {
			seen[p.Class] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// YOLOLabels builds the label lines of every frame from 0 to the highest
// annotated frame. Frames without shapes get an empty slice. Class indices
// are positions in classes.
func YOLOLabels(boxes BoxesFile, polygons PolygonsFile, classes []string) ([][]Label, error) {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	classOf := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%q: %w", name, ErrUnknownClass)
		}
		return i, nil
	}

	last := -1
	for _, frames := range [][]int{sortedFrames(boxes.Boxes), sortedFrames(polygons.Polygons)} {
		if n := len(frames); n > 0 {
			last = max(last, frames[n-1])
		}
	}

	out := make([][]Label, last+1)
	for f := range out {
		key := strconv.Itoa(f)
		labels := []Label{}
		for _, b := range boxes.Boxes[key] {
			c, err := classOf(b.Class)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", f, err)
			}
			labels = append(labels, Label{Class: c, Values: []float64{b.X, b.Y, b.Width, b.Height}})
		}
		for _, p := range polygons.Polygons[key] {
			c, err := classOf(p.Class)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", f, err)
			}
			values := make([]float64, 0, 2*len(p.Points))
			for _, pt := range p.Points {
				values = append(values, pt.X, pt.Y)
			}
			labels = append(labels, Label{Class: c, Values: values})
		}
		out[f] = labels
	}
	return out, nil
}

// WriteLabels writes one label per line.
func WriteLabels(w io.Writer, labels []Label) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		if _, err := bw.WriteString(l.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
