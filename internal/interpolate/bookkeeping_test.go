package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

func numbers(shapes []annotation.Shape) (nums, ids []any) {
	for _, s := range shapes {
		if s.InterpolationNumber == nil {
			nums = append(nums, nil)
			ids = append(ids, nil)
			continue
		}
		nums = append(nums, *s.InterpolationNumber)
		ids = append(ids, *s.InterpolationID)
	}
	return nums, ids
}

func TestRecomputeGroupsByClass(t *testing.T) {
	shapes := []annotation.Shape{
		flaggedBox("class2", geom.Box{}),
		annotation.NewBox("class1", geom.Box{}),
		flaggedBox("class1", geom.Box{}),
		flaggedBox("class2", geom.Box{}),
		flaggedBox("class1", geom.Box{}),
	}
	shapes[1].InterpolationNumber = annotation.IntPtr(3)

	Recompute(annotation.KindBox, shapes)
	nums, ids := numbers(shapes)

	assert.Equal(t, []any{1, nil, 1, 2, 2}, nums)
	assert.Equal(t, []any{3, nil, 1, 4, 2}, ids)
}

func TestRecomputeKeepsPreviousBoxNumbering(t *testing.T) {
	shapes := []annotation.Shape{
		flaggedBox("class1", geom.Box{}),
		flaggedBox("class1", geom.Box{}),
		flaggedBox("class1", geom.Box{}),
	}
	shapes[0].InterpolationNumber = annotation.IntPtr(2)
	shapes[1].InterpolationNumber = annotation.IntPtr(1)

	Recompute(annotation.KindBox, shapes)
	nums, _ := numbers(shapes)
	assert.Equal(t, []any{2, 1, 3}, nums)
}

func TestSetFlagAndRemoveRecompute(t *testing.T) {
	l := annotation.NewLayer(annotation.KindBox)
	for i := 0; i < 3; i++ {
		_, _ = l.Add(0, annotation.NewBox("class1", geom.Box{X: float64(i)}))
	}
	require.NoError(t, SetFlag(l, 0, 0, true))
	require.NoError(t, SetFlag(l, 0, 2, true))
	nums, _ := numbers(l.Shapes(0))
	assert.Equal(t, []any{1, nil, 2}, nums)

	_, err := RemoveShape(l, 0, 0)
	require.NoError(t, err)
	nums, ids := numbers(l.Shapes(0))
	assert.Equal(t, []any{nil, 1}, nums)
	assert.Equal(t, []any{nil, 1}, ids)

	require.NoError(t, SetClass(l, 0, 0, "class3"))
	s, _ := l.Shape(0, 0)
	assert.Equal(t, "class3", s.Class)
	assert.Error(t, SetFlag(l, 0, 5, true))
}
