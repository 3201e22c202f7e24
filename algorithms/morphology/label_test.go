package morphology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func denseFromRows(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

func TestLabelDiagonalNeighboursAreSeparate(t *testing.T) {
	m := denseFromRows([][]float64{
		{1, 0, 0},
		{0, 1, 1},
		{0, 0, 0},
	})

	img := Label(m)
	assert.Equal(t, 2, img.Count)
	assert.Equal(t, 1, img.At(0, 0))
	assert.Equal(t, 2, img.At(1, 1))
	assert.Equal(t, 2, img.At(1, 2))
}

func TestRegionPropsBoundingBox(t *testing.T) {
	m := denseFromRows([][]float64{
		{0, 0, 0, 0, 0, 0},
		{0, 1, 1, 0, 0, 1},
		{0, 1, 0, 0, 0, 1},
		{0, 0, 0, 0, 0, 0},
	})

	regions := RegionProps(Label(m))
	require.Len(t, regions, 2)

	first := regions[0]
	assert.Equal(t, 3, first.Area)
	assert.Equal(t, [4]int{1, 1, 3, 3}, [4]int{first.MinRow, first.MinCol, first.MaxRow, first.MaxCol})
	assert.Equal(t, 2, first.Width())
	assert.Equal(t, 4, first.BBoxArea())

	second := regions[1]
	assert.Equal(t, 2, second.Area)
	assert.Equal(t, 1, second.Width())
	assert.Equal(t, 2, second.Height())
}

func TestRegionPropsFillsHoles(t *testing.T) {
	m := denseFromRows([][]float64{
		{1, 1, 1, 0},
		{1, 0, 1, 0},
		{1, 1, 1, 0},
	})

	regions := RegionProps(Label(m))
	require.Len(t, regions, 1)
	assert.Equal(t, 8, regions[0].Area)
	assert.Equal(t, 9, regions[0].BBoxArea())
	assert.True(t, regions[0].Filled[1][1])
	assert.Equal(t, [][]bool{{true, true, true}, {true, true, true}, {true, true, true}}, regions[0].Filled)
}

func TestLabelEmpty(t *testing.T) {
	m := mat.NewDense(3, 3, nil)
	img := Label(m)
	assert.Equal(t, 0, img.Count)
	assert.Empty(t, RegionProps(img))
}
