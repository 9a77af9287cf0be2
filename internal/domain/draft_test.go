package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawStroke(t *testing.T, d *Draft, pts ...Point2D) (ForecastArea, bool) {
	t.Helper()
	require.NotEmpty(t, pts)
	d.StartPath(pts[0])
	for _, p := range pts[1:] {
		require.NoError(t, d.AddPoint(p))
	}
	a, added, err := d.ClosePath()
	require.NoError(t, err)
	return a, added
}

func TestDraft_Selection(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, Selection{Hazard: Tornado, Probability: 2}, d.Selection())

	t.Run("significant requires threshold", func(t *testing.T) {
		err := d.SetSignificant(true)
		assert.ErrorIs(t, err, ErrSignificantBelowThreshold)

		require.NoError(t, d.SelectProbability(10))
		require.NoError(t, d.SetSignificant(true))
		assert.True(t, d.Selection().Significant)
	})

	t.Run("dropping below threshold clears significant", func(t *testing.T) {
		require.NoError(t, d.SelectProbability(5))
		assert.False(t, d.Selection().Significant)
	})

	t.Run("hazard change snaps probability to new ladder", func(t *testing.T) {
		require.NoError(t, d.SelectProbability(2))
		require.NoError(t, d.SelectHazard(Hail))
		assert.Equal(t, Selection{Hazard: Hail, Probability: 5}, d.Selection())

		require.NoError(t, d.SelectProbability(30))
		require.NoError(t, d.SelectHazard(Wind))
		assert.Equal(t, 30, d.Selection().Probability, "30 is on the wind ladder")
	})

	t.Run("invalid choices are rejected", func(t *testing.T) {
		assert.ErrorIs(t, d.SelectProbability(2), ErrInvalidProbability)
		assert.ErrorIs(t, d.SelectHazard(Hazard(0)), ErrUnknownHazard)
	})
}

func TestDraft_Strokes(t *testing.T) {
	t.Run("closed stroke becomes an area", func(t *testing.T) {
		d := NewDraft()
		require.NoError(t, d.SelectProbability(15))
		require.NoError(t, d.SetSignificant(true))

		a, added := drawStroke(t, d, Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0}, Point2D{X: 5, Y: 8})
		require.True(t, added)
		assert.Equal(t, Tornado, a.Hazard)
		assert.Equal(t, 15, a.Probability)
		assert.True(t, a.Significant)
		assert.Len(t, a.Path, 4)
		assert.Equal(t, 1, d.Len())
		assert.False(t, d.Drawing())
	})

	t.Run("short stroke is dropped", func(t *testing.T) {
		d := NewDraft()
		_, added := drawStroke(t, d, Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0}, Point2D{X: 10, Y: 0})
		assert.False(t, added)
		assert.Zero(t, d.Len())
	})

	t.Run("points need an open stroke", func(t *testing.T) {
		d := NewDraft()
		assert.ErrorIs(t, d.AddPoint(Point2D{}), ErrNoOpenStroke)
		_, _, err := d.ClosePath()
		assert.ErrorIs(t, err, ErrNoOpenStroke)
	})

	t.Run("log records every gesture", func(t *testing.T) {
		d := NewDraft()
		drawStroke(t, d, Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0}, Point2D{X: 5, Y: 8})
		kinds := make([]CommandKind, 0)
		for _, c := range d.Log() {
			kinds = append(kinds, c.Kind)
		}
		assert.Equal(t, []CommandKind{CmdStartPath, CmdAddPoint, CmdAddPoint, CmdClosePath}, kinds)
	})
}

func TestDraft_Edit(t *testing.T) {
	d := NewDraft()
	drawStroke(t, d, Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0}, Point2D{X: 5, Y: 8})
	require.NoError(t, d.SelectHazard(Wind))
	drawStroke(t, d, Point2D{X: 20, Y: 0}, Point2D{X: 30, Y: 0}, Point2D{X: 25, Y: 8})
	require.NoError(t, d.SelectHazard(Hail))
	drawStroke(t, d, Point2D{X: 40, Y: 0}, Point2D{X: 50, Y: 0}, Point2D{X: 45, Y: 8})
	require.Equal(t, 3, d.Len())

	require.NoError(t, d.Delete(1))
	areas := d.Areas()
	require.Len(t, areas, 2)
	assert.Equal(t, Tornado, areas[0].Hazard)
	assert.Equal(t, Hail, areas[1].Hazard)
	assert.Error(t, d.Delete(5))

	assert.True(t, d.Undo())
	assert.Equal(t, Tornado, d.Areas()[0].Hazard)
	assert.Equal(t, 1, d.Len())

	d.Clear()
	assert.Zero(t, d.Len())
	assert.False(t, d.Undo())
}

func TestDraft_AreasAreCopies(t *testing.T) {
	d := NewDraft()
	drawStroke(t, d, Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0}, Point2D{X: 5, Y: 8})

	areas := d.Areas()
	areas[0].Path[0] = Point2D{X: 99, Y: 99}
	assert.Equal(t, Point2D{X: 0, Y: 0}, d.Areas()[0].Path[0])
}

func TestDraft_Replay(t *testing.T) {
	src := NewDraft()
	require.NoError(t, src.SelectHazard(Hail))
	drawStroke(t, src, Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0}, Point2D{X: 5, Y: 8})

	dst := NewDraft()
	require.NoError(t, dst.SelectHazard(Hail))
	require.NoError(t, dst.Replay(src.Log()))
	assert.Equal(t, src.Areas(), dst.Areas())

	err := dst.Replay([]Command{{Kind: "wiggle"}})
	assert.Error(t, err)
}
