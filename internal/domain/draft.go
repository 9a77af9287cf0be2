package domain

import (
	"errors"
	"fmt"
)

// CommandKind identifies a drawing gesture step.
type CommandKind string

const (
	CmdStartPath CommandKind = "start"
	CmdAddPoint  CommandKind = "point"
	CmdClosePath CommandKind = "close"
)

// Command is one entry in a draft's gesture log.
type Command struct {
	Kind  CommandKind `json:"kind"`
	Point Point2D     `json:"point"`
}

// Selection is the hazard, probability, and significant flag new strokes get.
type Selection struct {
	Hazard      Hazard `json:"hazard"`
	Probability int    `json:"probability"`
	Significant bool   `json:"significant"`
}

// Draft is the working set of areas before submission. Strokes arrive as an
// append-only command log; only closed strokes become ForecastAreas. A Draft
// is not safe for concurrent use.
type Draft struct {
	selection Selection
	areas     []ForecastArea
	stroke    []Point2D
	drawing   bool
	log       []Command
}

// NewDraft starts an empty draft with the tornado hazard at its lowest
// probability selected.
func NewDraft() *Draft {
	return &Draft{
		selection: Selection{Hazard: Tornado, Probability: Tornado.Spec().Ladder[0]},
	}
}

// Selection returns the current drawing selection.
func (d *Draft) Selection() Selection { return d.selection }

// SelectHazard switches the hazard for new strokes. A probability that is not
// on the new hazard's ladder snaps to the ladder's first value.
func (d *Draft) SelectHazard(h Hazard) error {
	if !h.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownHazard, uint8(h))
	}
	d.selection.Hazard = h
	if !h.AllowsProbability(d.selection.Probability) {
		d.selection.Probability = h.Spec().Ladder[0]
	}
	d.dropIneligibleSignificant()
	return nil
}

// SelectProbability picks a probability from the current hazard's ladder.
func (d *Draft) SelectProbability(p int) error {
	h := d.selection.Hazard
	if !h.AllowsProbability(p) {
		return fmt.Errorf("%w: %s %d%%", ErrInvalidProbability, h, p)
	}
	d.selection.Probability = p
	d.dropIneligibleSignificant()
	return nil
}

// SetSignificant toggles the significant flag for new strokes.
func (d *Draft) SetSignificant(on bool) error {
	if on && !d.selection.Hazard.CanBeSignificant(d.selection.Probability) {
		return fmt.Errorf("%w: %s %d%%", ErrSignificantBelowThreshold, d.selection.Hazard, d.selection.Probability)
	}
	d.selection.Significant = on
	return nil
}

func (d *Draft) dropIneligibleSignificant() {
	if !d.selection.Hazard.CanBeSignificant(d.selection.Probability) {
		d.selection.Significant = false
	}
}

// StartPath begins a stroke at p, discarding any unfinished one.
func (d *Draft) StartPath(p Point2D) {
	d.log = append(d.log, Command{Kind: CmdStartPath, Point: p})
	d.stroke = []Point2D{p}
	d.drawing = true
}

// AddPoint extends the open stroke.
func (d *Draft) AddPoint(p Point2D) error {
	if !d.drawing {
		return ErrNoOpenStroke
	}
	d.log = append(d.log, Command{Kind: CmdAddPoint, Point: p})
	d.stroke = append(d.stroke, p)
	return nil
}

// ClosePath finishes the open stroke. A stroke with at least 3 distinct
// points becomes an area with the current selection and is returned with
// added set; shorter strokes are dropped.
func (d *Draft) ClosePath() (area ForecastArea, added bool, err error) {
	if !d.drawing {
		return ForecastArea{}, false, ErrNoOpenStroke
	}
	d.log = append(d.log, Command{Kind: CmdClosePath})
	stroke := d.stroke
	d.stroke = nil
	d.drawing = false

	s := d.selection
	area, err = NewForecastArea(s.Hazard, s.Probability, s.Significant, stroke)
	if errors.Is(err, ErrDegenerateRing) {
		return ForecastArea{}, false, nil
	}
	if err != nil {
		return ForecastArea{}, false, err
	}
	d.areas = append(d.areas, area)
	return area.clone(), true, nil
}

// Drawing reports whether a stroke is open.
func (d *Draft) Drawing() bool { return d.drawing }

// Delete removes the area at index i.
func (d *Draft) Delete(i int) error {
	if i < 0 || i >= len(d.areas) {
		return fmt.Errorf("delete area %d: out of range [0,%d)", i, len(d.areas))
	}
	d.areas = append(d.areas[:i], d.areas[i+1:]...)
	return nil
}

// Undo removes the most recently added area. It returns false when there is
// nothing to undo.
func (d *Draft) Undo() bool {
	if len(d.areas) == 0 {
		return false
	}
	d.areas = d.areas[:len(d.areas)-1]
	return true
}

// Clear removes every area and any open stroke.
func (d *Draft) Clear() {
	d.areas = nil
	d.stroke = nil
	d.drawing = false
}

// Len returns the number of finished areas.
func (d *Draft) Len() int { return len(d.areas) }

// Areas returns a deep copy of the finished areas.
func (d *Draft) Areas() []ForecastArea {
	out := make([]ForecastArea, len(d.areas))
	for i, a := range d.areas {
		out[i] = a.clone()
	}
	return out
}

// Log returns a copy of the gesture log.
func (d *Draft) Log() []Command {
	return append([]Command(nil), d.log...)
}

// Replay feeds a gesture log into the draft.
func (d *Draft) Replay(cmds []Command) error {
	for i, c := range cmds {
		var err error
		switch c.Kind {
		case CmdStartPath:
			d.StartPath(c.Point)
		case CmdAddPoint:
			err = d.AddPoint(c.Point)
		case CmdClosePath:
			_, _, err = d.ClosePath()
		default:
			err = fmt.Errorf("unknown command kind %q", c.Kind)
		}
		if err != nil {
			return fmt.Errorf("replay command %d: %w", i, err)
		}
	}
	return nil
}
