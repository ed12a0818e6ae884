package nbs

import (
	"cmp"
	"slices"
)

// A note together with the tick it is placed on.
type TickNote struct {
	Tick int
	Note Note
}

// A layer (row) of the song, holding at most one note per tick.
type Layer struct {
	name    string
	locked  bool
	volume  int
	panning int

	// Sorted by ascending tick, ticks are unique. nil when the layer is empty.
	notes []TickNote
}

// NewLayer returns a layer holding notes keyed by tick, or a *ValidationError
// if volume, panning or any tick is out of range.
func NewLayer(name string, locked bool, volume, panning int, notes map[int]Note) (Layer, error) {
	if err := checkRange("layer volume", volume, 0, MaxVolume); err != nil {
		return Layer{}, err
	}
	if err := checkRange("layer panning", panning, 0, MaxPanning); err != nil {
		return Layer{}, err
	}

	var sorted []TickNote
	if len(notes) > 0 {
		sorted = make([]TickNote, 0, len(notes))
		for tick, note := range notes {
			if err := checkRange("note tick", tick, 0, maxUint16Value); err != nil {
				return Layer{}, err
			}
			sorted = append(sorted, TickNote{Tick: tick, Note: note})
		}
		slices.SortFunc(sorted, func(a, b TickNote) int { return cmp.Compare(a.Tick, b.Tick) })
	}

	return Layer{name: name, locked: locked, volume: volume, panning: panning, notes: sorted}, nil
}

// DefaultLayer returns an unlocked layer at full volume and centered panning.
func DefaultLayer(name string, notes map[int]Note) (Layer, error) {
	return NewLayer(name, false, DefaultVolume, CenterPanning, notes)
}

func (l Layer) Name() string   { return l.name }
func (l Layer) Locked() bool   { return l.locked }
func (l Layer) Volume() int    { return l.volume }
func (l Layer) Panning() int   { return l.panning }
func (l Layer) NoteCount() int { return len(l.notes) }

// Notes returns the layer's notes in ascending tick order.
func (l Layer) Notes() []TickNote {
	return slices.Clone(l.notes)
}

// NoteAt returns the note placed at tick, if any.
func (l Layer) NoteAt(tick int) (Note, bool) {
	i, found := slices.BinarySearchFunc(l.notes, tick, func(tn TickNote, t int) int {
		return cmp.Compare(tn.Tick, t)
	})
	if !found {
		return Note{}, false
	}
	return l.notes[i].Note, true
}

// LastTick returns the highest tick holding a note, or false if the layer is
// empty.
func (l Layer) LastTick() (int, bool) {
	if len(l.notes) == 0 {
		return 0, false
	}
	return l.notes[len(l.notes)-1].Tick, true
}
