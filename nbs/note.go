package nbs

import "fmt"

const (
	MaxKey     = 87 // Highest key on an 88 key piano, keys start at 0 (A0).
	MaxVolume  = 100
	MaxPanning = 200
	MinPitch   = -1200 // Pitch is in cents.
	MaxPitch   = 1200

	CenterPanning  = 100
	DefaultKey     = 45 // F#4
	DefaultVolume  = 100
	DefaultPitch   = 0
	maxByteValue   = 255
	maxUint16Value = 65535
)

// A single note block placed on a layer.
//
// Instrument is an index into the vanilla instruments when it is below the
// song's vanilla instrument count, otherwise it is an offset into the song's
// custom instruments.
type Note struct {
	instrument int
	key        int
	volume     int
	panning    int
	pitch      int
}

// NewNote returns a note, or a *ValidationError if any field is out of range.
func NewNote(instrument, key, volume, panning, pitch int) (Note, error) {
	if err := checkRange("note instrument", instrument, 0, maxByteValue); err != nil {
		return Note{}, err
	}
	if err := checkRange("note key", key, 0, MaxKey); err != nil {
		return Note{}, err
	}
	if err := checkRange("note volume", volume, 0, MaxVolume); err != nil {
		return Note{}, err
	}
	if err := checkRange("note panning", panning, 0, MaxPanning); err != nil {
		return Note{}, err
	}
	if err := checkRange("note pitch", pitch, MinPitch, MaxPitch); err != nil {
		return Note{}, err
	}
	return Note{instrument: instrument, key: key, volume: volume, panning: panning, pitch: pitch}, nil
}

// DefaultNote returns a note for the instrument with the default key, full
// volume, centered panning and no pitch offset.
func DefaultNote(instrument int) (Note, error) {
	return NewNote(instrument, DefaultKey, DefaultVolume, CenterPanning, DefaultPitch)
}

func (n Note) Instrument() int { return n.instrument }
func (n Note) Key() int        { return n.key }
func (n Note) Volume() int     { return n.volume }
func (n Note) Panning() int    { return n.panning }
func (n Note) Pitch() int      { return n.pitch }

// hasDetails reports whether the note uses any V4 note attribute.
func (n Note) hasDetails() bool {
	return n.volume != DefaultVolume || n.panning != CenterPanning || n.pitch != DefaultPitch
}

func (n Note) String() string {
	s := fmt.Sprintf("i%d k%d", n.instrument, n.key)
	if n.hasDetails() {
		s += fmt.Sprintf(" v%d p%d %+dc", n.volume, n.panning, n.pitch)
	}
	return s
}
