package nbs

// A custom instrument, referencing a sound file.
type Instrument struct {
	name          string
	file          string
	key           int
	pressPianoKey bool
}

// NewInstrument returns an instrument, or a *ValidationError if key is not a
// valid piano key.
func NewInstrument(name, file string, key int, pressPianoKey bool) (Instrument, error) {
	if err := checkRange("instrument key", key, 0, MaxKey); err != nil {
		return Instrument{}, err
	}
	return Instrument{name: name, file: file, key: key, pressPianoKey: pressPianoKey}, nil
}

func (i Instrument) Name() string { return i.name }

// File is the sound file name of the instrument.
func (i Instrument) File() string { return i.file }

// Key is the key the sound file was recorded at.
func (i Instrument) Key() int { return i.key }

func (i Instrument) PressPianoKey() bool { return i.pressPianoKey }
