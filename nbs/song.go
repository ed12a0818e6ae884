package nbs

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
)

// Header holds the song-wide fields of a Note Block Song.
type Header struct {
	Name           string `yaml:"name"`
	Author         string `yaml:"author,omitempty"`
	OriginalAuthor string `yaml:"originalAuthor,omitempty"`
	Description    string `yaml:"description,omitempty"`

	Length                 int  `yaml:"length"` // Length of the song in ticks.
	Tempo                  int  `yaml:"tempo"`  // Ticks per second multiplied by 100.
	VanillaInstrumentCount int  `yaml:"vanillaInstrumentCount"`
	AutoSaving             bool `yaml:"autoSaving"`
	AutoSavingDuration     int  `yaml:"autoSavingDuration"` // Minutes.
	TimeSignature          int  `yaml:"timeSignature"`

	MinutesSpent      int32 `yaml:"minutesSpent"`
	LeftClicks        int32 `yaml:"leftClicks"`
	RightClicks       int32 `yaml:"rightClicks"`
	NoteBlocksAdded   int32 `yaml:"noteBlocksAdded"`
	NoteBlocksRemoved int32 `yaml:"noteBlocksRemoved"`

	SourceFile string `yaml:"sourceFile,omitempty"` // The MIDI or schematic file the song was imported from.

	Looping       bool `yaml:"looping"`
	MaxLoopCount  int  `yaml:"maxLoopCount"` // 0 loops forever.
	LoopStartTick int  `yaml:"loopStartTick"`
}

// DefaultHeader returns the header of a freshly created song.
func DefaultHeader(name string) Header {
	return Header{
		Name:                   name,
		Tempo:                  1000,
		VanillaInstrumentCount: 16,
		AutoSavingDuration:     10,
		TimeSignature:          4,
	}
}

func (h Header) validate() error {
	checks := []struct {
		field  string
		v, max int
	}{
		{"song length", h.Length, maxUint16Value},
		{"song tempo", h.Tempo, maxUint16Value},
		{"vanilla instrument count", h.VanillaInstrumentCount, maxByteValue},
		{"auto-saving duration", h.AutoSavingDuration, maxByteValue},
		{"time signature", h.TimeSignature, maxByteValue},
		{"max loop count", h.MaxLoopCount, maxByteValue},
		{"loop start tick", h.LoopStartTick, maxUint16Value},
	}
	for _, c := range checks {
		if err := checkRange(c.field, c.v, 0, c.max); err != nil {
			return err
		}
	}
	return nil
}

// A layer together with its index in the song.
type IndexedLayer struct {
	Index int
	Layer Layer
}

// Song is a complete Note Block Song. Songs are values: they are built once
// by NewSong and never modified afterwards.
type Song struct {
	version Version
	header  Header

	// Sorted by ascending index, indices are unique. nil when there are no layers.
	layers      []IndexedLayer
	instruments []Instrument
}

// NewSong returns a song, or an error if the version is unknown or any field
// is out of range.
func NewSong(version Version, header Header, layers map[int]Layer, customInstruments []Instrument) (Song, error) {
	if _, ok := VersionFromInt(version.Int()); !ok {
		return Song{}, fmt.Errorf("unsupported NBS version %d", version.Int())
	}
	if err := header.validate(); err != nil {
		return Song{}, err
	}
	if err := checkRange("custom instrument count", len(customInstruments), 0, maxByteValue); err != nil {
		return Song{}, err
	}

	var sorted []IndexedLayer
	if len(layers) > 0 {
		sorted = make([]IndexedLayer, 0, len(layers))
		for index, layer := range layers {
			if err := checkRange("layer index", index, 0, maxUint16Value); err != nil {
				return Song{}, err
			}
			sorted = append(sorted, IndexedLayer{Index: index, Layer: layer})
		}
		slices.SortFunc(sorted, func(a, b IndexedLayer) int { return cmp.Compare(a.Index, b.Index) })
	}

	var instruments []Instrument
	if len(customInstruments) > 0 {
		instruments = slices.Clone(customInstruments)
	}

	return Song{version: version, header: header, layers: sorted, instruments: instruments}, nil
}

func (s Song) Version() Version { return s.version }
func (s Song) Header() Header   { return s.header }

// WithVersion returns a copy of the song tagged with another format version.
// No field is changed; use the codec to see what a version would drop.
func (s Song) WithVersion(v Version) Song {
	s.version = v
	return s
}

// LayerCount is always the number of layers held by the song.
func (s Song) LayerCount() int { return len(s.layers) }

// Layers returns the song's layers in ascending index order.
func (s Song) Layers() []IndexedLayer {
	return slices.Clone(s.layers)
}

// Layer returns the layer stored at index, if any.
func (s Song) Layer(index int) (Layer, bool) {
	i, found := slices.BinarySearchFunc(s.layers, index, func(il IndexedLayer, idx int) int {
		return cmp.Compare(il.Index, idx)
	})
	if !found {
		return Layer{}, false
	}
	return s.layers[i].Layer, true
}

// CustomInstrumentCount is always the number of custom instruments held by the song.
func (s Song) CustomInstrumentCount() int { return len(s.instruments) }

func (s Song) CustomInstruments() []Instrument {
	return slices.Clone(s.instruments)
}

// InstrumentFor resolves the custom instrument played by n. It returns false
// when n plays a vanilla instrument or references a missing custom instrument.
func (s Song) InstrumentFor(n Note) (Instrument, bool) {
	offset := n.Instrument() - s.header.VanillaInstrumentCount
	if offset < 0 || offset >= len(s.instruments) {
		return Instrument{}, false
	}
	return s.instruments[offset], true
}

// NoteCount returns the number of notes across all layers.
func (s Song) NoteCount() int {
	total := 0
	for _, il := range s.layers {
		total += il.Layer.NoteCount()
	}
	return total
}

// LastTick returns the highest tick holding a note on any layer, or false if
// the song has no notes.
func (s Song) LastTick() (int, bool) {
	last, found := 0, false
	for _, il := range s.layers {
		if t, ok := il.Layer.LastTick(); ok && (!found || t > last) {
			last, found = t, true
		}
	}
	return last, found
}

// Equal reports whether both songs hold exactly the same data.
func (s Song) Equal(other Song) bool {
	return reflect.DeepEqual(s, other)
}
