package codec

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"maps"
	"slices"

	"github.com/QEStudios/opennbs/nbs"
)

// Number of vanilla instruments assumed for files that predate the field.
const classicVanillaInstrumentCount = 16

// Warning is a non-fatal problem found while decoding.
type Warning struct {
	Offset  int64 // Byte offset the decoder had reached.
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("byte %d: %s", w.Offset, w.Message)
}

// Decoder reads a single song from a stream.
type Decoder struct {
	r      *reader
	logger *log.Logger

	// Collect any warnings whilst decoding.
	warnings []Warning

	// Decoding can only be done once per Decoder.
	used bool
}

// NewDecoder creates a decoder reading from r. A nil logger logs to
// log.Default().
func NewDecoder(r io.Reader, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Decoder{r: newReader(r), logger: logger}
}

// Warnings returns the warnings produced by Decode.
func (d *Decoder) Warnings() []Warning {
	return slices.Clone(d.warnings)
}

// addWarning adds to the list of warnings encountered when decoding.
func (d *Decoder) addWarning(format string, args ...any) {
	d.warnings = append(d.warnings, Warning{
		Offset:  d.r.offset,
		Message: fmt.Sprintf(format, args...),
	})
}

// fatalf returns an error prefixed with the current byte offset.
func (d *Decoder) fatalf(format string, args ...any) error {
	return fmt.Errorf("byte %d: %w", d.r.offset, fmt.Errorf(format, args...))
}

// Decode reads a whole song. It stops at the first error; no partial song is
// ever returned.
func (d *Decoder) Decode() (nbs.Song, error) {
	if d.used {
		return nbs.Song{}, fmt.Errorf("decoder already used")
	}
	d.used = true

	song, err := d.decode()
	if err != nil {
		return nbs.Song{}, err
	}

	if len(d.warnings) > 0 {
		d.logger.Println("Warnings produced while decoding song:")
		for _, warning := range d.warnings {
			d.logger.Println(warning)
		}
	}
	return song, nil
}

func (d *Decoder) decode() (nbs.Song, error) {
	r := d.r

	// Classic files start with the song length. Every later revision starts
	// with a zero, which a Classic song of non-zero length can never have.
	first, err := r.readUint16()
	if err != nil {
		return nbs.Song{}, err
	}
	version := nbs.Classic
	if first == 0 {
		v, err := r.readByte()
		if err != nil {
			return nbs.Song{}, err
		}
		var ok bool
		if version, ok = nbs.VersionFromInt(v); !ok {
			return nbs.Song{}, &FormatError{Version: v}
		}
	}

	h := nbs.Header{VanillaInstrumentCount: classicVanillaInstrumentCount}
	if version >= nbs.VersionVanillaInstrumentCount {
		if h.VanillaInstrumentCount, err = r.readByte(); err != nil {
			return nbs.Song{}, err
		}
	}
	h.Length = first
	if version >= nbs.VersionExplicitLength {
		if h.Length, err = r.readUint16(); err != nil {
			return nbs.Song{}, err
		}
	}
	layerCount, err := r.readUint16()
	if err != nil {
		return nbs.Song{}, err
	}

	if err := d.decodeHeaderFields(&h, version); err != nil {
		return nbs.Song{}, err
	}

	layerNotes, lastTick, err := d.decodeNotes(version)
	if err != nil {
		return nbs.Song{}, err
	}

	// V1 and V2 files have no length field, the last populated tick stands in
	// for it.
	if version > nbs.Classic && version < nbs.VersionExplicitLength {
		h.Length = max(lastTick, 0)
	}

	layers, err := d.decodeLayers(version, layerCount, layerNotes)
	if err != nil {
		return nbs.Song{}, err
	}

	instruments, err := d.decodeInstruments()
	if err != nil {
		return nbs.Song{}, err
	}

	song, err := nbs.NewSong(version, h, layers, instruments)
	if err != nil {
		return nbs.Song{}, d.fatalf("invalid song: %w", err)
	}
	return song, nil
}

// decodeHeaderFields reads the fields between the layer count and the note
// section.
func (d *Decoder) decodeHeaderFields(h *nbs.Header, version nbs.Version) error {
	r := d.r
	var err error
	for _, s := range []*string{&h.Name, &h.Author, &h.OriginalAuthor, &h.Description} {
		if *s, err = r.readText(); err != nil {
			return err
		}
	}
	if h.Tempo, err = r.readUint16(); err != nil {
		return err
	}
	if h.AutoSaving, err = r.readBool(); err != nil {
		return err
	}
	if h.AutoSavingDuration, err = r.readByte(); err != nil {
		return err
	}
	if h.TimeSignature, err = r.readByte(); err != nil {
		return err
	}
	for _, n := range []*int32{&h.MinutesSpent, &h.LeftClicks, &h.RightClicks, &h.NoteBlocksAdded, &h.NoteBlocksRemoved} {
		if *n, err = r.readInt32(); err != nil {
			return err
		}
	}
	if h.SourceFile, err = r.readText(); err != nil {
		return err
	}

	if version >= nbs.VersionLooping {
		if h.Looping, err = r.readBool(); err != nil {
			return err
		}
		if h.MaxLoopCount, err = r.readByte(); err != nil {
			return err
		}
		if h.LoopStartTick, err = r.readUint16(); err != nil {
			return err
		}
	}
	return nil
}

// decodeNotes reads the jump-delta encoded note section. It returns the notes
// grouped by layer index and then by tick, and the last tick reached (-1 if
// the section is empty).
func (d *Decoder) decodeNotes(version nbs.Version) (map[int]map[int]nbs.Note, int, error) {
	r := d.r
	layerNotes := make(map[int]map[int]nbs.Note)

	tick := -1
	for {
		jump, err := r.readUint16()
		if err != nil {
			return nil, 0, err
		}
		if jump == 0 {
			break // End of the note section.
		}
		tick += jump

		layer := -1
		for {
			jump, err := r.readUint16()
			if err != nil {
				return nil, 0, err
			}
			if jump == 0 {
				break // End of this tick.
			}
			layer += jump

			note, err := d.decodeNote(version)
			if err != nil {
				return nil, 0, err
			}
			if layerNotes[layer] == nil {
				layerNotes[layer] = make(map[int]nbs.Note)
			}
			layerNotes[layer][tick] = note
		}
	}
	return layerNotes, tick, nil
}

func (d *Decoder) decodeNote(version nbs.Version) (nbs.Note, error) {
	r := d.r
	instrument, err := r.readByte()
	if err != nil {
		return nbs.Note{}, err
	}
	key, err := r.readByte()
	if err != nil {
		return nbs.Note{}, err
	}
	volume, panning, pitch := nbs.DefaultVolume, nbs.CenterPanning, nbs.DefaultPitch
	if version >= nbs.VersionNoteDetails {
		if volume, err = r.readByte(); err != nil {
			return nbs.Note{}, err
		}
		if panning, err = r.readByte(); err != nil {
			return nbs.Note{}, err
		}
		if pitch, err = r.readInt16(); err != nil {
			return nbs.Note{}, err
		}
	}
	note, err := nbs.NewNote(instrument, key, volume, panning, pitch)
	if err != nil {
		return nbs.Note{}, d.fatalf("invalid note: %w", err)
	}
	return note, nil
}

func (d *Decoder) decodeLayers(version nbs.Version, layerCount int, layerNotes map[int]map[int]nbs.Note) (map[int]nbs.Layer, error) {
	r := d.r
	layers := make(map[int]nbs.Layer, layerCount)
	for i := range layerCount {
		name, err := r.readText()
		if err != nil {
			return nil, err
		}
		locked := false
		if version >= nbs.VersionLayerLock {
			if locked, err = r.readBool(); err != nil {
				return nil, err
			}
		}
		volume, err := r.readByte()
		if err != nil {
			return nil, err
		}
		panning := nbs.CenterPanning
		if version >= nbs.VersionLayerPanning {
			if panning, err = r.readByte(); err != nil {
				return nil, err
			}
		}
		layer, err := nbs.NewLayer(name, locked, volume, panning, layerNotes[i])
		if err != nil {
			return nil, d.fatalf("invalid layer %d: %w", i, err)
		}
		layers[i] = layer
	}

	if layerCount == 0 && len(layerNotes) > 0 {
		// The header declares no layers but notes were placed on some, so
		// give every such layer default settings rather than losing notes.
		for _, i := range slices.Sorted(maps.Keys(layerNotes)) {
			layer, err := nbs.DefaultLayer("", layerNotes[i])
			if err != nil {
				return nil, d.fatalf("invalid layer %d: %w", i, err)
			}
			layers[i] = layer
		}
		d.addWarning("header declares no layers, created %d layers for the notes found", len(layerNotes))
		return layers, nil
	}

	for _, i := range slices.Sorted(maps.Keys(layerNotes)) {
		if i >= layerCount {
			d.addWarning("discarded %d notes on layer %d, header declares only %d layers", len(layerNotes[i]), i, layerCount)
		}
	}
	return layers, nil
}

func (d *Decoder) decodeInstruments() ([]nbs.Instrument, error) {
	r := d.r
	// Older files simply end after the layers.
	more, err := r.more()
	if err != nil || !more {
		return nil, err
	}
	count, err := r.readByte()
	if err != nil {
		return nil, err
	}
	var instruments []nbs.Instrument
	for i := range count {
		name, err := r.readText()
		if err != nil {
			return nil, err
		}
		file, err := r.readText()
		if err != nil {
			return nil, err
		}
		key, err := r.readByte()
		if err != nil {
			return nil, err
		}
		press, err := r.readBool()
		if err != nil {
			return nil, err
		}
		instrument, err := nbs.NewInstrument(name, file, key, press)
		if err != nil {
			return nil, d.fatalf("invalid custom instrument %d: %w", i, err)
		}
		instruments = append(instruments, instrument)
	}
	return instruments, nil
}

// Decode reads a song from r, logging warnings to log.Default().
func Decode(r io.Reader) (nbs.Song, error) {
	return NewDecoder(r, nil).Decode()
}

// Unmarshal decodes a song held in memory.
func Unmarshal(data []byte) (nbs.Song, error) {
	return Decode(bytes.NewReader(data))
}
