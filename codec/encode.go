package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/QEStudios/opennbs/nbs"
)

// Encoder writes songs to a stream.
type Encoder struct {
	w      io.Writer
	logger *log.Logger
}

// NewEncoder creates an encoder writing to w. A nil logger logs to
// log.Default().
func NewEncoder(w io.Writer, logger *log.Logger) *Encoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Encoder{w: w, logger: logger}
}

// Encode writes song in the layout of the given format version. Fields the
// version cannot store are left out without error, see DroppedFields.
func (e *Encoder) Encode(song nbs.Song, version nbs.Version) error {
	if _, ok := nbs.VersionFromInt(version.Int()); !ok {
		return &FormatError{Version: version.Int()}
	}
	if dropped := DroppedFields(song, version); len(dropped) > 0 {
		e.logger.Printf("Encoding %s song as %s drops: %s", song.Version(), version, strings.Join(dropped, "; "))
	}

	bw := bufio.NewWriter(e.w)
	w := newWriter(bw)
	writeSong(w, song, version)
	if w.err != nil {
		return w.err
	}
	if err := bw.Flush(); err != nil {
		return &InputError{Op: "write", Offset: w.n, Err: err}
	}
	return nil
}

func writeSong(w *writer, song nbs.Song, version nbs.Version) {
	h := song.Header()

	if version > nbs.Classic {
		w.writeUint16(0)
		w.writeByte(version.Int())
		w.writeByte(h.VanillaInstrumentCount)
		if version >= nbs.VersionExplicitLength {
			w.writeUint16(h.Length)
		}
	} else {
		w.writeUint16(h.Length)
	}
	w.writeUint16(song.LayerCount())

	w.writeText(h.Name)
	w.writeText(h.Author)
	w.writeText(h.OriginalAuthor)
	w.writeText(h.Description)
	w.writeUint16(h.Tempo)
	w.writeBool(h.AutoSaving)
	w.writeByte(h.AutoSavingDuration)
	w.writeByte(h.TimeSignature)
	w.writeInt32(h.MinutesSpent)
	w.writeInt32(h.LeftClicks)
	w.writeInt32(h.RightClicks)
	w.writeInt32(h.NoteBlocksAdded)
	w.writeInt32(h.NoteBlocksRemoved)
	w.writeText(h.SourceFile)

	if version >= nbs.VersionLooping {
		w.writeBool(h.Looping)
		w.writeByte(h.MaxLoopCount)
		w.writeUint16(h.LoopStartTick)
	}

	layers := song.Layers()
	writeNotes(w, layers, h.Length, version)

	for _, il := range layers {
		w.writeText(il.Layer.Name())
		if version >= nbs.VersionLayerLock {
			w.writeBool(il.Layer.Locked())
		}
		w.writeByte(il.Layer.Volume())
		if version >= nbs.VersionLayerPanning {
			w.writeByte(il.Layer.Panning())
		}
	}

	if n := song.CustomInstrumentCount(); n > 0 {
		w.writeByte(n)
		for _, inst := range song.CustomInstruments() {
			w.writeText(inst.Name())
			w.writeText(inst.File())
			w.writeByte(inst.Key())
			w.writeBool(inst.PressPianoKey())
		}
	}
}

// writeNotes writes the note section: for every tick in 0..length holding a
// note, the distance from the previous such tick, then for every layer with a
// note there the distance from the previous such layer followed by the note,
// then a 0. A final 0 ends the section.
func writeNotes(w *writer, layers []nbs.IndexedLayer, length int, version nbs.Version) {
	notes := make([][]nbs.TickNote, len(layers))
	for i, il := range layers {
		notes[i] = il.Layer.Notes()
	}
	// next[i] is the first note of layer i not written yet.
	next := make([]int, len(layers))

	lastTick := -1
	for _, tick := range populatedTicks(layers, length) {
		// Tick 65535 is one past the longest first jump, so step through an
		// empty tick to reach it.
		if tick-lastTick > maxJump {
			w.writeUint16(maxJump)
			w.writeUint16(0)
			lastTick += maxJump
		}
		w.writeUint16(tick - lastTick)
		lastTick = tick

		// Layer records carry no index, a reader numbers them by position. The
		// jumps therefore count positions, not layer indices, otherwise notes
		// of a layer after a gap would land past the last record. Songs whose
		// indices have gaps come back renumbered from 0.
		lastLayer := -1
		for i := range layers {
			if next[i] >= len(notes[i]) || notes[i][next[i]].Tick != tick {
				continue
			}
			note := notes[i][next[i]].Note
			next[i]++

			w.writeUint16(i - lastLayer)
			lastLayer = i

			w.writeByte(note.Instrument())
			w.writeByte(note.Key())
			if version >= nbs.VersionNoteDetails {
				w.writeByte(note.Volume())
				w.writeByte(note.Panning())
				w.writeInt16(note.Pitch())
			}
		}
		w.writeUint16(0) // End of this tick.
	}
	w.writeUint16(0) // End of the note section.
}

// Largest value a tick or layer jump can hold.
const maxJump = 65535

// populatedTicks returns, in ascending order, every tick in 0..length that
// holds a note on at least one layer.
func populatedTicks(layers []nbs.IndexedLayer, length int) []int {
	var ticks []int
	for _, il := range layers {
		for _, tn := range il.Layer.Notes() {
			if tn.Tick > length {
				break
			}
			ticks = append(ticks, tn.Tick)
		}
	}
	slices.Sort(ticks)
	return slices.Compact(ticks)
}

// EncodedSize returns the exact number of bytes Encode writes for song at the
// given version.
func EncodedSize(song nbs.Song, version nbs.Version) int {
	h := song.Header()

	size := 2 // Classic length, or the zero marking a versioned file.
	if version > nbs.Classic {
		size += 2 // Version and vanilla instrument count.
		if version >= nbs.VersionExplicitLength {
			size += 2
		}
	}
	size += 2 // Layer count.
	size += textSize(h.Name) + textSize(h.Author) + textSize(h.OriginalAuthor) + textSize(h.Description)
	size += 2 + 1 + 1 + 1 // Tempo, auto-saving, auto-saving duration, time signature.
	size += 5 * 4         // Statistics.
	size += textSize(h.SourceFile)
	if version >= nbs.VersionLooping {
		size += 1 + 1 + 2
	}

	layers := song.Layers()
	noteSize := 2 + 2 // Layer jump, instrument and key.
	if version >= nbs.VersionNoteDetails {
		noteSize += 4
	}
	ticks := populatedTicks(layers, h.Length)
	for _, il := range layers {
		for _, tn := range il.Layer.Notes() {
			if tn.Tick <= h.Length {
				size += noteSize
			}
		}
	}
	size += len(ticks)*(2+2) + 2 // Tick jumps and terminators, then the section terminator.
	if len(ticks) > 0 && ticks[0]+1 > maxJump {
		size += 2 + 2 // Empty tick on the way to tick 65535.
	}

	for _, il := range layers {
		size += textSize(il.Layer.Name()) + 1
		if version >= nbs.VersionLayerLock {
			size++
		}
		if version >= nbs.VersionLayerPanning {
			size++
		}
	}

	if song.CustomInstrumentCount() > 0 {
		size++
		for _, inst := range song.CustomInstruments() {
			size += textSize(inst.Name()) + textSize(inst.File()) + 1 + 1
		}
	}
	return size
}

// Marshal returns the encoding of song at the given version.
func Marshal(song nbs.Song, version nbs.Version) ([]byte, error) {
	totalSize := EncodedSize(song, version)
	buffer := bytes.NewBuffer(make([]byte, 0, totalSize))
	if err := NewEncoder(buffer, nil).Encode(song, version); err != nil {
		return nil, err
	}
	// Sanity check to make sure the output is the expected size.
	if buffer.Len() != totalSize {
		return nil, fmt.Errorf("encoded size mismatch: got %d bytes, expected %d", buffer.Len(), totalSize)
	}
	return buffer.Bytes(), nil
}

// Encode writes song to w at the given version, logging to log.Default().
func Encode(song nbs.Song, w io.Writer, version nbs.Version) error {
	return NewEncoder(w, nil).Encode(song, version)
}

// DroppedFields describes the song data that would not survive encoding at
// the given version. Decoding such a file yields the documented defaults in
// place of the listed data.
func DroppedFields(song nbs.Song, version nbs.Version) []string {
	h := song.Header()
	layers := song.Layers()
	var dropped []string

	if version < nbs.VersionVanillaInstrumentCount && h.VanillaInstrumentCount != classicVanillaInstrumentCount {
		dropped = append(dropped, fmt.Sprintf("vanilla instrument count %d", h.VanillaInstrumentCount))
	}
	if version == nbs.Classic && h.Length == 0 {
		dropped = append(dropped, "classic songs of length 0 are read back as versioned files")
	}
	lastTick, hasNotes := song.LastTick()
	if version > nbs.Classic && version < nbs.VersionExplicitLength {
		derived := 0
		if ticks := populatedTicks(layers, h.Length); len(ticks) > 0 {
			derived = ticks[len(ticks)-1]
		}
		if derived != h.Length {
			dropped = append(dropped, fmt.Sprintf("song length %d (reads back as %d)", h.Length, derived))
		}
	}
	if hasNotes && lastTick > h.Length {
		dropped = append(dropped, fmt.Sprintf("notes after tick %d", h.Length))
	}
	if version < nbs.VersionLooping && (h.Looping || h.MaxLoopCount != 0 || h.LoopStartTick != 0) {
		dropped = append(dropped, "loop settings")
	}

	var locked, panned, detailed, sparse bool
	for i, il := range layers {
		locked = locked || il.Layer.Locked()
		panned = panned || il.Layer.Panning() != nbs.CenterPanning
		sparse = sparse || il.Index != i
		for _, tn := range il.Layer.Notes() {
			n := tn.Note
			detailed = detailed || n.Volume() != nbs.DefaultVolume || n.Panning() != nbs.CenterPanning || n.Pitch() != nbs.DefaultPitch
		}
	}
	if version < nbs.VersionLayerLock && locked {
		dropped = append(dropped, "layer lock")
	}
	if version < nbs.VersionLayerPanning && panned {
		dropped = append(dropped, "layer panning")
	}
	if version < nbs.VersionNoteDetails && detailed {
		dropped = append(dropped, "note volume, panning and pitch")
	}
	if sparse {
		dropped = append(dropped, "layer indices with gaps (layers are renumbered from 0)")
	}
	return dropped
}
