package nbs

import (
	"errors"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"
)

func yamlTestSong(t *testing.T) Song {
	t.Helper()
	n1, err := NewNote(1, 46, 90, 200, -600)
	if err != nil {
		t.Fatal(err)
	}
	n2, err := NewNote(17, 0, 0, 0, 1200)
	if err != nil {
		t.Fatal(err)
	}
	l0, err := NewLayer("Melody", true, 80, 150, map[int]Note{0: n1, 9: n2})
	if err != nil {
		t.Fatal(err)
	}
	l3, err := DefaultLayer("", map[int]Note{4: n1})
	if err != nil {
		t.Fatal(err)
	}
	inst, err := NewInstrument("Bell", "bell.ogg", 50, true)
	if err != nil {
		t.Fatal(err)
	}
	h := DefaultHeader("Round Trip")
	h.Author = "Someone"
	h.Length = 9
	h.Looping = true
	h.LoopStartTick = 2
	h.MinutesSpent = -3
	song, err := NewSong(V4, h, map[int]Layer{0: l0, 3: l3}, []Instrument{inst})
	if err != nil {
		t.Fatal(err)
	}
	return song
}

func TestYAMLRoundTrip(t *testing.T) {
	song := yamlTestSong(t)
	out, err := yaml.Marshal(song)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Song
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal failed: %v\n%s", err, out)
	}
	if !song.Equal(back) {
		t.Fatalf("song changed in round trip\nyaml:\n%s\nexpected:\n%v\ngot:\n%v", out, spew.Sdump(song), spew.Sdump(back))
	}
}

func TestYAMLDefaults(t *testing.T) {
	src := `
name: Sparse
layers:
  - index: 2
    notes: [{tick: 5, instrument: 3}]
customInstruments:
  - {name: Custom, file: custom.ogg}
`
	var song Song
	if err := yaml.Unmarshal([]byte(src), &song); err != nil {
		t.Fatal(err)
	}
	if song.Version() != Latest {
		t.Fatalf("version = %s, expected %s", song.Version(), Latest)
	}
	h := song.Header()
	if h.Tempo != 1000 || h.VanillaInstrumentCount != 16 || h.TimeSignature != 4 {
		t.Fatalf("header defaults not applied: %+v", h)
	}
	layer, ok := song.Layer(2)
	if !ok {
		t.Fatalf("layer 2 missing")
	}
	if layer.Volume() != DefaultVolume || layer.Panning() != CenterPanning {
		t.Fatalf("layer defaults not applied: volume %d panning %d", layer.Volume(), layer.Panning())
	}
	note, ok := layer.NoteAt(5)
	if !ok {
		t.Fatalf("note at tick 5 missing")
	}
	want, _ := DefaultNote(3)
	if note != want {
		t.Fatalf("note = %v, expected %v", note, want)
	}
	if inst := song.CustomInstruments()[0]; inst.Key() != DefaultKey {
		t.Fatalf("instrument key = %d, expected %d", inst.Key(), DefaultKey)
	}
}

func TestYAMLRejectsInvalidSongs(t *testing.T) {
	cases := map[string]string{
		"bad version":     "version: V9\n",
		"duplicate layer": "layers: [{index: 0}, {index: 0}]\n",
		"duplicate tick":  "layers: [{index: 0, notes: [{tick: 1, instrument: 0}, {tick: 1, instrument: 1}]}]\n",
		"key range":       "layers: [{index: 0, notes: [{tick: 1, instrument: 0, key: 88}]}]\n",
		"tempo range":     "tempo: -5\n",
	}
	for name, src := range cases {
		var song Song
		if err := yaml.Unmarshal([]byte(src), &song); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}

	var song Song
	err := yaml.Unmarshal([]byte("layers: [{index: 0, volume: 101}]\n"), &song)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Value != 101 {
		t.Fatalf("expected a *ValidationError for the layer volume, got %v", err)
	}
	if !strings.Contains(err.Error(), "layer 0") {
		t.Fatalf("error does not name the layer: %v", err)
	}
}
