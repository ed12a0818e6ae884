package nbs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// The YAML representation of a song. Omitted note, layer and instrument
// fields take their default values.
type (
	songYAML struct {
		Version string `yaml:"version"`

		Header `yaml:",inline"`

		Layers            []layerYAML      `yaml:"layers,omitempty"`
		CustomInstruments []instrumentYAML `yaml:"customInstruments,omitempty"`
	}

	layerYAML struct {
		Index   int        `yaml:"index"`
		Name    string     `yaml:"name,omitempty"`
		Locked  bool       `yaml:"locked,omitempty"`
		Volume  int        `yaml:"volume"`
		Panning int        `yaml:"panning"`
		Notes   []noteYAML `yaml:"notes,omitempty,flow"`
	}

	noteYAML struct {
		Tick       int `yaml:"tick"`
		Instrument int `yaml:"instrument"`
		Key        int `yaml:"key"`
		Volume     int `yaml:"volume"`
		Panning    int `yaml:"panning"`
		Pitch      int `yaml:"pitch,omitempty"`
	}

	instrumentYAML struct {
		Name          string `yaml:"name"`
		File          string `yaml:"file"`
		Key           int    `yaml:"key"`
		PressPianoKey bool   `yaml:"pressPianoKey,omitempty"`
	}
)

func (l *layerYAML) UnmarshalYAML(value *yaml.Node) error {
	type plain layerYAML
	p := plain{Volume: DefaultVolume, Panning: CenterPanning}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = layerYAML(p)
	return nil
}

func (n *noteYAML) UnmarshalYAML(value *yaml.Node) error {
	type plain noteYAML
	p := plain{Key: DefaultKey, Volume: DefaultVolume, Panning: CenterPanning}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = noteYAML(p)
	return nil
}

func (i *instrumentYAML) UnmarshalYAML(value *yaml.Node) error {
	type plain instrumentYAML
	p := plain{Key: DefaultKey}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*i = instrumentYAML(p)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Song) MarshalYAML() (any, error) {
	out := songYAML{
		Version: s.version.String(),
		Header:  s.header,
	}
	for _, il := range s.layers {
		ly := layerYAML{
			Index:   il.Index,
			Name:    il.Layer.name,
			Locked:  il.Layer.locked,
			Volume:  il.Layer.volume,
			Panning: il.Layer.panning,
		}
		for _, tn := range il.Layer.notes {
			ly.Notes = append(ly.Notes, noteYAML{
				Tick:       tn.Tick,
				Instrument: tn.Note.instrument,
				Key:        tn.Note.key,
				Volume:     tn.Note.volume,
				Panning:    tn.Note.panning,
				Pitch:      tn.Note.pitch,
			})
		}
		out.Layers = append(out.Layers, ly)
	}
	for _, inst := range s.instruments {
		out.CustomInstruments = append(out.CustomInstruments, instrumentYAML{
			Name:          inst.name,
			File:          inst.file,
			Key:           inst.key,
			PressPianoKey: inst.pressPianoKey,
		})
	}
	return out, nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Every value goes through the
// same constructors as decoded files, so out of range fields are rejected.
func (s *Song) UnmarshalYAML(value *yaml.Node) error {
	in := songYAML{
		Version: Latest.String(),
		Header:  DefaultHeader(""),
	}
	if err := value.Decode(&in); err != nil {
		return err
	}

	version, err := ParseVersion(in.Version)
	if err != nil {
		return err
	}

	layers := make(map[int]Layer, len(in.Layers))
	for _, ly := range in.Layers {
		if _, dup := layers[ly.Index]; dup {
			return fmt.Errorf("layer %d defined twice", ly.Index)
		}
		notes := make(map[int]Note, len(ly.Notes))
		for _, ny := range ly.Notes {
			if _, dup := notes[ny.Tick]; dup {
				return fmt.Errorf("layer %d: tick %d holds two notes", ly.Index, ny.Tick)
			}
			note, err := NewNote(ny.Instrument, ny.Key, ny.Volume, ny.Panning, ny.Pitch)
			if err != nil {
				return fmt.Errorf("layer %d, tick %d: %w", ly.Index, ny.Tick, err)
			}
			notes[ny.Tick] = note
		}
		layer, err := NewLayer(ly.Name, ly.Locked, ly.Volume, ly.Panning, notes)
		if err != nil {
			return fmt.Errorf("layer %d: %w", ly.Index, err)
		}
		layers[ly.Index] = layer
	}

	var instruments []Instrument
	for i, iy := range in.CustomInstruments {
		inst, err := NewInstrument(iy.Name, iy.File, iy.Key, iy.PressPianoKey)
		if err != nil {
			return fmt.Errorf("custom instrument %d: %w", i, err)
		}
		instruments = append(instruments, inst)
	}

	song, err := NewSong(version, in.Header, layers, instruments)
	if err != nil {
		return err
	}
	*s = song
	return nil
}
