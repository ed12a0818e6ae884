package codec

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/QEStudios/opennbs/nbs"
)

// checkRegular returns an *InputError unless path is a regular file. When
// mayNotExist is set, a missing path is accepted.
func checkRegular(op, path string, mayNotExist bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if mayNotExist && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &InputError{Op: op, Path: path, Offset: -1, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &InputError{Op: op, Path: path, Offset: -1, Err: ErrNotRegularFile}
	}
	return nil
}

// DecodeFile reads the song stored at path. The file is closed before
// returning, whatever the outcome. A nil logger logs to log.Default().
func DecodeFile(path string, logger *log.Logger) (nbs.Song, error) {
	song, _, err := DecodeFileWarnings(path, logger)
	return song, err
}

// DecodeFileWarnings is DecodeFile, also returning the warnings produced
// while decoding.
func DecodeFileWarnings(path string, logger *log.Logger) (nbs.Song, []Warning, error) {
	if err := checkRegular("open", path, false); err != nil {
		return nbs.Song{}, nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nbs.Song{}, nil, &InputError{Op: "open", Path: path, Offset: -1, Err: err}
	}
	defer file.Close()

	d := NewDecoder(file, logger)
	song, err := d.Decode()
	if err != nil {
		var ie *InputError
		if errors.As(err, &ie) && ie.Path == "" {
			ie.Path = path
			return nbs.Song{}, nil, err
		}
		return nbs.Song{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return song, d.Warnings(), nil
}

// EncodeFile writes song to path at the given version, creating the file or
// truncating it. Paths naming anything other than a regular file are refused
// before anything is written. A nil logger logs to log.Default().
func EncodeFile(song nbs.Song, path string, version nbs.Version, logger *log.Logger) (err error) {
	if _, ok := nbs.VersionFromInt(version.Int()); !ok {
		return &FormatError{Version: version.Int()}
	}
	if err := checkRegular("create", path, true); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return &InputError{Op: "create", Path: path, Offset: -1, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &InputError{Op: "close", Path: path, Offset: -1, Err: cerr}
		}
	}()

	if err := NewEncoder(file, logger).Encode(song, version); err != nil {
		var ie *InputError
		if errors.As(err, &ie) && ie.Path == "" {
			ie.Path = path
		}
		return err
	}
	return nil
}
