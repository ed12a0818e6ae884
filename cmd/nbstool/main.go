package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/QEStudios/opennbs/codec"
	"github.com/QEStudios/opennbs/nbs"
	"github.com/QEStudios/opennbs/report"
	"github.com/QEStudios/opennbs/version"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
	"gopkg.in/yaml.v3"
)

var logger *log.Logger

var yamlExtensions = []string{".yml", ".yaml"}

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var (
		target      string
		outPath     string
		yamlOut     bool
		dump        bool
		showLayers  bool
		format      string
		versionFlag bool
	)
	pflag.StringVarP(&target, "target", "t", "", "re-encode the song at this NBS version (classic, v1..v5)")
	pflag.StringVarP(&outPath, "output", "o", "", "write the song to this file; .yml/.yaml writes YAML, anything else NBS")
	pflag.BoolVar(&yamlOut, "yaml", false, "print the song as YAML")
	pflag.BoolVar(&dump, "dump", false, "dump the decoded song structure")
	pflag.BoolVarP(&showLayers, "layers", "l", false, "list the layers of the song")
	pflag.StringVarP(&format, "format", "f", "", "print the song using this Go template instead of the summary")
	pflag.BoolVarP(&versionFlag, "version", "v", false, "print version")
	pflag.Parse()

	if versionFlag {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	// Get the path of the song file.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	song, warnings, err := load(path)
	if err != nil {
		logger.Fatalf("decode error: %v", err)
	}
	logger.Printf("Loaded %s song %q with %d layers and %d notes", song.Version(), song.Header().Name, song.LayerCount(), song.NoteCount())

	outVersion := song.Version()
	if target != "" {
		if outVersion, err = nbs.ParseVersion(target); err != nil {
			logger.Fatalf("invalid target version: %v", err)
		}
		if outPath == "" {
			// Write to a new .nbs file in the same directory as the source file.
			ext := filepath.Ext(path)
			outPath = fmt.Sprintf("%s_%s.nbs", strings.TrimSuffix(path, ext), strings.ToLower(outVersion.String()))
		}
	}

	var rep *report.Report
	if format != "" {
		rep, err = report.NewFromText(format)
	} else {
		rep, err = report.New()
	}
	if err != nil {
		logger.Fatalf("report error: %v", err)
	}
	data := report.Data{Path: path, Song: song, Size: codec.EncodedSize(song, song.Version()), Warnings: warnings}
	name := "summary"
	if format != "" {
		name = "custom"
	}
	if err := rep.Execute(os.Stdout, name, data); err != nil {
		logger.Fatalf("report error: %v", err)
	}
	if showLayers {
		if err := rep.Execute(os.Stdout, "layers", data); err != nil {
			logger.Fatalf("report error: %v", err)
		}
	}

	if dump {
		cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true}
		cfg.Dump(song)
	}

	if yamlOut {
		out, err := yaml.Marshal(song)
		if err != nil {
			logger.Fatalf("yaml error: %v", err)
		}
		fmt.Print(string(out))
	}

	if outPath != "" {
		if err := save(song, outPath, outVersion); err != nil {
			logger.Fatalf("error writing output file: %v", err)
		}
		logger.Printf("Wrote %s", outPath)
	}
}

// load reads a song from an NBS or YAML file.
func load(path string) (nbs.Song, []codec.Warning, error) {
	if slices.Contains(yamlExtensions, strings.ToLower(filepath.Ext(path))) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nbs.Song{}, nil, err
		}
		var song nbs.Song
		if err := yaml.Unmarshal(raw, &song); err != nil {
			return nbs.Song{}, nil, fmt.Errorf("%s: %w", path, err)
		}
		return song, nil, nil
	}

	return codec.DecodeFileWarnings(path, logger)
}

// save writes the song as YAML or as NBS at version, depending on the
// extension of path.
func save(song nbs.Song, path string, v nbs.Version) error {
	if slices.Contains(yamlExtensions, strings.ToLower(filepath.Ext(path))) {
		out, err := yaml.Marshal(song.WithVersion(v))
		if err != nil {
			return err
		}
		return os.WriteFile(path, out, 0o644)
	}
	return codec.EncodeFile(song, path, v, logger)
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path := args[0]
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open Note Block Song").
		Filter("Note Block Songs (*.nbs)", "nbs").
		Filter("YAML songs (*.yml, *.yaml)", "yml", "yaml").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}

	// Check for empty path just in case.
	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath checks that p is an existing regular file with a supported
// extension.
func validatePath(p string) error {
	ext := strings.ToLower(filepath.Ext(p))
	if ext != ".nbs" && !slices.Contains(yamlExtensions, ext) {
		return fmt.Errorf("file must have .nbs, .yml or .yaml extension")
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", p, codec.ErrNotRegularFile)
	}
	return nil
}
