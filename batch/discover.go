package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// InputKind names the kind of input a batch step looked for
type InputKind int

const (
	NoAudioFiles InputKind = iota
	NoSegmentedFiles
)

const (
	AudioSuffix     = ".wav"
	SegmentedSuffix = ".gzip"
)

var (
	ErrNoAudioFiles     = errors.New("no wav files found")
	ErrNoSegmentedFiles = errors.New("no segmented gzip files found")
)

// InputAbsentError reports that none of the given paths held a usable input
type InputAbsentError struct {
	Kind  InputKind
	Paths []string
}

func (e *InputAbsentError) Error() string {
	return fmt.Sprintf("%v in %s", e.sentinel(), strings.Join(e.Paths, ", "))
}

func (e *InputAbsentError) Unwrap() error {
	return e.sentinel()
}

func (e *InputAbsentError) sentinel() error {
	if e.Kind == NoSegmentedFiles {
		return ErrNoSegmentedFiles
	}
	return ErrNoAudioFiles
}

// DiscoverAudio expands paths into the WAV recordings to segment
func DiscoverAudio(paths []string) ([]string, error) {
	return discover(paths, AudioSuffix, NoAudioFiles)
}

// DiscoverSegmented expands paths into the bout records to analyze
func DiscoverSegmented(paths []string) ([]string, error) {
	return discover(paths, SegmentedSuffix, NoSegmentedFiles)
}

// discover lists files with suffix. Directories contribute their direct
// children; explicit file arguments are kept when the suffix matches.
func discover(paths []string, suffix string, kind InputKind) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat input %s: %w", p, err)
		}

		if !info.IsDir() {
			if hasSuffix(p, suffix) {
				files = append(files, p)
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", p, err)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() || !hasSuffix(entry.Name(), suffix) {
				continue
			}
			found = append(found, filepath.Join(p, entry.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, &InputAbsentError{Kind: kind, Paths: paths}
	}
	return files, nil
}

func hasSuffix(name, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(name), suffix)
}
