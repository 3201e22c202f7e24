package analysis

import (
	"strconv"
	"strings"

	"github.com/RyanBlaney/chipper/algorithms/stats"
)

// FrequencyStats summarizes the frequency bounds of syllables or notes, in Hz
type FrequencyStats struct {
	AvgUpper     stats.Value      `json:"avg_upper_freq"`
	AvgLower     stats.Value      `json:"avg_lower_freq"`
	Max          stats.Value      `json:"max_freq"`
	Min          stats.Value      `json:"min_freq"`
	OverallRange stats.Value      `json:"overall_freq_range"`
	Modulation   stats.BasicStats `json:"freq_modulation"`
}

// BoutStats describes the bout as a whole
type BoutStats struct {
	Duration             stats.Value      `json:"bout_duration_ms"`
	NumSyllables         int              `json:"num_syllables"`
	SyllablesPerDuration stats.Value      `json:"num_syllable_per_bout_duration"`
	SyllableDuration     stats.BasicStats `json:"syllable_duration_ms"`
	SilenceDuration      stats.BasicStats `json:"silence_duration_ms"`
}

// SyllableStats describes syllable similarity and frequency
type SyllableStats struct {
	CorrelationThreshold float64     `json:"syll_correlation_threshold"`
	NumUnique            int         `json:"num_unique_syllables"`
	SyllablesPerUnique   stats.Value `json:"num_syllables_per_num_unique"`
	Pattern              []int       `json:"syllable_pattern"`
	SequentialRepetition stats.Value `json:"sequential_repetition"`

	// Stereotypy lists the defined cluster scores. It is nil (NA) for bouts
	// with fewer than two syllables.
	Stereotypy     []float64   `json:"syllable_stereotypy"`
	MeanStereotypy stats.Value `json:"mean_syllable_stereotypy"`
	StdStereotypy  stats.Value `json:"std_syllable_stereotypy"`

	Frequency FrequencyStats `json:"sylls_freq"`
}

// NoteStats describes the notes inside the bout
type NoteStats struct {
	SizeThreshold    int              `json:"note_size_threshold"`
	NumNotes         int              `json:"num_notes"`
	NotesPerSyllable stats.Value      `json:"num_notes_per_syll"`
	NoteDuration     stats.BasicStats `json:"note_duration_ms"`
	Frequency        FrequencyStats   `json:"notes_freq"`
}

// Record is the full set of statistics for one recording
type Record struct {
	FileName string        `json:"file_name"`
	Bout     BoutStats     `json:"bout"`
	Syllable SyllableStats `json:"syllable"`
	Note     NoteStats     `json:"note"`
}

// Column is one named cell of the output table
type Column struct {
	Name  string
	Value string
}

// Columns flattens the record into table columns, in output order
func (r *Record) Columns() []Column {
	var cols []Column
	add := func(name, value string) {
		cols = append(cols, Column{Name: name, Value: value})
	}
	addValue := func(name string, v stats.Value) {
		add(name, v.String())
	}
	addBasic := func(name, units string, b stats.BasicStats) {
		addValue("largest_"+name+units, b.Largest)
		addValue("smallest_"+name+units, b.Smallest)
		addValue("avg_"+name+units, b.Avg)
		addValue("std_"+name+units, b.Std)
	}
	addFreq := func(kind string, f FrequencyStats) {
		addValue("avg_"+kind+"_upper_freq(Hz)", f.AvgUpper)
		addValue("avg_"+kind+"_lower_freq(Hz)", f.AvgLower)
		addValue("max_"+kind+"_freq(Hz)", f.Max)
		addValue("min_"+kind+"_freq(Hz)", f.Min)
		addValue("overall_"+kind+"_freq_range(Hz)", f.OverallRange)
		addBasic(kind+"_freq_modulation", "(Hz)", f.Modulation)
	}

	addValue("bout_duration(ms)", r.Bout.Duration)
	add("num_syllables", strconv.Itoa(r.Bout.NumSyllables))
	addValue("num_syllable_per_bout_duration(1/ms)", r.Bout.SyllablesPerDuration)
	addBasic("syllable_duration", "(ms)", r.Bout.SyllableDuration)
	addBasic("silence_duration", "(ms)", r.Bout.SilenceDuration)

	add("syll_correlation_threshold", formatFloat(r.Syllable.CorrelationThreshold))
	add("num_unique_syllables", strconv.Itoa(r.Syllable.NumUnique))
	addValue("num_syllables_per_num_unique", r.Syllable.SyllablesPerUnique)
	add("syllable_pattern", formatInts(r.Syllable.Pattern))
	addValue("sequential_repetition", r.Syllable.SequentialRepetition)
	if r.Syllable.Stereotypy == nil {
		add("syllable_stereotypy", stats.NAString)
	} else {
		add("syllable_stereotypy", formatFloats(r.Syllable.Stereotypy))
	}
	addValue("mean_syllable_stereotypy", r.Syllable.MeanStereotypy)
	addValue("std_syllable_stereotypy", r.Syllable.StdStereotypy)
	addFreq("sylls", r.Syllable.Frequency)

	add("note_size_threshold", strconv.Itoa(r.Note.SizeThreshold))
	add("num_notes", strconv.Itoa(r.Note.NumNotes))
	addValue("num_notes_per_syll", r.Note.NotesPerSyllable)
	addBasic("note_duration", "(ms)", r.Note.NoteDuration)
	addFreq("notes", r.Note.Frequency)

	return cols
}

// ColumnNames returns the table header, without the file name index column
func ColumnNames() []string {
	var r Record
	cols := r.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
