// Package hwconfig loads per-assignment descriptors: INI files naming the
// Gradescope assignment, its linked check-your-understanding quiz, the
// target gradecard sub-sheet and the configured questions.
package hwconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
)

// ErrMalformed indicates a descriptor missing one of the required overview
// keys. The descriptor is skipped; the run continues with the others.
var ErrMalformed = errors.New("malformed configuration")

// ErrNoConfigs indicates the config directory holds no usable descriptors.
var ErrNoConfigs = errors.New("no homework configs found")

// Question is one configured question: its name on Gradescope and the
// optional starred alternate substituted when the primary scores zero.
type Question struct {
	Name     string
	StarName string
}

// Config is a parsed assignment descriptor.
type Config struct {
	Name         string
	CYU          string
	GSheetName   string
	NumQuestions int

	// Questions has one slot per configured index; a nil slot marks a
	// question section missing from the descriptor.
	Questions []*Question
}

// Entry names a descriptor available for selection.
type Entry struct {
	Name string
	Path string
}

// List returns the descriptors under dir, sorted by the natural order of
// their display names. Files that cannot be parsed or carry no overview.name
// are skipped.
func List(dir string) ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.ini"))
	if err != nil {
		return nil, fmt.Errorf("failed to list configs in %s: %w", dir, err)
	}

	var entries []Entry
	for _, path := range paths {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("ini")
		if err := v.ReadInConfig(); err != nil {
			continue
		}
		name := v.GetString("overview.name")
		if name == "" {
			continue
		}
		entries = append(entries, Entry{Name: name, Path: path})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return naturalLess(entries[i].Name, entries[j].Name)
	})
	return entries, nil
}

// Load parses one descriptor. Missing question sections leave a nil gap at
// that index; missing required overview keys fail the whole descriptor.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	for _, key := range []string{"overview.name", "overview.cyu", "overview.gsheet_name"} {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("%w: %s: missing %s", ErrMalformed, path, key)
		}
	}

	cfg := &Config{
		Name:         v.GetString("overview.name"),
		CYU:          v.GetString("overview.cyu"),
		GSheetName:   v.GetString("overview.gsheet_name"),
		NumQuestions: v.GetInt("overview.num_questions"),
	}

	for i := 1; i <= cfg.NumQuestions; i++ {
		section := fmt.Sprintf("question%d", i)
		if !v.IsSet(section + ".name") {
			cfg.Questions = append(cfg.Questions, nil)
			continue
		}
		cfg.Questions = append(cfg.Questions, &Question{
			Name:     v.GetString(section + ".name"),
			StarName: v.GetString(section + ".star_name"),
		})
	}

	return cfg, nil
}

// naturalLess compares display names with digit runs ordered numerically, so
// "HW 2" sorts before "HW 10".
func naturalLess(a, b string) bool {
	ta, tb := tokenize(a), tokenize(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		x, y := ta[i], tb[i]
		if x == y {
			continue
		}
		if x.numeric && y.numeric {
			if x.value != y.value {
				return x.value < y.value
			}
			continue
		}
		return x.text < y.text
	}
	return len(ta) < len(tb)
}

type token struct {
	text    string
	numeric bool
	value   int
}

func tokenize(s string) []token {
	var tokens []token
	start := 0
	digit := false
	flush := func(end int) {
		if end == start {
			return
		}
		text := s[start:end]
		tok := token{text: text}
		if digit {
			tok.numeric = true
			for _, r := range text {
				tok.value = tok.value*10 + int(r-'0')
			}
		}
		tokens = append(tokens, tok)
	}
	for i, r := range s {
		d := r >= '0' && r <= '9'
		if i == 0 {
			digit = d
			continue
		}
		if d != digit {
			flush(i)
			start = i
			digit = d
		}
	}
	flush(len(s))
	return tokens
}
