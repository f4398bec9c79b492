package lexicon

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a lexicon YAML file.
//
// Example:
//
//	exercises:
//	  - name: "Deadlift"
//	    aliases: ["dl", "deads"]
//	aliases:
//	  trap bar: "Trap Bar Deadlift"
type File struct {
	Exercises []Exercise        `yaml:"exercises"`
	Aliases   map[string]string `yaml:"aliases"`
}

// LoadFile reads and parses a lexicon YAML file from disk.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %q: %w", path, err)
	}
	defer f.Close()

	lf, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("lexicon: parse %q: %w", path, err)
	}
	return lf, nil
}

// LoadFromReader parses lexicon YAML from r. Unknown keys are rejected to
// catch typos.
func LoadFromReader(r io.Reader) (*File, error) {
	var lf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil {
		if errors.Is(err, io.EOF) {
			return &lf, nil
		}
		return nil, fmt.Errorf("lexicon: decode yaml: %w", err)
	}
	for i, ex := range lf.Exercises {
		if NormalizeKey(ex.Name) == "" {
			return nil, fmt.Errorf("lexicon: exercises[%d].name is required", i)
		}
	}
	return &lf, nil
}

// Apply imports the file's exercises and teaches its aliases into s. It
// returns the number of exercises plus aliases applied.
func (lf *File) Apply(s *Store) (int, error) {
	if lf == nil {
		return 0, fmt.Errorf("lexicon: file must not be nil")
	}
	s.Import(lf.Exercises)
	n := len(lf.Exercises)
	for alias, canonical := range lf.Aliases {
		if err := s.Teach(alias, canonical); err != nil {
			return n, fmt.Errorf("lexicon: alias %q: %w", alias, err)
		}
		n++
	}
	return n, nil
}
