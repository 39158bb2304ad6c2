// Package config loads YAML format profiles: the format name, its option
// values and the logging setup of the command line tool.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/llehouerou/go-floppy/internal/format"
)

// Profile errors.
var (
	// ErrFormat indicates a profile without a format name.
	ErrFormat = errors.New("config: format not set")

	// ErrValue indicates an option value that is neither an integer, a
	// boolean nor a list of them.
	ErrValue = errors.New("config: invalid option value")
)

// Logging defaults, applied when a profile leaves them unset.
const (
	DefaultLevel      = "info"
	DefaultMaxSizeMB  = 25
	DefaultMaxAgeDays = 7
	DefaultMaxBackups = 5
)

// Profile is one YAML profile.
type Profile struct {
	Format    string           `yaml:"format"`
	Read      map[string]Value `yaml:"read"`
	Write     map[string]Value `yaml:"write"`
	RW        map[string]Value `yaml:"rw"`
	Verbosity int              `yaml:"verbosity"`
	Logs      Logs             `yaml:"logs"`
}

// Logs configures the logger of the command line tool.
type Logs struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // Empty logs to stderr only
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
	SentryDSN  string `yaml:"sentryDSN"`
}

// Value is an option value. A scalar is a single value at index 0; in a
// list, the position of each element is its index.
type Value []int

// UnmarshalYAML accepts an integer, a boolean or a sequence of them.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		n, err := scalar(node)
		if err != nil {
			return err
		}
		*v = Value{n}
		return nil
	case yaml.SequenceNode:
		out := make(Value, len(node.Content))
		for i, elem := range node.Content {
			if elem.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: line %d: nested value", ErrValue, elem.Line)
			}
			n, err := scalar(elem)
			if err != nil {
				return err
			}
			out[i] = n
		}
		*v = out
		return nil
	}
	return fmt.Errorf("%w: line %d", ErrValue, node.Line)
}

func scalar(node *yaml.Node) (int, error) {
	var n int
	if err := node.Decode(&n); err == nil {
		return n, nil
	}
	var b bool
	if err := node.Decode(&b); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: line %d: %q", ErrValue, node.Line, node.Value)
}

// New returns a profile for the named format with no options set.
func New(formatName string) *Profile {
	p := &Profile{Format: formatName}
	p.setDefaults()
	return p
}

// Load reads the profile at path.
func Load(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile and fills in defaults. Unknown keys are errors.
func Parse(r io.Reader) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if p.Format == "" {
		return nil, ErrFormat
	}
	p.setDefaults()
	return &p, nil
}

func (p *Profile) setDefaults() {
	if p.Logs.Level == "" {
		p.Logs.Level = DefaultLevel
	}
	if p.Logs.MaxSizeMB <= 0 {
		p.Logs.MaxSizeMB = DefaultMaxSizeMB
	}
	if p.Logs.MaxAgeDays <= 0 {
		p.Logs.MaxAgeDays = DefaultMaxAgeDays
	}
	if p.Logs.MaxBackups <= 0 {
		p.Logs.MaxBackups = DefaultMaxBackups
	}
}

// leading names the options that reset a format's layout, such as the
// recording mode. They are applied before every other option.
var leading = map[string]bool{"mode": true}

// Apply sets every option of the profile on f: layout resets first, then
// read, write and read/write options, each group in name order. The
// resulting timing of every track is validated.
func (p *Profile) Apply(f format.Format) error {
	groups := []struct {
		scope  string
		values map[string]Value
		set    func(name string, value, index int) error
	}{
		{format.ScopeRead, p.Read, f.SetReadOption},
		{format.ScopeWrite, p.Write, f.SetWriteOption},
		{format.ScopeRW, p.RW, f.SetRWOption},
	}
	for _, first := range []bool{true, false} {
		for _, g := range groups {
			names := make([]string, 0, len(g.values))
			for name := range g.values {
				if leading[name] == first {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			for _, name := range names {
				for i, v := range g.values[name] {
					if err := g.set(name, v, i); err != nil {
						return fmt.Errorf("config: %s: %w", g.scope, err)
					}
				}
			}
		}
	}
	for track := 0; track < format.MaxTracks; track++ {
		if err := f.Timing(track).Validate(); err != nil {
			return fmt.Errorf("config: track %d: %w", track, err)
		}
	}
	return nil
}
