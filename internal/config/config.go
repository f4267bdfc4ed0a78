// Package config implements the engine's ambient configuration loading:
// a TOML file read via BurntSushi/toml into a typed Config, providing the
// object-database tuning knobs (compression, cache sizing, delta
// thresholds) and repository identity that the rest of the engine needs
// at construction time. File parsing lives here so internal/odb and
// friends stay free of any on-disk format; there is no CLI or
// environment-variable overlay.
//
// Grounded on modules/zeta/config/type.go: the tri-state Boolean and the
// suffix-parsing Size type are carried over (rewritten for this module's
// own settings rather than zeta's much larger Section/Sections key-value
// store, which exists to back a generic `zeta config get/set` CLI this
// engine does not have).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/winnyboy5/mediagit-core-sub002/internal/codec"
)

// Boolean is a tri-state boolean: unset, true, or false, distinguishing
// "not configured" from an explicit false the way a plain Go bool cannot.
type Boolean struct {
	state int8
}

const (
	boolUnset int8 = iota
	boolTrue
	boolFalse
)

// True returns a Boolean explicitly set to true.
func True() Boolean { return Boolean{state: boolTrue} }

// False returns a Boolean explicitly set to false.
func False() Boolean { return Boolean{state: boolFalse} }

// UnmarshalTOML accepts TOML bools, ints (zero is false), and the usual
// human strings ("true"/"yes"/"on"/"1" and their opposites).
func (b *Boolean) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case bool:
		b.state = stateOf(v)
	case int64:
		b.state = stateOf(v != 0)
	case string:
		switch v {
		case "true", "yes", "on", "1":
			b.state = boolTrue
		case "false", "no", "off", "0":
			b.state = boolFalse
		default:
			return fmt.Errorf("config: %q is not a recognised boolean", v)
		}
	default:
		return fmt.Errorf("config: unexpected boolean value %T", data)
	}
	return nil
}

func stateOf(v bool) int8 {
	if v {
		return boolTrue
	}
	return boolFalse
}

// MarshalTOML renders b back to a plain TOML boolean; an unset value is
// encoded as false, since there is no TOML primitive for "absent".
func (b Boolean) MarshalTOML() ([]byte, error) {
	if b.state == boolTrue {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// IsUnset reports whether the field was absent from the file entirely.
func (b Boolean) IsUnset() bool { return b.state == boolUnset }

// Value returns b's boolean value, substituting dflt when unset.
func (b Boolean) Value(dflt bool) bool {
	switch b.state {
	case boolTrue:
		return true
	case boolFalse:
		return false
	default:
		return dflt
	}
}

// Size is an integer byte count parsed from human-friendly suffixed
// strings: "512", "512b", "64k", "256m", "4g", case-insensitively.
type Size struct {
	Bytes int64
}

const (
	kib int64 = 1 << (10 * (iota + 1))
	mib
	gib
	tib
)

// MarshalText renders s back to a suffixed human form (e.g. "64m"),
// choosing the largest suffix that divides evenly.
func (s Size) MarshalText() ([]byte, error) {
	switch {
	case s.Bytes != 0 && s.Bytes%tib == 0:
		return []byte(fmt.Sprintf("%dt", s.Bytes/tib)), nil
	case s.Bytes != 0 && s.Bytes%gib == 0:
		return []byte(fmt.Sprintf("%dg", s.Bytes/gib)), nil
	case s.Bytes != 0 && s.Bytes%mib == 0:
		return []byte(fmt.Sprintf("%dm", s.Bytes/mib)), nil
	case s.Bytes != 0 && s.Bytes%kib == 0:
		return []byte(fmt.Sprintf("%dk", s.Bytes/kib)), nil
	default:
		return []byte(fmt.Sprintf("%d", s.Bytes)), nil
	}
}

// UnmarshalText parses text as a byte size.
func (s *Size) UnmarshalText(text []byte) error {
	str := string(text)
	if len(str) == 0 {
		return fmt.Errorf("config: empty size value")
	}
	if str[len(str)-1] == 'b' || str[len(str)-1] == 'B' {
		str = str[:len(str)-1]
	}
	if len(str) == 0 {
		return fmt.Errorf("config: empty size value")
	}
	ratio := int64(1)
	switch str[len(str)-1] {
	case 'k', 'K':
		ratio, str = kib, str[:len(str)-1]
	case 'm', 'M':
		ratio, str = mib, str[:len(str)-1]
	case 'g', 'G':
		ratio, str = gib, str[:len(str)-1]
	case 't', 'T':
		ratio, str = tib, str[:len(str)-1]
	}
	var n int64
	if _, err := fmt.Sscanf(str, "%d", &n); err != nil {
		return fmt.Errorf("config: invalid size %q: %w", string(text), err)
	}
	s.Bytes = n * ratio
	return nil
}

// StringArray accepts either a single TOML string or an array of
// strings, normalizing both to a slice.
type StringArray []string

// UnmarshalTOML implements toml.Unmarshaler.
func (a *StringArray) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*a = []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("config: expected string in array, got %T", e)
			}
			out = append(out, s)
		}
		*a = out
	default:
		return fmt.Errorf("config: unexpected string-array value %T", data)
	}
	return nil
}

// IdentitySection carries the commit author/committer defaults.
type IdentitySection struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// StorageSection tunes the ODB's compression and caching behavior.
type StorageSection struct {
	Compression      string  `toml:"compression"`
	CompressionLevel int     `toml:"compression_level"`
	CacheSize        Size    `toml:"cache_size"`
	CacheMaxEntries  int     `toml:"cache_max_entries"`
	DeltaMinScore    float64 `toml:"delta_min_score"`
	DeltaMinSavings  float64 `toml:"delta_min_savings_ratio"`
	BigFileThreshold Size    `toml:"big_file_threshold"`
}

// CoreSection holds repository-format-level settings.
type CoreSection struct {
	Bare                Boolean     `toml:"bare"`
	RepositoryFormatVer int         `toml:"repositoryformatversion"`
	AttributesFiles     StringArray `toml:"attributes_files"`
}

// RemoteSection describes one configured remote.
type RemoteSection struct {
	URL   string `toml:"url"`
	Fetch string `toml:"fetch"`
}

// Config is the top-level parsed configuration file.
type Config struct {
	Core    CoreSection              `toml:"core"`
	User    IdentitySection          `toml:"user"`
	Storage StorageSection           `toml:"storage"`
	Remote  map[string]RemoteSection `toml:"remote"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			Compression:      "zstd",
			CompressionLevel: 3,
			CacheSize:        Size{Bytes: 64 * mib},
			CacheMaxEntries:  4096,
			DeltaMinScore:    0.30,
			DeltaMinSavings:  0.10,
			BigFileThreshold: Size{Bytes: mib},
		},
	}
}

// Load reads and parses the TOML file at path, filling in Default()'s
// values for anything the file does not set.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func (cfg *Config) Save(path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: creating %s: %w", path, err)
	}
	enc := toml.NewEncoder(fd)
	err = enc.Encode(cfg)
	closeErr := fd.Close()
	if err != nil {
		return fmt.Errorf("config: encoding %s: %w", path, err)
	}
	return closeErr
}

// Algorithm maps the configured compression name to a codec.Algorithm.
func (s StorageSection) Algorithm() codec.Algorithm {
	switch s.Compression {
	case "brotli":
		return codec.Brotli
	case "none":
		return codec.None
	default:
		return codec.Zstd
	}
}
