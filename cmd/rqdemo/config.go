package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chewxy/math32"

	"github.com/gogpu/renderqueue/sortkey"
)

// Config describes the synthetic scene and how a frame is produced.
type Config struct {
	Objects   int `toml:"objects"`
	Materials int `toml:"materials"`
	Sprites   int `toml:"sprites"`
	Lights    int `toml:"lights"`

	// Producers is the number of goroutines filling queues; Workers the
	// number of partitions each queue is replayed in.
	Producers int `toml:"producers"`
	Workers   int `toml:"workers"`
	Frames    int `toml:"frames"`

	Seed uint64 `toml:"seed"`

	// Ordering is "state-first" or "depth-first".
	Ordering string `toml:"ordering"`

	Memory MemoryConfig `toml:"memory"`
	Camera CameraConfig `toml:"camera"`
}

// MemoryConfig sizes the frame arenas.
type MemoryConfig struct {
	BlockSize int   `toml:"block_size"`
	ByteLimit int64 `toml:"byte_limit"`
}

// CameraConfig places the camera. Forward is normalized on load.
type CameraConfig struct {
	Position [3]float32 `toml:"position"`
	Forward  [3]float32 `toml:"forward"`
}

// DefaultConfig returns the scene used when no file is given.
func DefaultConfig() Config {
	return Config{
		Objects:   20000,
		Materials: 24,
		Sprites:   2000,
		Lights:    64,
		Producers: 4,
		Workers:   4,
		Frames:    3,
		Seed:      1,
		Ordering:  "state-first",
		Memory: MemoryConfig{
			BlockSize: 256 * 1024,
		},
		Camera: CameraConfig{
			Position: [3]float32{0, 2, -60},
			Forward:  [3]float32{0, 0, 1},
		},
	}
}

// LoadConfig reads a TOML scene file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML over DefaultConfig and validates the result.
// Unknown keys are an error.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and normalizes the camera direction.
func (c *Config) Validate() error {
	var errs []error
	if c.Objects < 0 || c.Sprites < 0 || c.Lights < 0 {
		errs = append(errs, errors.New("object, sprite and light counts must not be negative"))
	}
	if c.Materials < 1 {
		errs = append(errs, fmt.Errorf("materials = %d, need at least 1", c.Materials))
	}
	if c.Producers < 1 {
		errs = append(errs, fmt.Errorf("producers = %d, need at least 1", c.Producers))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers = %d, need at least 1", c.Workers))
	}
	if c.Frames < 1 {
		errs = append(errs, fmt.Errorf("frames = %d, need at least 1", c.Frames))
	}
	if c.Memory.BlockSize < 1024 {
		errs = append(errs, fmt.Errorf("memory.block_size = %d, need at least 1024", c.Memory.BlockSize))
	}
	if c.Memory.ByteLimit < 0 {
		errs = append(errs, fmt.Errorf("memory.byte_limit = %d is negative", c.Memory.ByteLimit))
	}
	if _, err := c.SortOrdering(); err != nil {
		errs = append(errs, err)
	}
	if !normalize(&c.Camera.Forward) {
		errs = append(errs, errors.New("camera.forward must not be zero"))
	}
	return errors.Join(errs...)
}

// SortOrdering returns the opaque key layout named by Ordering.
func (c *Config) SortOrdering() (sortkey.Ordering, error) {
	switch c.Ordering {
	case "", "state-first":
		return sortkey.StateFirst, nil
	case "depth-first":
		return sortkey.DepthFirst, nil
	default:
		return 0, fmt.Errorf("ordering %q: want state-first or depth-first", c.Ordering)
	}
}

// normalize scales v to unit length and reports whether v was non-zero.
func normalize(v *[3]float32) bool {
	l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 || math32.IsNaN(l) {
		return false
	}
	for i := range v {
		v[i] /= l
	}
	return true
}
