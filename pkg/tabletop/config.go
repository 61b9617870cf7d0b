package tabletop

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/shadow"
)

// ErrUnknownConfigFormat is returned by LoadConfig for files that are
// neither TOML nor YAML.
var ErrUnknownConfigFormat = errors.New("tabletop: unknown config format")

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("tabletop: invalid config")

// Config holds the scene constants. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	Eye    [3]float64 `toml:"eye" yaml:"eye"`
	Target [3]float64 `toml:"target" yaml:"target"`
	// FOV is the vertical field of view in degrees.
	FOV float64 `toml:"fov" yaml:"fov"`

	Light LightConfig `toml:"light" yaml:"light"`

	// TableHeight is the y of the table surface: the mirror and shadow
	// plane. Objects sit at fixed offsets above it.
	TableHeight float64 `toml:"table_height" yaml:"table_height"`

	Background  [3]float64 `toml:"background" yaml:"background"`
	Fog         FogConfig  `toml:"fog" yaml:"fog"`
	Bump        bool       `toml:"bump" yaml:"bump"`
	ShadowColor [4]float64 `toml:"shadow_color" yaml:"shadow_color"`

	// AssetDir holds wood.jpg, paper.jpg and noise.png. Empty means
	// procedural textures.
	AssetDir string `toml:"asset_dir" yaml:"asset_dir"`

	// Slices is the tessellation of cylinders and cones.
	Slices int `toml:"slices" yaml:"slices"`
}

// LightConfig is a gray world-space point light.
type LightConfig struct {
	Position [3]float64 `toml:"position" yaml:"position"`
	Ambient  float64    `toml:"ambient" yaml:"ambient"`
	Diffuse  float64    `toml:"diffuse" yaml:"diffuse"`
	Specular float64    `toml:"specular" yaml:"specular"`
}

// FogConfig is linear distance fog.
type FogConfig struct {
	Enabled bool       `toml:"enabled" yaml:"enabled"`
	Color   [3]float64 `toml:"color" yaml:"color"`
	Start   float64    `toml:"start" yaml:"start"`
	End     float64    `toml:"end" yaml:"end"`
}

// DefaultConfig returns the table scene.
func DefaultConfig() Config {
	return Config{
		Width:  1024,
		Height: 768,
		Eye:    [3]float64{4, 3.5, 5},
		Target: [3]float64{0, 0, 0},
		FOV:    30,
		Light: LightConfig{
			Position: [3]float64{0.65, 1.7, 0.3},
			Ambient:  0.05,
			Diffuse:  2.5,
			Specular: 1.0,
		},
		TableHeight: 1.1,
		Background:  [3]float64{0.1, 0.1, 0.1},
		Fog: FogConfig{
			Enabled: true,
			Color:   [3]float64{0.1, 0.1, 0.1},
			Start:   4,
			End:     14,
		},
		Bump:        true,
		ShadowColor: [4]float64{0, 0, 0, 0.5},
		Slices:      32,
	}
}

// LoadConfig reads overrides of DefaultConfig from a .toml, .yaml or .yml
// file and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
	default:
		return cfg, fmt.Errorf("%s: %w %q", path, ErrUnknownConfigFormat, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config. The light must be above the table for the
// shadow projector to exist.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("size %dx%d must be positive", c.Width, c.Height))
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %g must be in (0, 180)", c.FOV))
	}
	if c.Eye == c.Target {
		errs = append(errs, errors.New("eye and target coincide"))
	}
	if c.Fog.End <= c.Fog.Start {
		errs = append(errs, fmt.Errorf("fog end %g must exceed start %g", c.Fog.End, c.Fog.Start))
	}
	if c.Slices < 3 {
		errs = append(errs, fmt.Errorf("slices %d must be at least 3", c.Slices))
	}
	if c.TableHeight <= tableThickness {
		errs = append(errs, fmt.Errorf("table height %g must exceed the top thickness %g", c.TableHeight, tableThickness))
	}
	if err := shadow.Check(c.LightPosition(), c.TableHeight); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LightPosition returns the world-space light position.
func (c Config) LightPosition() math3d.Vec3 {
	return vec3(c.Light.Position)
}

func vec3(a [3]float64) math3d.Vec3 {
	return math3d.V3(a[0], a[1], a[2])
}
