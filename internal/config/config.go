// Package config loads run settings from an optional YAML file and
// GESTURESNAKE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ayusman/gesturesnake/internal/app"
	"github.com/ayusman/gesturesnake/internal/capture"
	"github.com/ayusman/gesturesnake/internal/detector"
	"github.com/ayusman/gesturesnake/internal/game"
	"github.com/ayusman/gesturesnake/internal/gesture"
	"github.com/ayusman/gesturesnake/internal/logger"
	"github.com/ayusman/gesturesnake/internal/sound"
	"github.com/ayusman/gesturesnake/internal/store"
)

// EnvPrefix prefixes every environment override, e.g.
// GESTURESNAKE_GAME_BASE_SPEED.
const EnvPrefix = "GESTURESNAKE"

type Config struct {
	Camera   capture.Config  `mapstructure:"camera"`
	Detector detector.Config `mapstructure:"detector"`
	Gesture  gesture.Config  `mapstructure:"gesture"`
	Game     game.Config     `mapstructure:"game"`
	App      app.Config      `mapstructure:"app"`
	Sound    sound.Config    `mapstructure:"sound"`
	Log      logger.Config   `mapstructure:"log"`
	Store    StoreConfig     `mapstructure:"store"`
}

type StoreConfig struct {
	Path      string `mapstructure:"path"`
	BatchSize int    `mapstructure:"batch_size"`
}

// Dir returns ~/.gesturesnake, or the working directory when there is no
// home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gesturesnake"
	}
	return filepath.Join(home, ".gesturesnake")
}

// Default returns the built-in settings rooted at dir.
func Default(dir string) Config {
	return Config{
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Gesture:  gesture.DefaultConfig(),
		Game:     game.DefaultConfig(),
		App:      app.DefaultConfig(),
		Sound:    sound.DefaultConfig(),
		Log:      logger.DefaultConfig(dir),
		Store: StoreConfig{
			Path:      filepath.Join(dir, "traces.db"),
			BatchSize: store.DefaultBatchSize,
		},
	}
}

// Load reads path, or config.yaml in dir when path is empty. A missing
// file is only an error when path was given explicitly.
func Load(path, dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default(dir))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("camera.device", d.Camera.DeviceID)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("camera.fps", d.Camera.FPS)
	v.SetDefault("camera.mirror", d.Camera.Mirror)

	v.SetDefault("detector.min_confidence", d.Detector.MinConfidence)
	v.SetDefault("detector.min_tracking_confidence", d.Detector.MinTrackingConf)
	v.SetDefault("detector.faces", d.Detector.Faces)
	v.SetDefault("detector.script_path", d.Detector.ScriptPath)

	v.SetDefault("gesture.motion_threshold", d.Gesture.MotionThreshold)
	v.SetDefault("gesture.cooldown_frames", d.Gesture.CooldownFrames)
	v.SetDefault("gesture.pinch_threshold", d.Gesture.PinchThreshold)

	v.SetDefault("game.width", d.Game.Width)
	v.SetDefault("game.height", d.Game.Height)
	v.SetDefault("game.cell_size", d.Game.CellSize)
	v.SetDefault("game.initial_length", d.Game.InitialLength)
	v.SetDefault("game.fruit_reward", d.Game.FruitReward)
	v.SetDefault("game.base_speed", d.Game.BaseSpeed)
	v.SetDefault("game.boost_speed", d.Game.BoostSpeed)
	v.SetDefault("game.particle_count", d.Game.ParticleCount)
	v.SetDefault("game.particle_speed", d.Game.ParticleSpeed)
	v.SetDefault("game.particle_life", d.Game.ParticleLife)

	v.SetDefault("app.observation_fps", d.App.ObservationFPS)
	v.SetDefault("app.display_fps", d.App.DisplayFPS)
	v.SetDefault("app.shutdown_timeout", d.App.ShutdownTimeout)

	v.SetDefault("sound.enabled", d.Sound.Enabled)
	v.SetDefault("sound.volume", d.Sound.Volume)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.stderr", d.Log.Stderr)

	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.batch_size", d.Store.BatchSize)
}
