package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/l1jgo/tilemap/internal/config"
	"github.com/l1jgo/tilemap/internal/scripting"
	"github.com/l1jgo/tilemap/internal/source"
	"github.com/l1jgo/tilemap/internal/tilemap"
	"github.com/l1jgo/tilemap/internal/tileset"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultConfigPath = "config/tilemap.toml"

// env is what every subcommand starts from: configuration, logger and the
// optional Lua engine.
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *scripting.Engine
}

// openEnv is loadEnv; tests swap it for an env with an observed logger.
var openEnv = loadEnv

// loadEnv resolves the config path (flag, then TILEMAP_CONFIG, then the
// default file). A missing default file means built-in defaults.
func loadEnv(flagPath string) (*env, error) {
	cfgPath := flagPath
	if cfgPath == "" {
		cfgPath = os.Getenv("TILEMAP_CONFIG")
	}

	var (
		cfg *config.Config
		err error
	)
	if cfgPath == "" {
		cfg, err = config.Load(defaultConfigPath)
		if errors.Is(err, fs.ErrNotExist) {
			cfg, err = config.Default(), nil
		}
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	e := &env{cfg: cfg, log: log}
	if cfg.Scripting.Enabled {
		e.engine, err = scripting.NewEngine(cfg.Scripting.Dir, e.propertyClassifier(), log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("scripting: %w", err)
		}
	}
	return e, nil
}

func (e *env) close() {
	if e.engine != nil {
		e.engine.Close()
	}
	e.log.Sync()
}

func (e *env) propertyClassifier() tileset.PropertyClassifier {
	return tileset.PropertyClassifier{
		WalkableKey: e.cfg.Navigation.WalkableKey,
		ObstacleKey: e.cfg.Navigation.ObstacleKey,
		WeightKey:   e.cfg.Navigation.WeightKey,
	}
}

// classifier is the Lua engine when scripting is enabled, otherwise the
// configured property keys.
func (e *env) classifier() tileset.Classifier {
	if e.engine != nil {
		return e.engine
	}
	return e.propertyClassifier()
}

func (e *env) buildMap(doc *source.Document) (*tilemap.Map, error) {
	return tilemap.Build(doc,
		tilemap.WithLogger(e.log),
		tilemap.WithClassifier(e.classifier()),
	)
}

func (e *env) loadMap(path string) (*tilemap.Map, error) {
	doc, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return e.buildMap(doc)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
