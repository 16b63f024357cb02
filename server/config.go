package server

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid config")

// Config 进程级配置：物理常量在进程生命周期内固定，保证同样的输入时序得到同样的轨迹
type Config struct {
	Addr   string
	WSPath string

	TickInterval time.Duration
	Gravity      float64
	JumpImpulse  float64
	MoveSpeed    float64

	SpawnX        float64
	SpawnY        float64
	PlayerWidth   float64
	PlayerHeight  float64
	PlayerColor   string
	GroundedColor string

	// MaxPlayers 为 0 表示不限制人数
	MaxPlayers       int
	SubscriberBuffer int
	Codec            string

	// LevelFile 非空时覆盖 Platforms（.json 或 .tmx）
	LevelFile   string
	LevelWidth  int
	LevelHeight int
	Platforms   []Platform

	StaticDir string
	Log       LogConfig
}

// DefaultConfig 默认配置：一块实心地板 + 一块可穿透平台
func DefaultConfig() Config {
	return Config{
		Addr:             "localhost:3000",
		WSPath:           "/ws/",
		TickInterval:     10 * time.Millisecond,
		Gravity:          0.05,
		JumpImpulse:      1.5,
		MoveSpeed:        1.0,
		SpawnX:           50,
		SpawnY:           50,
		PlayerWidth:      10,
		PlayerHeight:     10,
		PlayerColor:      "red",
		GroundedColor:    "green",
		SubscriberBuffer: 16,
		Codec:            CodecJSON,
		LevelWidth:       800,
		LevelHeight:      600,
		Platforms: []Platform{
			{Kind: PlatformSolid, X: 0, Y: 300, W: 800, H: 20},
			{Kind: PlatformPassThrough, X: 200, Y: 220, W: 120, H: 8},
		},
		Log: LogConfig{
			File:       "app.log",
			Level:      "debug",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// ApplyEnv 用环境变量覆盖配置（未设置的保持原值）
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if addr := os.Getenv("ADDR"); addr != "" {
		c.Addr = addr
	}
	if v := os.Getenv("TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TICK_MS: %w", err)
		}
		c.TickInterval = time.Duration(ms) * time.Millisecond
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"GRAVITY", &c.Gravity},
		{"JUMP_IMPULSE", &c.JumpImpulse},
		{"MOVE_SPEED", &c.MoveSpeed},
	}
	for _, f := range floats {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = parsed
	}
	if v := os.Getenv("MAX_PLAYERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_PLAYERS: %w", err)
		}
		c.MaxPlayers = n
	}
	if v := os.Getenv("LEVEL_FILE"); v != "" {
		c.LevelFile = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	return nil
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick interval must be positive, got %s", ErrInvalidConfig, c.TickInterval)
	case c.PlayerWidth <= 0 || c.PlayerHeight <= 0:
		return fmt.Errorf("%w: player size must be positive", ErrInvalidConfig)
	case c.SubscriberBuffer <= 0:
		return fmt.Errorf("%w: subscriber buffer must be positive, got %d", ErrInvalidConfig, c.SubscriberBuffer)
	case c.MaxPlayers < 0:
		return fmt.Errorf("%w: max players must not be negative", ErrInvalidConfig)
	case c.LevelWidth <= 0 || c.LevelHeight <= 0:
		return fmt.Errorf("%w: level bounds must be positive", ErrInvalidConfig)
	}
	for i, p := range c.Platforms {
		if !finite(p.X, p.Y, p.W, p.H) || p.W < 0 || p.H < 0 {
			return fmt.Errorf("%w: platform %d has invalid geometry %+v", ErrInvalidConfig, i, p)
		}
	}
	if _, err := NewCodec(c.Codec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
