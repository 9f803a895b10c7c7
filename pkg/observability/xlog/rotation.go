package xlog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转默认值。
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30

	maxSizeMB  = 10 * 1024
	maxBackups = 1024
	maxAgeDays = 3650
)

// Rotation 按大小轮转的参数，零值字段使用默认值。
type Rotation struct {
	MaxSizeMB  int  `koanf:"max_size_mb" json:"max_size_mb"`
	MaxBackups int  `koanf:"max_backups" json:"max_backups"`
	MaxAgeDays int  `koanf:"max_age_days" json:"max_age_days"`
	Compress   bool `koanf:"compress" json:"compress"`
}

func (r Rotation) withDefaults() Rotation {
	if r.MaxSizeMB == 0 {
		r.MaxSizeMB = DefaultMaxSizeMB
	}
	if r.MaxBackups == 0 {
		r.MaxBackups = DefaultMaxBackups
	}
	if r.MaxAgeDays == 0 {
		r.MaxAgeDays = DefaultMaxAgeDays
	}
	return r
}

func (r Rotation) validate() error {
	switch {
	case r.MaxSizeMB < 0 || r.MaxSizeMB > maxSizeMB:
		return fmt.Errorf("%w: max_size_mb %d, want 1~%d", ErrInvalidRotation, r.MaxSizeMB, maxSizeMB)
	case r.MaxBackups < 0 || r.MaxBackups > maxBackups:
		return fmt.Errorf("%w: max_backups %d, want 0~%d", ErrInvalidRotation, r.MaxBackups, maxBackups)
	case r.MaxAgeDays < 0 || r.MaxAgeDays > maxAgeDays:
		return fmt.Errorf("%w: max_age_days %d, want 0~%d", ErrInvalidRotation, r.MaxAgeDays, maxAgeDays)
	default:
		return nil
	}
}

// newRotator 创建 lumberjack 写入器，父目录不存在时以 0750 创建。
func newRotator(filename string, r Rotation) (*lumberjack.Logger, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	r = r.withDefaults()

	path := filepath.Clean(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("xlog: create log dir: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    r.MaxSizeMB,
		MaxBackups: r.MaxBackups,
		MaxAge:     r.MaxAgeDays,
		Compress:   r.Compress,
		LocalTime:  true,
	}, nil
}
