package xlog

import "errors"

var (
	// ErrInvalidLevel 未知的日志级别。
	ErrInvalidLevel = errors.New("xlog: unknown level")
	// ErrInvalidFormat 未知的输出格式。
	ErrInvalidFormat = errors.New("xlog: unknown format")
	// ErrEmptyFilename 轮转文件名为空。
	ErrEmptyFilename = errors.New("xlog: empty rotation filename")
	// ErrInvalidRotation 轮转参数超出范围。
	ErrInvalidRotation = errors.New("xlog: invalid rotation config")
)
