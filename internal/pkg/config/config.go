package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values. Implementations handle
// missing keys by returning zero values; callers supply their own defaults.
type Config interface {
	io.Closer

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the value for key as an int32.
	GetInt32(key string) int32

	// GetInt64 retrieves the value for key as an int64.
	GetInt64(key string) int64

	// GetFloat64 retrieves the value for key as a float64.
	GetFloat64(key string) float64

	// GetArray retrieves the value for key as a string slice.
	GetArray(key string) []string

	// GetSecond retrieves the integer value for key as a duration in seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the integer value for key as a duration in minutes.
	GetMinute(key string) time.Duration

	// GetHour retrieves the integer value for key as a duration in hours.
	GetHour(key string) time.Duration
}
