package pkgconfig

import "time"

// Config is the read-only configuration surface business code depends on.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetDuration(key string) time.Duration
	GetArray(key string) []string
	Close() error
}
