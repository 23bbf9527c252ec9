package cache

import (
	"context"

	"github.com/matzehuels/singleline/pkg/errors"
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string `toml:"backend"`

	Dir     string `toml:"dir"`     // file
	Entries int    `toml:"entries"` // memory

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// Open builds the backend named by cfg.Backend. An empty backend is
// [BackendNone].
func Open(ctx context.Context, cfg Config) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if cfg.Dir == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "file cache needs a directory")
		}
		c, err = NewFileCache(cfg.Dir)
	case BackendMemory:
		c, err = NewMemoryCache(cfg.Entries)
	case BackendRedis:
		c, err = NewRedisCache(ctx, cfg.Redis)
	case BackendMongo:
		c, err = NewMongoCache(ctx, cfg.Mongo)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
