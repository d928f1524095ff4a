package config

type StorageConfig interface {
	GetSQLitePath() string
	GetRedisAddr() string
}

type Storage struct {
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/auth.db"`
	RedisAddr  string `env:"REDIS_ADDR"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetSQLitePath() string {
	return s.SQLitePath
}

// GetRedisAddr returns the Redis address for the refresh token store.
// Empty means the in-memory store is used instead.
func (s Storage) GetRedisAddr() string {
	return s.RedisAddr
}
