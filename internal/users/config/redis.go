package config

import (
	"fmt"
	"time"

	"ecomshop/pkg/db/redis"
)

// RedisConfig представляет конфигурацию для Redis.
type RedisConfig struct {
	Host         string        `yaml:"host" env:"USERS_REDIS_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"USERS_REDIS_PORT" env-default:"6379"`
	Password     string        `yaml:"password" env:"USERS_REDIS_PASSWORD" env-default:""`
	DB           int           `yaml:"db" env:"USERS_REDIS_DB" env-default:"0"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"USERS_REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"USERS_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"USERS_REDIS_WRITE_TIMEOUT" env-default:"3s"`
	PoolSize     int           `yaml:"pool_size" env:"USERS_REDIS_POOL_SIZE" env-default:"10"`
	MinIdle      int           `yaml:"min_idle" env:"USERS_REDIS_MIN_IDLE" env-default:"2"`
	UserCacheTTL time.Duration `yaml:"user_cache_ttl" env:"USERS_REDIS_USER_CACHE_TTL" env-default:"5m"`
}

// GetAddress возвращает адрес Redis.
func (c *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClientConfig возвращает параметры подключения для redis.NewClient.
func (c *RedisConfig) ClientConfig() redis.Config {
	return redis.Config{
		Addr:         c.GetAddress(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdle:      c.MinIdle,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}
