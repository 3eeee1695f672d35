package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env-default:"9090"`
	SocketPort        string `yaml:"socket-port" env-default:"5000"`
	Redis             Redis  `yaml:"redis"`
	Rooms             Rooms  `yaml:"rooms"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path" env-default:"./users.db"`
	JWTSecretKey      string `yaml:"jwt-secret-key"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Rooms - lifecycle knobs for the in-memory room registry.
type Rooms struct {
	WaitingTTL      time.Duration `yaml:"waiting-ttl" env-default:"10m"`
	AbandonedGrace  time.Duration `yaml:"abandoned-grace" env-default:"30s"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env-default:"1m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
