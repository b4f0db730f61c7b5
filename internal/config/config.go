package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. A YAML file named by CONFIG_FILE
// provides the base values; environment variables override it, so a
// bare deployment needs no file at all.
type Config struct {
	Addr         string  `yaml:"addr"`
	DatabaseURL  string  `yaml:"databaseUrl"`
	RedisURL     string  `yaml:"redisUrl"`
	SolveRate    float64 `yaml:"solveRate"`  // solve submissions per second
	SolveBurst   int     `yaml:"solveBurst"` // burst allowance
	SnapshotLogs bool    `yaml:"snapshotLogs"`
}

func Default() Config {
	return Config{Addr: ":8080", SolveRate: 2, SolveBurst: 5}
}

// Load reads CONFIG_FILE (when set) and applies env overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("SOLVE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.SolveRate = f
		}
	}
	if v := os.Getenv("SOLVE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SolveBurst = n
		}
	}
	if v := os.Getenv("SNAPSHOT_LOGS"); v != "" {
		cfg.SnapshotLogs = v == "1" || v == "true"
	}
	return cfg, nil
}
