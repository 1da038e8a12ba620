package config

import "time"

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	DB          int           `yaml:"db"`
	Password    string        `yaml:"password"`
	JobTTL      time.Duration `yaml:"jobTTL"`
	Concurrency int           `yaml:"concurrency"`
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		JobTTL:      time.Hour,
		Concurrency: 5,
	}
}
