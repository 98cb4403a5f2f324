package config

import (
	"time"

	"github.com/spf13/viper"
)

// Data data config struct
type Data struct {
	Database *Database
	Redis    *Redis
}

// Database database config struct
type Database struct {
	Driver          string
	Source          string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifeTime time.Duration
	Migrate         bool
}

// Redis redis config struct
type Redis struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

func getDataConfig(v *viper.Viper) *Data {
	return &Data{
		Database: &Database{
			Driver:          getStringOrDefault(v, "data.database.driver", "postgres"),
			Source:          v.GetString("data.database.source"),
			MaxIdleConn:     getIntOrDefault(v, "data.database.max_idle_conn", 10),
			MaxOpenConn:     getIntOrDefault(v, "data.database.max_open_conn", 50),
			ConnMaxLifeTime: getDurationOrDefault(v, "data.database.max_life_time", 30*time.Minute),
			Migrate:         v.GetBool("data.database.migrate"),
		},
		Redis: &Redis{
			Addr:         v.GetString("data.redis.addr"),
			Username:     v.GetString("data.redis.username"),
			Password:     v.GetString("data.redis.password"),
			DB:           v.GetInt("data.redis.db"),
			ReadTimeout:  getDurationOrDefault(v, "data.redis.read_timeout", 3*time.Second),
			WriteTimeout: getDurationOrDefault(v, "data.redis.write_timeout", 3*time.Second),
			DialTimeout:  getDurationOrDefault(v, "data.redis.dial_timeout", 5*time.Second),
		},
	}
}
