package config

import (
	"time"

	"github.com/spf13/viper"
)

// Realtime websocket config struct
type Realtime struct {
	SendBuffer     int
	AllowedOrigins []string
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

func getRealtimeConfig(v *viper.Viper) *Realtime {
	return &Realtime{
		SendBuffer:     getIntOrDefault(v, "realtime.send_buffer", 256),
		AllowedOrigins: getStringsOrDefault(v, "realtime.allowed_origins", nil),
		PingInterval:   getDurationOrDefault(v, "realtime.ping_interval", 54*time.Second),
		PongWait:       getDurationOrDefault(v, "realtime.pong_wait", 60*time.Second),
		WriteWait:      getDurationOrDefault(v, "realtime.write_wait", 10*time.Second),
		MaxMessageSize: int64(getIntOrDefault(v, "realtime.max_message_size", 4096)),
	}
}

// Worker background worker pool config struct
type Worker struct {
	MaxWorkers  int
	QueueSize   int
	TaskTimeout time.Duration
}

func getWorkerConfig(v *viper.Viper) *Worker {
	return &Worker{
		MaxWorkers:  getIntOrDefault(v, "worker.max_workers", 8),
		QueueSize:   getIntOrDefault(v, "worker.queue_size", 1024),
		TaskTimeout: getDurationOrDefault(v, "worker.task_timeout", 10*time.Second),
	}
}
