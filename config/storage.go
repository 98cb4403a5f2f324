package config

import "github.com/spf13/viper"

// Storage object storage config struct
type Storage struct {
	Provider      string
	ID            string
	Secret        string
	Region        string
	Bucket        string
	Endpoint      string
	MaxUploadSize int64
}

// getStorageConfig get storage config
func getStorageConfig(v *viper.Viper) *Storage {
	return &Storage{
		Provider:      getStringOrDefault(v, "storage.provider", "filesystem"),
		ID:            v.GetString("storage.id"),
		Secret:        v.GetString("storage.secret"),
		Region:        v.GetString("storage.region"),
		Bucket:        getStringOrDefault(v, "storage.bucket", "./uploads"),
		Endpoint:      v.GetString("storage.endpoint"),
		MaxUploadSize: v.GetInt64("storage.max_upload_size"),
	}
}

// Messaging outbound event sink config struct
type Messaging struct {
	Provider string
	Brokers  []string
	Topic    string
	URL      string
	Exchange string
}

func getMessagingConfig(v *viper.Viper) *Messaging {
	return &Messaging{
		Provider: v.GetString("messaging.provider"),
		Brokers:  getStringsOrDefault(v, "messaging.brokers", nil),
		Topic:    getStringOrDefault(v, "messaging.topic", "collab.events"),
		URL:      v.GetString("messaging.url"),
		Exchange: getStringOrDefault(v, "messaging.exchange", "collab.events"),
	}
}
