package config

import "github.com/spf13/viper"

// Search full-text index config struct. An empty provider keeps title
// matching in the database.
type Search struct {
	Provider string
	Host     string
	APIKey   string
	Index    string
}

func getSearchConfig(v *viper.Viper) *Search {
	return &Search{
		Provider: v.GetString("search.provider"),
		Host:     getStringOrDefault(v, "search.host", "http://localhost:7700"),
		APIKey:   v.GetString("search.api_key"),
		Index:    getStringOrDefault(v, "search.index", "projects"),
	}
}
