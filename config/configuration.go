package config

import (
	"github.com/spf13/viper"
)

type GroupConfiguration struct {
	FanIn       int    `json:"fan_in" mapstructure:"fan_in" default:"4"`
	Ddof        int    `json:"ddof" mapstructure:"ddof" default:"1"`
	Method      string `json:"method" mapstructure:"method" default:"sort"`
	Parallelism int    `json:"parallelism" mapstructure:"parallelism" default:"0"`
}

type HTTPConfiguration struct {
	Host string `json:"host" mapstructure:"host" default:"0.0.0.0"`
	Port string `json:"port" mapstructure:"port" default:"8123"`
}

type S3Configuration struct {
	URL    string `json:"url" mapstructure:"url" default:""`
	Key    string `json:"key" mapstructure:"key" default:""`
	Secret string `json:"secret" mapstructure:"secret" default:""`
	Bucket string `json:"bucket" mapstructure:"bucket" default:""`
	Region string `json:"region" mapstructure:"region" default:""`
	Path   string `json:"path" mapstructure:"path" default:""`
	Secure bool   `json:"secure" mapstructure:"secure" default:"false"`
}

type Configuration struct {
	Group  GroupConfiguration `json:"group" mapstructure:"group"`
	HTTP   HTTPConfiguration  `json:"http" mapstructure:"http"`
	S3     S3Configuration    `json:"s3" mapstructure:"s3"`
	Tables string             `json:"tables" mapstructure:"tables"`
}

var Config *Configuration

func InitConfig(file string) {
	viper.AutomaticEnv()
	viper.SetDefault("group.fan_in", 4)
	viper.SetDefault("group.ddof", 1)
	viper.SetDefault("group.method", "sort")
	viper.SetDefault("http.host", "0.0.0.0")
	viper.SetDefault("http.port", "8123")
	if file != "" {
		viper.SetConfigFile(file)
		err := viper.ReadInConfig()
		if err != nil {
			panic(err)
		}
	}
	Config = &Configuration{}
	err := viper.Unmarshal(Config)
	if err != nil {
		panic(err)
	}
}
