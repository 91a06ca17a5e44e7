package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	LogEncoding string `mapstructure:"log_encoding"`

	// 角色总表与默认剧本
	CatalogPath       string `mapstructure:"catalog_path"`
	DefaultScriptPath string `mapstructure:"default_script_path"`

	// 新建桌面时夜晚是否默认唤醒所有座位
	ShowAllAtNight bool `mapstructure:"show_all_at_night"`
	DecoyCount     int  `mapstructure:"decoy_count"`

	TableIdleTimeout time.Duration `mapstructure:"table_idle_timeout"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STORYTELLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值，文件损坏则直接失败
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("加载配置失败: %w", err))
		}
	}

	config, err := decode(v)
	if err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	cfg = config

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "console")
	v.SetDefault("catalog_path", "./data/roles.json")
	v.SetDefault("default_script_path", "")
	v.SetDefault("show_all_at_night", false)
	v.SetDefault("decoy_count", 3)
	v.SetDefault("table_idle_timeout", "6h")
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DecoyCount <= 0 {
		return nil, fmt.Errorf("decoy_count 必须为正数，当前为 %d", config.DecoyCount)
	}

	return &config, nil
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
