package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SystemConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// CheckoutConfig carries the static checkout knobs. The behavioral policy
// flags (strict variant match, fulfill status) are runtime settings in
// sys_config and read through the ConfigManager.
type CheckoutConfig struct {
	MaxCommitAttempts int `yaml:"max_commit_attempts"`
}

type AppConfig struct {
	System   SystemConfig   `yaml:"system"`
	Web      WebConfig      `yaml:"web"`
	Database DBConfig       `yaml:"database"`
	Logger   LogConfig      `yaml:"logger"`
	Checkout CheckoutConfig `yaml:"checkout"`
}

var DefaultAppConfig = &AppConfig{
	System: SystemConfig{
		Appid:    "commerce",
		Location: "Asia/Jakarta",
		Workdir:  "/var/commerce",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 8106,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "commerce",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/commerce/commerce.log",
	},
	Checkout: CheckoutConfig{
		MaxCommitAttempts: 3,
	},
}

func setEnvValue(name string, val *string) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue
	}
}

func setEnvIntValue(name string, val *int) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = cast.ToInt(evalue)
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue := os.Getenv(name); evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

// LoadConfig reads the yaml config file when present and applies
// COMMERCE_* environment overrides on top.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		}
	}

	setEnvValue("COMMERCE_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("COMMERCE_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("COMMERCE_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("COMMERCE_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("COMMERCE_WEB_PORT", &cfg.Web.Port)

	setEnvValue("COMMERCE_DB_TYPE", &cfg.Database.Type)
	setEnvValue("COMMERCE_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("COMMERCE_DB_PORT", &cfg.Database.Port)
	setEnvValue("COMMERCE_DB_NAME", &cfg.Database.Name)
	setEnvValue("COMMERCE_DB_USER", &cfg.Database.User)
	setEnvValue("COMMERCE_DB_PWD", &cfg.Database.Passwd)

	setEnvValue("COMMERCE_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("COMMERCE_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("COMMERCE_LOGGER_FILENAME", &cfg.Logger.Filename)

	setEnvIntValue("COMMERCE_CHECKOUT_MAX_COMMIT_ATTEMPTS", &cfg.Checkout.MaxCommitAttempts)

	if cfg.Logger.Filename == "" {
		cfg.Logger.Filename = filepath.Join(cfg.System.Workdir, "commerce.log")
	}

	return cfg
}
