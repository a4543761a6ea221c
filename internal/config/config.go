package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Domain          string        `yaml:"domain"` // apex domain used for subdomain routing, e.g. "reaxo.app"
	UpstreamBaseURL string        `yaml:"upstream_base_url"`
	LogLevel        string        `yaml:"log_level"`
	LogJSON         bool          `yaml:"log_json"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	SecureCookies   bool          `yaml:"secure_cookies"`
	RedisAddr       string        `yaml:"redis_addr"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	AI              AI            `yaml:"ai"`
}

type AI struct {
	ChatURL         string        `yaml:"chat_url"`
	ChatModel       string        `yaml:"chat_model"`
	ChatMaxTokens   int           `yaml:"chat_max_tokens"`
	ChatTemperature float64       `yaml:"chat_temperature"`
	ImageURL        string        `yaml:"image_url"`
	ImageModel      string        `yaml:"image_model"`
	ImageSteps      int           `yaml:"image_steps"`
	ImageCFGScale   float64       `yaml:"image_cfg_scale"`
	Timeout         time.Duration `yaml:"timeout"` // per-call deadline for AI backends
	SystemUserID    string        `yaml:"system_user_id"`
}

type Private struct {
	Pg          Pg     `yaml:"pg"`
	UpstreamKey string `yaml:"upstream_key"` // Foru.ms token used for system-authored calls
	ChatKey     string `yaml:"chat_key"`
	ImageKey    string `yaml:"image_key"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
	InitPath string `yaml:"init_path"` // schema applied on startup, idempotent
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Public.AI.ChatMaxTokens == 0 {
		c.Public.AI.ChatMaxTokens = 1000
	}
	if c.Public.AI.ChatTemperature == 0 {
		c.Public.AI.ChatTemperature = 0.7
	}
	if c.Public.AI.ImageSteps == 0 {
		c.Public.AI.ImageSteps = 30
	}
	if c.Public.AI.ImageCFGScale == 0 {
		c.Public.AI.ImageCFGScale = 7.5
	}
	if c.Public.AI.Timeout == 0 {
		c.Public.AI.Timeout = 30 * time.Second
	}
	if c.Public.CacheTTL == 0 {
		c.Public.CacheTTL = 30 * time.Second
	}
}
