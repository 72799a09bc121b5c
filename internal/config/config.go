package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Push struct {
		// Base64url-encoded VAPID key pair. Empty keys disable the
		// reminder fan-out (it refuses to start without them).
		PublicKey  string `mapstructure:"public_key"`
		PrivateKey string `mapstructure:"private_key"`
		Contact    string `mapstructure:"contact"`
		TTLSeconds int    `mapstructure:"ttl_seconds"`
	} `mapstructure:"push"`

	AI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"ai"`

	Reminder struct {
		Enabled  bool
		Interval string // time.ParseDuration format, e.g. "168h"
		Title    string
		Body     string
		URL      string
	} `mapstructure:"reminder"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	// ENV overrides (APP_*) win over file values.
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Push.TTLSeconds == 0 {
		c.Push.TTLSeconds = 86400
	}
	return c, nil
}
