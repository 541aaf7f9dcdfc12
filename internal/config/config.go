package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	APIPort   int    `yaml:"apiPort"`
	PublicURL string `yaml:"publicUrl"`
	Locale    string `yaml:"locale"`
	Database  struct {
		Driver     string `yaml:"driver"`
		Path       string `yaml:"path"`
		DSN        string `yaml:"dsn"`
		WALMode    bool   `yaml:"walMode"`
		MaxRetries int    `yaml:"maxRetries"`
		RetryDelay int    `yaml:"retryDelay"`
	} `yaml:"database"`
	JWT struct {
		Secret           string `yaml:"secret"`
		AccessTTL        int    `yaml:"accessTtl"`
		RefreshTTL       int    `yaml:"refreshTtl"`
		AdminUserID      int64  `yaml:"adminUserId"`
		BlocklistAccess  bool   `yaml:"blocklistAccess"`
		BlocklistRefresh bool   `yaml:"blocklistRefresh"`
	} `yaml:"jwt"`
	Activation struct {
		TTL int `yaml:"ttl"`
	} `yaml:"activation"`
	Mailgun struct {
		Domain    string `yaml:"domain"`
		APIKey    string `yaml:"apiKey"`
		FromTitle string `yaml:"fromTitle"`
		FromEmail string `yaml:"fromEmail"`
		Timeout   int    `yaml:"timeout"`
	} `yaml:"mailgun"`
	Storage struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"accessKeyId"`
		SecretAccessKey string `yaml:"secretAccessKey"`
	} `yaml:"storage"`
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Printf("Warning: Could not read config file: %s. Using defaults or environment variables.", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 5000
		log.Println("APIPort not specified, using default 5000")
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:5000"
		log.Println("Public URL not specified, using default http://localhost:5000")
	}

	if cfg.Locale == "" {
		cfg.Locale = "en-us"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite3"
		log.Println("Database driver not specified, using default sqlite3")
	}
	if cfg.Database.Driver == "sqlite3" && cfg.Database.Path == "" {
		cfg.Database.Path = "data.db"
		log.Println("Database path not specified, using default data.db")
	}
	if !cfg.Database.WALMode {
		cfg.Database.WALMode = true
		log.Println("WAL mode not specified, enabling by default")
	}
	if cfg.Database.MaxRetries == 0 {
		cfg.Database.MaxRetries = 5
	}
	if cfg.Database.RetryDelay == 0 {
		cfg.Database.RetryDelay = 5
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "jWt_-_s3CR3t_-_k3y"
		log.Println("Warning: JWT secret not specified, using the insecure development default")
	}
	if cfg.JWT.AccessTTL == 0 {
		cfg.JWT.AccessTTL = 900
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 2592000
	}
	if cfg.JWT.AdminUserID == 0 {
		cfg.JWT.AdminUserID = 1
	}
	if !v.IsSet("jwt.blocklistAccess") {
		cfg.JWT.BlocklistAccess = true
	}
	if !v.IsSet("jwt.blocklistRefresh") {
		cfg.JWT.BlocklistRefresh = true
	}

	if cfg.Activation.TTL == 0 {
		cfg.Activation.TTL = 1800
	}

	if cfg.Mailgun.FromTitle == "" {
		cfg.Mailgun.FromTitle = "Stores REST API"
	}
	if cfg.Mailgun.Timeout == 0 {
		cfg.Mailgun.Timeout = 10
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "stores-rest-api"
	}

	log.Printf("Configuration loaded (port %d, driver %s)", cfg.APIPort, cfg.Database.Driver)
	return &cfg, nil
}
