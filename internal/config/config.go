package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vehicletag/registration-node/internal/log"
)

// CIConfigPath variable contains the CI configuration path
const CIConfigPath = "/home/runner/work/registration-node/registration-node/"

// Configuration holds the project configuration
type Configuration struct {
	ServerUrl  string
	ServerPort int
	Database   Database      `mapstructure:"Database"`
	Cache      Cache         `mapstructure:"Cache"`
	Issuer     Issuer        `mapstructure:"Issuer"`
	Log        Log           `mapstructure:"Log"`
	APIAuth    HTTPBasicAuth `mapstructure:"APIAuth"`
}

// Database has the database configuration
// URL: The database connection string
type Database struct {
	URL string `mapstructure:"Url" tip:"The Datasource name locator"`
}

// Cache configurations
type Cache struct {
	RedisUrl string `mapstructure:"RedisUrl" tip:"The redis url to use as a cache"`
}

// Issuer holds the configuration of the external tag issuer service. Every
// customer validation, OTP verification, document upload and tag registration
// call goes against this service.
type Issuer struct {
	BaseURL         string        `mapstructure:"BaseUrl" tip:"Tag issuer service base url"`
	AgentID         string        `mapstructure:"AgentId" tip:"Agent channel identifier sent on every request"`
	APIKey          string        `mapstructure:"ApiKey" tip:"Issuer api key"`
	ResponseTimeout time.Duration `mapstructure:"ResponseTimeout" tip:"Issuer response timeout"`
	SessionTTL      time.Duration `mapstructure:"SessionTTL" tip:"How long an issuer session is kept before re-validation"`
}

// Log holds runtime configurations
//
// Level: The minimum log level to show on logs. Values can be
//
//	 -4: Debug
//		0: Info
//		4: Warning
//		8: Error
//
// Mode: Log mode is the format of the log. 1 for JSON, 2 for text.
type Log struct {
	Level int `mapstructure:"Level" tip:"Minimum level to log: (-4:Debug, 0:Info, 4:Warning, 8:Error)"`
	Mode  int `mapstructure:"Mode" tip:"Log format (1: JSON, 2:Structured text)"`
}

// HTTPBasicAuth configuration. The admin query endpoints are protected with
// basic http auth. Here you can set the user and password to use.
type HTTPBasicAuth struct {
	User     string `mapstructure:"User" tip:"Basic auth username"`
	Password string `mapstructure:"Password" tip:"Basic auth password"`
}

// Sanitize checks the given configuration and applies defaults for the values
// a deployment can reasonably run without.
func (c *Configuration) Sanitize(ctx context.Context) error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.ServerPort == 0 {
		c.ServerPort = 3001
		log.Warn(ctx, "ServerPort not set, defaulting", "port", c.ServerPort)
	}
	if c.Issuer.ResponseTimeout == 0 {
		c.Issuer.ResponseTimeout = 30 * time.Second
	}
	if c.Issuer.SessionTTL == 0 {
		c.Issuer.SessionTTL = 5 * time.Minute
	}
	return nil
}

// Load loads the configuration from a file
func Load(fileName string) (*Configuration, error) {
	if err := godotenv.Load(); err == nil {
		log.Info(context.Background(), "loaded .env file")
	}
	bindEnv()
	pathFlag := viper.GetString("config")
	if _, err := os.Stat(pathFlag); err == nil {
		ext := filepath.Ext(pathFlag)
		if len(ext) > 1 {
			ext = ext[1:]
		}
		name := strings.Split(filepath.Base(pathFlag), ".")[0]
		viper.AddConfigPath(".")
		viper.SetConfigName(name)
		viper.SetConfigType(ext)
	} else {
		// Read default config file.
		viper.AddConfigPath(getWorkingDirectory())
		viper.AddConfigPath(CIConfigPath)
		viper.SetConfigType("toml")
		if fileName == "" {
			viper.SetConfigName("config")
		} else {
			viper.SetConfigName(fileName)
		}
	}
	config := &Configuration{
		Database: Database{},
		Log: Log{
			Level: log.LevelDebug,
			Mode:  log.OutputText,
		},
	}
	ctx := context.Background()
	if err := viper.ReadInConfig(); err != nil {
		log.Info(ctx, "config file not loaded, relying on env vars", "err", err)
	}
	if err := viper.Unmarshal(config); err != nil {
		log.Error(ctx, "error unmarshalling config file", "err", err)
	}
	return config, nil
}

func bindEnv() {
	viper.SetEnvPrefix("TAGREG")
	_ = viper.BindEnv("ServerUrl", "TAGREG_SERVER_URL")
	_ = viper.BindEnv("ServerPort", "TAGREG_SERVER_PORT")

	_ = viper.BindEnv("Database.Url", "TAGREG_DATABASE_URL")

	_ = viper.BindEnv("Cache.RedisUrl", "TAGREG_CACHE_REDIS_URL")

	_ = viper.BindEnv("Issuer.BaseUrl", "TAGREG_ISSUER_BASE_URL")
	_ = viper.BindEnv("Issuer.AgentId", "TAGREG_ISSUER_AGENT_ID")
	_ = viper.BindEnv("Issuer.ApiKey", "TAGREG_ISSUER_API_KEY")
	_ = viper.BindEnv("Issuer.ResponseTimeout", "TAGREG_ISSUER_RESPONSE_TIMEOUT")
	_ = viper.BindEnv("Issuer.SessionTTL", "TAGREG_ISSUER_SESSION_TTL")

	_ = viper.BindEnv("Log.Level", "TAGREG_LOG_LEVEL")
	_ = viper.BindEnv("Log.Mode", "TAGREG_LOG_MODE")

	_ = viper.BindEnv("APIAuth.User", "TAGREG_API_AUTH_USER")
	_ = viper.BindEnv("APIAuth.Password", "TAGREG_API_AUTH_PASSWORD")

	viper.AutomaticEnv()
}

func getWorkingDirectory() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(b), "../..") + "/"
}
