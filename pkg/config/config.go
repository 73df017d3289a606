package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingCredential = errors.New("missing required configuration")

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Features    FeatureConfig     `mapstructure:"features"`
	Bot         BotConfig         `mapstructure:"bot"`
	Neynar      NeynarConfig      `mapstructure:"neynar"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Milvus      MilvusConfig      `mapstructure:"milvus"`
	Dedup       DedupConfig       `mapstructure:"dedup"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Transcripts TranscriptsConfig `mapstructure:"transcripts"`
	Database    DatabaseConfig    `mapstructure:"database"`
	S3          S3Config          `mapstructure:"s3"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type FeatureConfig struct {
	UseLLM         bool `mapstructure:"use_llm"`
	DryRun         bool `mapstructure:"dry_run"`
	VerboseLogging bool `mapstructure:"verbose_logging"`
}

type BotConfig struct {
	FID          int64  `mapstructure:"fid"`
	SignerUUID   string `mapstructure:"signer_uuid"`
	MaxDepth     int    `mapstructure:"max_depth"`
	MaxReplySize int    `mapstructure:"max_reply_bytes"`
	MaxThreadHop int    `mapstructure:"max_thread_hops"`
}

type NeynarConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	ChatModel      string        `mapstructure:"chat_model"`
	RouterModel    string        `mapstructure:"router_model"`
	AccurateModel  string        `mapstructure:"accurate_model"`
	LargeModel     string        `mapstructure:"large_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type MilvusConfig struct {
	Address     string        `mapstructure:"address"`
	APIKey      string        `mapstructure:"api_key"`
	Collection  string        `mapstructure:"collection"`
	VectorField string        `mapstructure:"vector_field"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type DedupConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
	RedisURL string        `mapstructure:"redis_url"`
}

// CatalogConfig selects where episode metadata is read from: local, s3 or postgres.
type CatalogConfig struct {
	Source  string `mapstructure:"source"`
	DataDir string `mapstructure:"data_dir"`
}

// TranscriptsConfig selects where transcript documents are read from: local or s3.
type TranscriptsConfig struct {
	Source string `mapstructure:"source"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// legacyEnv maps the environment variable names used by existing deployments to config keys.
var legacyEnv = map[string]string{
	"features.use_llm":         "USE_LLM",
	"features.dry_run":         "DRY_RUN_SIMULATION",
	"features.verbose_logging": "VERBOSE_LOGGING",
	"bot.fid":                  "BOT_ACCOUNT_FID",
	"bot.signer_uuid":          "NEYNAR_BOT_SIGNER_UUID",
	"neynar.api_key":           "NEYNAR_API_KEY",
	"openai.api_key":           "OPENAI_API_KEY",
	"milvus.address":           "MILVUS_ADDRESS",
	"milvus.api_key":           "MILVUS_API_KEY",
	"milvus.collection":        "MILVUS_COLLECTION",
	"catalog.data_dir":         "DATA_DIR",
	"dedup.redis_url":          "REDIS_URL",
	"s3.bucket":                "S3_BUCKET",
	"s3.region":                "AWS_REGION",
	"s3.access_key_id":         "AWS_ACCESS_KEY_ID",
	"s3.secret_access_key":     "AWS_SECRET_ACCESS_KEY",
	"telegram.token":           "TELEGRAM_TOKEN",
	"telegram.chat_id":         "TELEGRAM_CHAT_ID",
	"server.addr":              "ADDR",
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")

	v.SetDefault("features.use_llm", true)
	v.SetDefault("features.dry_run", false)
	v.SetDefault("features.verbose_logging", false)

	v.SetDefault("bot.max_depth", 8)
	v.SetDefault("bot.max_reply_bytes", 1000)
	v.SetDefault("bot.max_thread_hops", 50)

	v.SetDefault("neynar.base_url", "https://api.neynar.com/v2")
	v.SetDefault("neynar.timeout", 10*time.Second)

	v.SetDefault("openai.chat_model", "gpt-4o")
	v.SetDefault("openai.router_model", "gpt-4")
	v.SetDefault("openai.accurate_model", "gpt-4")
	v.SetDefault("openai.large_model", "gpt-4-turbo")
	v.SetDefault("openai.embedding_model", "text-embedding-ada-002")
	v.SetDefault("openai.max_tokens", 300)
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("milvus.collection", "gmfc_transcripts")
	v.SetDefault("milvus.vector_field", "embedding")
	v.SetDefault("milvus.timeout", 10*time.Second)

	v.SetDefault("dedup.ttl", 5*time.Minute)
	v.SetDefault("dedup.capacity", 1000)

	v.SetDefault("catalog.source", "local")
	v.SetDefault("catalog.data_dir", "./data")
	v.SetDefault("transcripts.source", "local")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
}

// LoadConfig reads configuration from defaults, an optional YAML file, .env files and the environment.
// An empty path or a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	return &config, nil
}

// Validate reports the first required setting that is absent.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		empty bool
	}{
		{"OPENAI_API_KEY", c.OpenAI.APIKey == ""},
		{"NEYNAR_API_KEY", c.Neynar.APIKey == ""},
		{"NEYNAR_BOT_SIGNER_UUID", c.Bot.SignerUUID == ""},
		{"BOT_ACCOUNT_FID", c.Bot.FID == 0},
		{"MILVUS_ADDRESS", c.Milvus.Address == ""},
	}
	for _, r := range required {
		if r.empty {
			return fmt.Errorf("%w: %s", ErrMissingCredential, r.key)
		}
	}

	if c.Catalog.Source == "s3" || c.Transcripts.Source == "s3" {
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: S3_BUCKET", ErrMissingCredential)
		}
	}
	if c.Catalog.Source == "postgres" && c.Database.DBName == "" {
		return fmt.Errorf("%w: database.dbname", ErrMissingCredential)
	}

	switch c.Catalog.Source {
	case "local", "s3", "postgres":
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	switch c.Transcripts.Source {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown transcripts source %q", c.Transcripts.Source)
	}
	return nil
}
