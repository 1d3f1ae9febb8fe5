package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	OpenRouter   OpenRouterConfig   `mapstructure:"openrouter"`
	Embedding    EmbeddingConfig    `mapstructure:"embedding"`
	VectorIndex  VectorIndexConfig  `mapstructure:"vector_index"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Cache        CacheConfig        `mapstructure:"cache"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	DedupWindow  time.Duration      `mapstructure:"dedup_window"`
	LogLevel     string             `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig OpenRouter 配置（分類與生成模型）
type OpenRouterConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	ClassifyModel string        `mapstructure:"classify_model"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig 向量嵌入配置
type EmbeddingConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VectorIndexConfig 食譜向量索引配置
type VectorIndexConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Host    string        `mapstructure:"host"`
	TopK    int           `mapstructure:"top_k"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConversationConfig 對話流程設定
type ConversationConfig struct {
	ContextWindow int           `mapstructure:"context_window"` // 傳給分類模型的近期訊息數
	SummaryTurns  int           `mapstructure:"summary_turns"`  // 摘要取用的使用者訊息數
	CarryTTL      time.Duration `mapstructure:"carry_ttl"`      // 上一輪結果的保存時間
}

// RedisConfig 對話儲存配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig AI 回應快取配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件，缺檔時直接用環境變數
	if err := godotenv.Load(); err != nil {
		log.Printf("未找到 .env 文件，使用環境變數: %v", err)
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	viper.BindEnv("openrouter.classify_model", "OPENROUTER_CLASSIFY_MODEL")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("embedding.api_key", "EMBEDDING_API_KEY")
	viper.BindEnv("embedding.base_url", "EMBEDDING_BASE_URL")
	viper.BindEnv("embedding.model", "EMBEDDING_MODEL")
	viper.BindEnv("vector_index.api_key", "PINECONE_API_KEY")
	viper.BindEnv("vector_index.host", "PINECONE_HOST")
	viper.BindEnv("vector_index.top_k", "PINECONE_TOP_K")
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration",
		"openrouter_api_key:", maskAPIKey(viper.GetString("openrouter.api_key")),
		"openrouter_model:", viper.GetString("openrouter.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "tastyai")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// OpenRouter 設定
	viper.SetDefault("openrouter.model", "openai/gpt-4o")
	viper.SetDefault("openrouter.classify_model", "openai/gpt-4o-mini")
	viper.SetDefault("openrouter.max_tokens", 1000)
	viper.SetDefault("openrouter.timeout", "60s")

	// 向量嵌入設定
	viper.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.timeout", "30s")

	// 向量索引設定
	viper.SetDefault("vector_index.top_k", 3)
	viper.SetDefault("vector_index.timeout", "30s")

	// 對話流程設定
	viper.SetDefault("conversation.context_window", 4)
	viper.SetDefault("conversation.summary_turns", 6)
	viper.SetDefault("conversation.carry_ttl", "24h")

	// Redis 設定
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 去重設定
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證對話流程設定
	if config.Conversation.ContextWindow <= 0 {
		return fmt.Errorf("invalid conversation context window")
	}
	if config.VectorIndex.TopK <= 0 {
		return fmt.Errorf("invalid vector index top_k")
	}

	return nil
}
