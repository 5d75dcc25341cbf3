package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"lyricsync/pkg/logging"

	"github.com/BurntSushi/toml"
)

const (
	DefaultSocketPath    = "/tmp/lyricsync.sock"
	DefaultCheckInterval = time.Second
	DefaultTickInterval  = 250 * time.Millisecond
)

var logger = logging.Component("config")

func getDefaultStatusFile() string {
	// 优先使用 XDG_RUNTIME_DIR
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "lyricsync", "current_line")
	}
	return filepath.Join(os.TempDir(), "lyricsync", "current_line")
}

// TomlConfig TOML配置文件结构，所有字段都可省略
type TomlConfig struct {
	App struct {
		SocketPath     string `toml:"socket_path"`
		StatusFile     string `toml:"status_file"`
		CheckInterval  string `toml:"check_interval"`
		TickInterval   string `toml:"tick_interval"`
		LogLevel       string `toml:"log_level"`
		LinesBefore    *int   `toml:"lines_before"`
		LinesAfter     *int   `toml:"lines_after"`
		AutoTranslate  bool   `toml:"auto_translate"`
		TargetLanguage string `toml:"target_language"`
	} `toml:"app"`

	Lyrics struct {
		Providers    []string `toml:"providers"`
		LRCLibURL    string   `toml:"lrclib_url"`
		LyricsOvhURL string   `toml:"lyrics_ovh_url"`
		NetEaseURL   string   `toml:"netease_url"`
		Timeout      string   `toml:"timeout"`
		MinLines     *int     `toml:"min_lines"`
		Retries      int      `toml:"retries"`
	} `toml:"lyrics"`

	Translation struct {
		MyMemoryURL    string `toml:"mymemory_url"`
		LingvaURL      string `toml:"lingva_url"`
		Timeout        string `toml:"timeout"`
		ThrottleEvery  *int   `toml:"throttle_every"`
		ThrottleDelay  string `toml:"throttle_delay"`
		ParagraphDelay string `toml:"paragraph_delay"`
		MaxLines       *int   `toml:"max_lines"`
		AIFallback     bool   `toml:"ai_fallback"`
		SourceLanguage string `toml:"source_language"`
	} `toml:"translation"`

	AI struct {
		ModuleName string `toml:"module_name"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI
		Model      string `toml:"model"`
	} `toml:"ai"`

	Tencent struct {
		SecretID  string `toml:"secret_id"`
		SecretKey string `toml:"secret_key"`
		Region    string `toml:"region"`
	} `toml:"tencent"`

	Cache struct {
		Capacity int    `toml:"capacity"`
		TTL      string `toml:"ttl"`
	} `toml:"cache"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	HTTP struct {
		Addr string `toml:"addr"`
	} `toml:"http"`

	Player struct {
		Backend      string `toml:"backend"`
		MPRISService string `toml:"mpris_service"`
	} `toml:"player"`

	StatusBar struct {
		Enabled         bool   `toml:"enabled"`
		Process         string `toml:"process"`
		Signal          int    `toml:"signal"`
		RefreshInterval string `toml:"refresh_interval"`
	} `toml:"statusbar"`
}

// AppConfig 应用配置
type AppConfig struct {
	SocketPath     string
	StatusFile     string
	CheckInterval  time.Duration
	TickInterval   time.Duration
	LogLevel       string
	LinesBefore    int
	LinesAfter     int
	AutoTranslate  bool
	TargetLanguage string
}

// LyricsConfig 歌词源配置
type LyricsConfig struct {
	Providers    []string
	LRCLibURL    string
	LyricsOvhURL string
	NetEaseURL   string
	Timeout      time.Duration
	MinLines     int
	Retries      int
}

// TranslationConfig 翻译配置
type TranslationConfig struct {
	MyMemoryURL    string
	LingvaURL      string
	Timeout        time.Duration
	ThrottleEvery  int
	ThrottleDelay  time.Duration
	ParagraphDelay time.Duration
	MaxLines       int
	AIFallback     bool
	SourceLanguage string
}

// AIConfig AI配置
type AIConfig struct {
	ModuleName string
	APIKey     string
	BaseURL    string
	Model      string
}

// TencentConfig 腾讯云机器翻译配置
type TencentConfig struct {
	SecretID  string
	SecretKey string
	Region    string
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Capacity int
	TTL      time.Duration
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// HTTPConfig HTTP接口配置，Addr为空时不启动
type HTTPConfig struct {
	Addr string
}

// PlayerConfig 播放器配置，MPRISService为空时自动选择
type PlayerConfig struct {
	Backend      string // mpris 或 playerctl
	MPRISService string
}

// StatusBarConfig 状态文件更新后通知状态栏刷新
type StatusBarConfig struct {
	Enabled         bool
	Process         string
	Signal          int
	RefreshInterval time.Duration
}

// Config 主配置结构
type Config struct {
	App         AppConfig
	Lyrics      LyricsConfig
	Translation TranslationConfig
	AI          AIConfig
	Tencent     TencentConfig
	Cache       CacheConfig
	Redis       RedisConfig
	HTTP        HTTPConfig
	Player      PlayerConfig
	StatusBar   StatusBarConfig
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			SocketPath:     DefaultSocketPath,
			StatusFile:     getDefaultStatusFile(),
			CheckInterval:  DefaultCheckInterval,
			TickInterval:   DefaultTickInterval,
			LogLevel:       "info",
			LinesBefore:    2,
			LinesAfter:     3,
			TargetLanguage: "it",
		},
		Lyrics: LyricsConfig{
			Providers: []string{"lrclib", "lyricsovh"},
			Timeout:   8 * time.Second,
			MinLines:  5,
		},
		Translation: TranslationConfig{
			Timeout:        10 * time.Second,
			ThrottleEvery:  10,
			ThrottleDelay:  50 * time.Millisecond,
			ParagraphDelay: 100 * time.Millisecond,
			MaxLines:       50,
		},
		AI: AIConfig{
			ModuleName: "gemini",
		},
		Cache: CacheConfig{
			Capacity: 100,
			TTL:      30 * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Player: PlayerConfig{
			Backend: "mpris",
		},
		StatusBar: StatusBarConfig{
			Process:         "i3blocks",
			Signal:          55,
			RefreshInterval: 10 * time.Second,
		},
	}
}

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	// 优先使用 XDG_CONFIG_HOME 环境变量
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyricsync", "config.toml")
	}

	// 否则使用用户主目录下的 .config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot get user home directory")
		return "config.toml" // 回退到当前目录
	}

	return filepath.Join(homeDir, ".config", "lyricsync", "config.toml")
}

// loadTomlConfig 加载TOML配置文件，文件不存在时返回空配置
func loadTomlConfig(configPath string) (*TomlConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Info().Str("path", configPath).Msg("Config file not found, using defaults")
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	logger.Info().Str("path", configPath).Msg("Loaded config")
	return &config, nil
}

// Load 从默认路径加载配置
func Load() *Config {
	return LoadFrom(GetConfigPath())
}

// LoadFrom 从指定路径加载配置，解析失败时使用默认值
func LoadFrom(configPath string) *Config {
	tomlConfig, err := loadTomlConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load config file, using default configuration")
		tomlConfig = &TomlConfig{}
	}

	config := Default()
	config.apply(tomlConfig)
	config.applyEnv()
	return config
}

func (c *Config) apply(t *TomlConfig) {
	// App
	setString(&c.App.SocketPath, t.App.SocketPath)
	setString(&c.App.StatusFile, t.App.StatusFile)
	setPositiveDuration(&c.App.CheckInterval, t.App.CheckInterval, "app.check_interval")
	setPositiveDuration(&c.App.TickInterval, t.App.TickInterval, "app.tick_interval")
	setString(&c.App.LogLevel, t.App.LogLevel)
	setNonNegative(&c.App.LinesBefore, t.App.LinesBefore)
	setNonNegative(&c.App.LinesAfter, t.App.LinesAfter)
	c.App.AutoTranslate = t.App.AutoTranslate
	setString(&c.App.TargetLanguage, t.App.TargetLanguage)

	// Lyrics
	if len(t.Lyrics.Providers) > 0 {
		c.Lyrics.Providers = t.Lyrics.Providers
	}
	setString(&c.Lyrics.LRCLibURL, t.Lyrics.LRCLibURL)
	setString(&c.Lyrics.LyricsOvhURL, t.Lyrics.LyricsOvhURL)
	setString(&c.Lyrics.NetEaseURL, t.Lyrics.NetEaseURL)
	setPositiveDuration(&c.Lyrics.Timeout, t.Lyrics.Timeout, "lyrics.timeout")
	setNonNegative(&c.Lyrics.MinLines, t.Lyrics.MinLines)
	if t.Lyrics.Retries > 0 {
		c.Lyrics.Retries = t.Lyrics.Retries
	}

	// Translation
	setString(&c.Translation.MyMemoryURL, t.Translation.MyMemoryURL)
	setString(&c.Translation.LingvaURL, t.Translation.LingvaURL)
	setPositiveDuration(&c.Translation.Timeout, t.Translation.Timeout, "translation.timeout")
	setNonNegative(&c.Translation.ThrottleEvery, t.Translation.ThrottleEvery)
	setDuration(&c.Translation.ThrottleDelay, t.Translation.ThrottleDelay, "translation.throttle_delay")
	setDuration(&c.Translation.ParagraphDelay, t.Translation.ParagraphDelay, "translation.paragraph_delay")
	setNonNegative(&c.Translation.MaxLines, t.Translation.MaxLines)
	c.Translation.AIFallback = t.Translation.AIFallback
	setString(&c.Translation.SourceLanguage, t.Translation.SourceLanguage)

	// AI
	setString(&c.AI.ModuleName, t.AI.ModuleName)
	setString(&c.AI.APIKey, t.AI.APIKey)
	setString(&c.AI.BaseURL, t.AI.BaseURL)
	setString(&c.AI.Model, t.AI.Model)

	// Tencent
	setString(&c.Tencent.SecretID, t.Tencent.SecretID)
	setString(&c.Tencent.SecretKey, t.Tencent.SecretKey)
	setString(&c.Tencent.Region, t.Tencent.Region)

	// Cache
	if t.Cache.Capacity > 0 {
		c.Cache.Capacity = t.Cache.Capacity
	}
	setDuration(&c.Cache.TTL, t.Cache.TTL, "cache.ttl")

	// Redis
	c.Redis.Enabled = t.Redis.Enabled
	setString(&c.Redis.Addr, t.Redis.Addr)
	setString(&c.Redis.Password, t.Redis.Password)
	if t.Redis.DB != 0 {
		c.Redis.DB = t.Redis.DB
	}

	setString(&c.HTTP.Addr, t.HTTP.Addr)
	setString(&c.Player.Backend, t.Player.Backend)
	setString(&c.Player.MPRISService, t.Player.MPRISService)

	c.StatusBar.Enabled = t.StatusBar.Enabled
	setString(&c.StatusBar.Process, t.StatusBar.Process)
	if t.StatusBar.Signal > 0 {
		c.StatusBar.Signal = t.StatusBar.Signal
	}
	setPositiveDuration(&c.StatusBar.RefreshInterval, t.StatusBar.RefreshInterval, "statusbar.refresh_interval")
}

// applyEnv 环境变量中的密钥只在配置文件未设置时生效
func (c *Config) applyEnv() {
	if c.AI.APIKey == "" {
		switch strings.ToLower(c.AI.ModuleName) {
		case "gemini":
			c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.Tencent.SecretID == "" {
		c.Tencent.SecretID = os.Getenv("TENCENT_SECRET_ID")
	}
	if c.Tencent.SecretKey == "" {
		c.Tencent.SecretKey = os.Getenv("TENCENT_SECRET_KEY")
	}

	if c.Translation.AIFallback && c.AI.APIKey == "" {
		logger.Warn().Str("module", c.AI.ModuleName).Msg("AI fallback enabled but no API key configured, it will be skipped")
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNonNegative(dst *int, v *int) {
	if v != nil && *v >= 0 {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v, key string) {
	parseDuration(dst, v, key, false)
}

// setPositiveDuration 超时和轮询间隔不能为0
func setPositiveDuration(dst *time.Duration, v, key string) {
	parseDuration(dst, v, key, true)
}

func parseDuration(dst *time.Duration, v, key string, positive bool) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 || (positive && d == 0) {
		logger.Warn().Str("key", key).Str("value", v).Msg("Invalid duration, using default")
		return
	}
	*dst = d
}
