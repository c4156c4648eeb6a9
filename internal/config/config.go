package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	LogLevel    string
	CardsFile   string
	SettleDelay time.Duration
	PublicURL   string
	HostUser    string
	HostPass    string
	Seed        int64
	StaticDir   string

	ExportEnabled bool
	ExportFile    string

	RateLimit float64
	RateBurst int

	ScenarioProvider string
	ScenarioModel    string
	ScenarioCount    int
	OpenAIKey        string
	OpenAIBaseURL    string
	OllamaHost       string
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "4000")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.CardsFile = os.Getenv("CARDS_FILE")
	c.SettleDelay = getduration("SETTLE_DELAY", 5*time.Second)
	c.PublicURL = getenv("PUBLIC_URL", "http://localhost:"+c.Port)
	c.HostUser = os.Getenv("HOST_USER")
	c.HostPass = os.Getenv("HOST_PASS")
	c.Seed = int64(getint("SEED", 0))
	c.StaticDir = os.Getenv("STATIC_DIR")
	c.ExportEnabled = getenv("EXPORT_ENABLED", "false") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./worstcase-results.txt")
	c.RateLimit = getfloat("RATE_LIMIT", 10)
	c.RateBurst = getint("RATE_BURST", 20)
	c.ScenarioProvider = os.Getenv("SCENARIO_PROVIDER")
	c.ScenarioModel = getenv("SCENARIO_MODEL", "gpt-3.5-turbo")
	c.ScenarioCount = getint("SCENARIO_COUNT", 20)
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.OllamaHost = getenv("OLLAMA_HOST", "http://localhost:11434")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}
