// Package config loads runtime configuration from the environment (secrets,
// via a .env file) and an optional JSON tuning file: an env-var idiom for
// secrets/provider selection, and a defaultTuning()-plus-overlay pattern
// for everything else.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Secrets holds API keys and tokens, loaded from the environment (and a
// .env file, if present).
type Secrets struct {
	GroqAPIKey         string
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	GoogleAPIKey       string
	DeepgramAPIKey     string
	AssemblyAIAPIKey   string
	LokutorAPIKey      string
	OpenWeatherMapKey  string
	HomeAssistantToken string
	AdminBearerToken   string
}

// Tuning holds everything else: listen addresses, thresholds, file paths,
// and provider selection strings. Overridable via an optional JSON file.
type Tuning struct {
	ListenAddr       string        `json:"listen_addr"`
	HTTPAddr         string        `json:"http_addr"`
	VADThreshold     float64       `json:"vad_threshold"`
	VADTimeout       time.Duration `json:"-"`
	VADTimeoutMillis int64         `json:"vad_timeout_ms"`
	HADigestTTL      time.Duration `json:"-"`
	HADigestTTLSecs  int64         `json:"ha_digest_ttl_seconds"`

	KnowledgePath string `json:"knowledge_path"`
	BehaviorPath  string `json:"behavior_path"`

	STTProvider string `json:"stt_provider"`
	LLMProvider string `json:"llm_provider"`
	TTSProvider string `json:"tts_provider"`

	GroqSTTModel      string `json:"groq_stt_model"`
	OpenAISTTModel    string `json:"openai_stt_model"`
	AnthropicLLMModel string `json:"anthropic_llm_model"`
	OpenAILLMModel    string `json:"openai_llm_model"`
	GoogleLLMModel    string `json:"google_llm_model"`
	LokutorVoice      string `json:"lokutor_voice"`
	LokutorLanguage   string `json:"lokutor_language"`

	CloseChannelPhrase string `json:"close_channel_phrase"`
	DefaultWeatherCity string `json:"default_weather_city"`
	SearchResultLimit  int    `json:"search_result_limit"`
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Secrets
	Tuning
}

// defaultTuning returns the built-in tuning values, overridden by an
// optional JSON file and then by env vars for the handful of settings the
// teacher also exposes as env vars (e.g. VAD threshold).
func defaultTuning() Tuning {
	return Tuning{
		ListenAddr:         "0.0.0.0:10400",
		HTTPAddr:           "0.0.0.0:8080",
		VADThreshold:       0.02,
		VADTimeoutMillis:   700,
		HADigestTTLSecs:    30,
		KnowledgePath:      "knowledge.txt",
		BehaviorPath:       "behaviour.json",
		STTProvider:        "groq",
		LLMProvider:        "groq",
		TTSProvider:        "lokutor",
		GroqSTTModel:       "whisper-large-v3-turbo",
		OpenAISTTModel:     "whisper-1",
		AnthropicLLMModel:  "claude-3-5-sonnet-20240620",
		OpenAILLMModel:     "gpt-4o",
		GoogleLLMModel:     "gemini-1.5-flash",
		LokutorVoice:       "ava",
		LokutorLanguage:    "en",
		CloseChannelPhrase: "finish conversation",
		DefaultWeatherCity: "",
		SearchResultLimit:  5,
	}
}

// Load reads a .env file (if present), environment secrets, and an optional
// JSON tuning file at tuningPath (empty means "./config.json"; a missing
// file is not an error — tuning falls back to defaults).
func Load(tuningPath string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Secrets: Secrets{
			GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
			OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
			AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
			DeepgramAPIKey:     os.Getenv("DEEPGRAM_API_KEY"),
			AssemblyAIAPIKey:   os.Getenv("ASSEMBLYAI_API_KEY"),
			LokutorAPIKey:      os.Getenv("LOKUTOR_API_KEY"),
			OpenWeatherMapKey:  os.Getenv("OPENWEATHERMAP_API_KEY"),
			HomeAssistantToken: os.Getenv("HOME_ASSISTANT_TOKEN"),
			AdminBearerToken:   os.Getenv("ADMIN_BEARER_TOKEN"),
		},
		Tuning: defaultTuning(),
	}

	if tuningPath == "" {
		tuningPath = "config.json"
	}
	if err := overlayTuning(&cfg.Tuning, tuningPath); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("STT_PROVIDER"); v != "" {
		cfg.STTProvider = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = v
	}
	if v := os.Getenv("TTS_PROVIDER"); v != "" {
		cfg.TTSProvider = v
	}
	if v := os.Getenv("VAD_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.VADThreshold = f
		}
	}

	cfg.VADTimeout = time.Duration(cfg.VADTimeoutMillis) * time.Millisecond
	cfg.HADigestTTL = time.Duration(cfg.HADigestTTLSecs) * time.Second

	return cfg, nil
}

// overlayTuning merges a JSON file at path onto t's already-populated
// defaults; a missing file is a no-op, any other read or parse error is
// returned.
func overlayTuning(t *Tuning, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, t)
}
