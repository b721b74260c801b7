package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Audio struct {
		SampleRate           int
		WindowSeconds        float64
		EnrollmentMinSeconds float64
	}
	Speakers struct {
		MatchThreshold float64
		// Assignments maps lowercase speaker names to player slots,
		// parsed from "alice:player1,bob:player2".
		Assignments map[string]string
	}
	Commands struct {
		Valid []string
	}
	Gemini struct {
		APIKey string
		Model  string
	}
	Embedding struct {
		ServiceURL string
	}
	Eleven struct {
		APIKey  string
		VoiceID string
	}
	Store struct {
		Path string
	}
	Auth struct {
		JWTSecret string
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.window_seconds", 1.5)
	v.SetDefault("audio.enrollment_min_seconds", 2.0)

	v.SetDefault("speakers.match_threshold", 0.70)
	v.SetDefault("commands.valid", "up,down,left,right")

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("embedding.service_url", "http://localhost:8001")
	v.SetDefault("store.path", "./data/profiles")

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("audio.sample_rate", "AUDIO_SAMPLE_RATE")
	v.BindEnv("audio.window_seconds", "AUDIO_WINDOW_SECONDS")
	v.BindEnv("audio.enrollment_min_seconds", "AUDIO_ENROLLMENT_MIN_SECONDS")

	v.BindEnv("speakers.match_threshold", "SPEAKER_MATCH_THRESHOLD")
	v.BindEnv("speakers.assignments", "SPEAKER_ASSIGNMENTS")
	v.BindEnv("commands.valid", "VALID_COMMANDS")

	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini.model", "GEMINI_MODEL")
	v.BindEnv("embedding.service_url", "EMBEDDING_SERVICE_URL")

	v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	v.BindEnv("elevenlabs.voice_id", "ELEVENLABS_VOICE_ID")

	v.BindEnv("store.path", "PROFILE_STORE_PATH")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	var c Config
	c.Server.Port = v.GetString("server.port")
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Audio.SampleRate = v.GetInt("audio.sample_rate")
	c.Audio.WindowSeconds = v.GetFloat64("audio.window_seconds")
	c.Audio.EnrollmentMinSeconds = v.GetFloat64("audio.enrollment_min_seconds")

	c.Speakers.MatchThreshold = v.GetFloat64("speakers.match_threshold")
	c.Speakers.Assignments = ParseAssignments(v.GetString("speakers.assignments"))
	c.Commands.Valid = splitList(v.GetString("commands.valid"))

	c.Gemini.APIKey = v.GetString("gemini.api_key")
	c.Gemini.Model = v.GetString("gemini.model")
	c.Embedding.ServiceURL = v.GetString("embedding.service_url")

	c.Eleven.APIKey = v.GetString("elevenlabs.api_key")
	c.Eleven.VoiceID = v.GetString("elevenlabs.voice_id")

	c.Store.Path = v.GetString("store.path")
	c.Auth.JWTSecret = v.GetString("auth.jwt_secret")

	return c
}

// ParseAssignments parses "alice:player1,bob:player2" into a lowercase
// speaker-to-player map. Malformed entries are skipped.
func ParseAssignments(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		speaker := strings.ToLower(strings.TrimSpace(parts[0]))
		player := strings.TrimSpace(parts[1])
		if speaker == "" || player == "" {
			continue
		}
		out[speaker] = player
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
