package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig содержит настройки терминального клиента ассистента
type ClientConfig struct {
	GatewayURL     string
	VoiceID        string
	RequestTimeout time.Duration
	Audio          AudioInputConfig
}

// AudioInputConfig описывает устройство захвата звука для ffmpeg
type AudioInputConfig struct {
	Format           string // pulse, alsa, avfoundation, dshow
	Device           string
	EchoCancelSource string // источник с подавлением эха (pulse module-echo-cancel)
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
	FFmpegPath       string
	FFplayPath       string
}

// LoadClient загружает конфигурацию клиента. Ключ провайдера клиенту не нужен.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{
		GatewayURL:     getEnvDefault("GATEWAY_URL", "http://localhost:8080"),
		VoiceID:        os.Getenv("VOICE_ID"),
		RequestTimeout: getEnvDurationDefault("REQUEST_TIMEOUT", 60*time.Second),
		Audio: AudioInputConfig{
			Format:           getEnvDefault("AUDIO_INPUT_FORMAT", "pulse"),
			Device:           getEnvDefault("AUDIO_INPUT_DEVICE", "default"),
			EchoCancelSource: os.Getenv("ECHO_CANCEL_SOURCE"),
			EchoCancellation: getEnvBoolDefault("AUDIO_ECHO_CANCELLATION", true),
			NoiseSuppression: getEnvBoolDefault("AUDIO_NOISE_SUPPRESSION", true),
			AutoGainControl:  getEnvBoolDefault("AUDIO_AUTO_GAIN", true),
			FFmpegPath:       getEnvDefault("FFMPEG_PATH", "ffmpeg"),
			FFplayPath:       getEnvDefault("FFPLAY_PATH", "ffplay"),
		},
	}

	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("GATEWAY_URL не установлен")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT должен быть положительным")
	}

	return cfg, nil
}
