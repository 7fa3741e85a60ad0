package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"voice-assistant/internal/audio"
	"voice-assistant/internal/client"
	"voice-assistant/internal/config"
	"voice-assistant/internal/orchestrator"
	"voice-assistant/internal/recorder"
	"voice-assistant/pkg/models"

	"go.uber.org/zap"
)

func main() {
	var (
		gatewayURL = flag.String("gateway", "", "Адрес голосового шлюза (по умолчанию GATEWAY_URL)")
		voiceID    = flag.String("voice", "", "Идентификатор голоса (по умолчанию VOICE_ID)")
		listVoices = flag.Bool("voices", false, "Вывести доступные голоса и выйти")
		inputFile  = flag.String("input", "", "Использовать аудиофайл вместо микрофона")
		verbose    = flag.Bool("v", false, "Подробные логи")
	)
	flag.Parse()

	logger, err := initLogger(*verbose)
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadClient()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}
	if *gatewayURL != "" {
		cfg.GatewayURL = *gatewayURL
	}
	if *voiceID != "" {
		cfg.VoiceID = *voiceID
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gw := client.New(cfg.GatewayURL, cfg.RequestTimeout, logger)

	if *listVoices {
		if err := printVoices(ctx, gw); err != nil {
			logger.Fatal("ошибка получения голосов", zap.Error(err))
		}
		return
	}

	var device audio.Device = audio.NewFFmpegDevice(cfg.Audio, logger)
	if *inputFile != "" {
		device = audio.FileDevice{Path: *inputFile}
	}

	constraints := audio.Constraints{
		EchoCancellation: cfg.Audio.EchoCancellation,
		NoiseSuppression: cfg.Audio.NoiseSuppression,
		AutoGainControl:  cfg.Audio.AutoGainControl,
	}
	rec := recorder.NewController(device, constraints, logger)
	// Устройство освобождается при любом выходе
	defer rec.Close()

	player := audio.NewFFplayPlayer(cfg.Audio.FFplayPath, logger)
	orch := orchestrator.New(gw, rec, player, cfg.VoiceID, logger)

	printed := 0
	orch.OnStateChange(func(s orchestrator.State) {
		fmt.Printf("[%s]\n", s)
		if s == orchestrator.StatePlaying || s == orchestrator.StateIdle {
			printed = printMessages(orch.Messages(), printed)
		}
	})

	fmt.Println("Enter: начать/остановить запись, q: выход")
	runLoop(ctx, orch)
}

// runLoop читает команды из stdin до выхода или отмены ctx
func runLoop(ctx context.Context, orch *orchestrator.Orchestrator) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || line == "q" {
				return
			}

			switch orch.State() {
			case orchestrator.StateIdle:
				orch.DismissError()
				if err := orch.StartRecording(ctx); err != nil {
					fmt.Printf("⚠️  %s\n", orch.Error())
					continue
				}
				fmt.Println("🎙  запись... Enter для остановки")
			case orchestrator.StateRecording:
				if err := orch.StopAndProcess(ctx); err != nil {
					fmt.Printf("⚠️  %s\n", orch.Error())
				}
			}
		}
	}
}

func printMessages(msgs []models.Message, from int) int {
	for _, m := range msgs[from:] {
		who := "Вы"
		if m.Role == models.RoleAssistant {
			who = "Ассистент"
		}
		fmt.Printf("%s %s: %s\n", m.Timestamp.Format("15:04:05"), who, m.Text)
	}
	return len(msgs)
}

func printVoices(ctx context.Context, gw *client.Client) error {
	resp, err := gw.Voices(ctx)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}

	for _, v := range resp.Voices {
		fmt.Printf("%s\t%s\t%s\n", v.VoiceID, v.Name, v.Category)
	}
	return nil
}

func initLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}
