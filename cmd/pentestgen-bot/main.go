package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
	"github.com/mdrews/pentestgen/internal/adapter/slackbot"
	"github.com/mdrews/pentestgen/internal/app"
	"github.com/mdrews/pentestgen/internal/config"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

func main() {
	if err := run(); err != nil {
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "pentestgen",
		EnvPrefix:   "PENTESTGEN",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Slack.BotToken == "" || cfg.Slack.AppToken == "" {
		return fmt.Errorf("slack tokens missing (set PENTESTGEN_SLACK_BOTTOKEN and PENTESTGEN_SLACK_APPTOKEN)")
	}
	if !strings.HasPrefix(cfg.Slack.AppToken, "xapp-") {
		return fmt.Errorf("slack app token must start with xapp-")
	}

	obs := app.BuildObservability(cfg.Observability)

	completer, _, err := app.BuildProvider(cfg.Generator.Provider, cfg, obs)
	if err != nil {
		return err
	}

	builder, err := generate.NewPromptBuilder()
	if err != nil {
		return err
	}

	var genLogger generate.Logger
	if obs.Logger != nil {
		genLogger = obs.Logger
	}

	synth := generate.NewSynthesizer(generate.SynthesizerDeps{
		Completer:   completer,
		Builder:     builder,
		Logger:      genLogger,
		Temperature: cfg.Generator.Temperature,
		MaxTokens:   cfg.Generator.MaxTokens,
	})

	api := slack.New(cfg.Slack.BotToken, slack.OptionAppLevelToken(cfg.Slack.AppToken))
	socket := socketmode.New(api)

	bot := slackbot.New(socket, api, synth, obs.Logger, slackbot.Options{
		DefaultCount: cfg.Slack.DefaultCount,
		MaxCount:     cfg.Slack.MaxCount,
	})

	if cfg.Slack.Reminder.Enabled {
		reminder := slackbot.NewReminder(api, obs.Logger, cfg.Slack.Reminder.Schedule, cfg.Slack.Reminder.ChatURL)
		if err := reminder.Start(ctx); err != nil {
			return err
		}
		defer reminder.Stop()
	}

	log.Println("listening for /query commands")
	return bot.Run(ctx)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pentestgen"))
	}
	return paths
}
