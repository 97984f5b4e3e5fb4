package main

import (
	"context"
	"os"
	"strings"
	"time"

	"invoice-intake-be/internal/config"
	"invoice-intake-be/pkg/telegram"

	"github.com/fatih/color"
)

// Registers TELEGRAM_WEBHOOK_URL with the bot and prints the resulting
// webhook state. Pass "info" to only print the state.
func main() {
	cfg := config.Load()
	if cfg.Telegram.BotToken == "" {
		color.Red("TELEGRAM_BOT_TOKEN is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)
	infoOnly := len(os.Args) > 1 && os.Args[1] == "info"

	if !infoOnly {
		url := strings.TrimSpace(cfg.Telegram.WebhookURL)
		if url == "" {
			color.Red("TELEGRAM_WEBHOOK_URL is not set")
			os.Exit(1)
		}
		if !strings.HasSuffix(url, "/webhook") {
			url = strings.TrimSuffix(url, "/") + "/webhook"
		}

		color.Yellow("Setting webhook to %s", url)
		if cfg.Telegram.WebhookSecret == "" {
			color.Yellow("Warning: TELEGRAM_WEBHOOK_SECRET is empty, requests will not be authenticated")
		}
		if err := client.SetWebhook(ctx, url, cfg.Telegram.WebhookSecret, true); err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Webhook registered")
	}

	info, err := client.GetWebhookInfo(ctx)
	if err != nil {
		color.Red("Failed to read webhook info: %v", err)
		os.Exit(1)
	}

	color.Cyan("URL:              %s", info.URL)
	color.Cyan("Pending updates:  %d", info.PendingUpdateCount)
	if info.LastErrorMessage != "" {
		color.Red("Last error:       %s (%s)", info.LastErrorMessage, time.Unix(info.LastErrorDate, 0).Format(time.RFC3339))
	}
}
