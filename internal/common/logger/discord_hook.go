package logger

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/terminus-adherence/internal/common/discord"
)

type alertSender interface {
	SendLogMessage(level, message string, fields map[string]interface{}) error
}

// DiscordHook forwards error and fatal entries to a Discord webhook
type DiscordHook struct {
	client alertSender
}

func NewDiscordHook(client *discord.Client) *DiscordHook {
	return &DiscordHook{client: client}
}

func (h *DiscordHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.ErrorLevel || level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}
	// Delivery failures are dropped; logging them here would recurse into the hook.
	_ = h.client.SendLogMessage(strings.ToUpper(level.String()), msg, nil)
}
