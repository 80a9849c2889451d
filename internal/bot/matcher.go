package bot

import (
	"fmt"
	"strings"

	"chatbot-service/internal/model"
)

// menuPreviewLength bounds the per-rule response preview in the menu.
const menuPreviewLength = 50

// greetings is the canonical command set that triggers the menu
// instead of keyword matching.
var greetings = map[string]struct{}{
	"hi":       {},
	"hello":    {},
	"start":    {},
	"help":     {},
	"menu":     {},
	"commands": {},
}

// Match decides the reply for an inbound message. Rules must already
// be in creation order; the first rule whose keyword is a
// case-insensitive substring of the message wins, and the bot's
// fallback message covers the rest. A greeting produces the command
// menu regardless of rule contents. Pure function, no I/O.
func Match(b *model.Bot, rules []model.Rule, message string) string {
	trimmed := strings.TrimSpace(message)
	lowered := strings.ToLower(trimmed)

	if _, ok := greetings[lowered]; ok {
		return Menu(b, rules)
	}

	for _, rule := range rules {
		if strings.Contains(lowered, strings.ToLower(rule.Keyword)) {
			return rule.Response
		}
	}

	return b.FallbackMessage
}

// Menu lists every configured rule with a bounded response preview.
func Menu(b *model.Bot, rules []model.Rule) string {
	if len(rules) == 0 {
		return fmt.Sprintf("Welcome to %s!\n\nNo commands configured yet. Send any message to interact with the bot.", b.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available commands for %s:\n\n", b.Name)
	for _, rule := range rules {
		fmt.Fprintf(&sb, "• %s: %s\n", rule.Keyword, preview(rule.Response))
	}
	sb.WriteString("\nType any keyword to get started.")
	return sb.String()
}

func preview(response string) string {
	runes := []rune(response)
	if len(runes) <= menuPreviewLength {
		return response
	}
	return string(runes[:menuPreviewLength]) + "..."
}
