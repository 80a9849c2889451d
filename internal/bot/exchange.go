package bot

import (
	"strings"

	"gorm.io/gorm"

	"chatbot-service/internal/model"
)

// Exchange records an inbound message, matches it against the bot's
// rules and records the reply, all inside one transaction. Every
// matched inbound message therefore produces exactly two log rows,
// incoming before outgoing, and the rule read cannot interleave with a
// concurrent rule mutation. Returns the reply text.
//
// Delivery is decoupled on purpose: a failed send afterwards does not
// unwind the log rows.
func Exchange(db *gorm.DB, b *model.Bot, sender, message string) (string, error) {
	message = strings.TrimSpace(message)

	var reply string
	err := db.Transaction(func(tx *gorm.DB) error {
		incoming := model.MessageLog{
			BotID:     b.ID,
			Sender:    sender,
			Direction: model.DirectionIncoming,
			Message:   message,
		}
		if err := tx.Create(&incoming).Error; err != nil {
			return err
		}

		var rules []model.Rule
		if err := tx.Where("bot_id = ?", b.ID).Order("id ASC").Find(&rules).Error; err != nil {
			return err
		}

		reply = Match(b, rules, message)

		outgoing := model.MessageLog{
			BotID:     b.ID,
			Sender:    sender,
			Direction: model.DirectionOutgoing,
			Message:   reply,
		}
		return tx.Create(&outgoing).Error
	})
	if err != nil {
		return "", err
	}

	return reply, nil
}
