package model

import "time"

// Message directions
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// MessageLog is an append-only record of one side of an exchange.
// Rows are never updated; they only disappear through a bot cascade
// delete.
type MessageLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BotID     uint      `json:"bot_id" gorm:"index;not null"`
	Sender    string    `json:"sender" gorm:"type:varchar(100);not null"`
	Direction string    `json:"direction" gorm:"type:varchar(20);not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"autoCreateTime"`
}
