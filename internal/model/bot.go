package model

// Bot is a named rule-response configuration belonging to a tenant.
type Bot struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	UserID          uint   `json:"user_id" gorm:"index;not null"`
	Name            string `json:"name" gorm:"type:varchar(100);not null"`
	FallbackMessage string `json:"fallback_message" gorm:"type:text;not null;default:'Sorry, I did not understand that.'"`
	Active          bool   `json:"active" gorm:"default:true"`

	Rules       []Rule       `json:"rules,omitempty" gorm:"foreignKey:BotID;constraint:OnDelete:CASCADE"`
	MessageLogs []MessageLog `json:"-" gorm:"foreignKey:BotID;constraint:OnDelete:CASCADE"`
}
