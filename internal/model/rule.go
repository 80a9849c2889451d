package model

// Rule is a keyword/response pair. Rules are evaluated in creation
// order, which is the id order; reads must keep ORDER BY id ASC and
// apply no secondary sort.
type Rule struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	BotID    uint   `json:"bot_id" gorm:"index;not null"`
	Keyword  string `json:"keyword" gorm:"type:varchar(200);not null"`
	Response string `json:"response" gorm:"type:text;not null"`
}
