package bot

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"chatbot-service/internal/model"
	"chatbot-service/pkg/config"
)

// Resolution failures. The webhook handler notifies the sender and
// still acknowledges the provider with 200.
var (
	// ErrNoTenant means no registered user matches the sender address.
	ErrNoTenant = errors.New("no tenant registered for sender")
	// ErrNoActiveBot means the tenant exists but has no active bot.
	ErrNoActiveBot = errors.New("no active bot")
)

// Resolved is the owning tenant and bot for an inbound message.
type Resolved struct {
	Bot    model.Bot
	Tenant model.User
}

// Resolver maps an inbound sender address to a tenant and bot
// according to the configured routing mode.
type Resolver struct {
	db   *gorm.DB
	mode config.RoutingMode
}

// NewResolver creates a resolver bound to a database handle and
// routing mode.
func NewResolver(db *gorm.DB, mode config.RoutingMode) *Resolver {
	return &Resolver{db: db, mode: mode}
}

// Resolve finds the bot that owns the conversation with sender.
func (r *Resolver) Resolve(sender string) (*Resolved, error) {
	if r.mode == config.RoutingPerTenant {
		return r.resolvePerTenant(sender)
	}
	return r.resolveSingleTenant()
}

// ResolvePerTenant forces per-tenant routing regardless of the
// configured mode. The cloud-messaging webhook always routes by
// sender address.
func (r *Resolver) ResolvePerTenant(sender string) (*Resolved, error) {
	return r.resolvePerTenant(sender)
}

// resolveSingleTenant returns the first active bot in the system.
// Explicit id ordering replaces the table-scan order the behavior used
// to depend on.
func (r *Resolver) resolveSingleTenant() (*Resolved, error) {
	var b model.Bot
	if err := r.db.Where("active = ?", true).Order("id ASC").First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveBot
		}
		return nil, err
	}

	var owner model.User
	if err := r.db.First(&owner, b.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoTenant
		}
		return nil, err
	}

	return &Resolved{Bot: b, Tenant: owner}, nil
}

// resolvePerTenant looks up the tenant whose registered phone number
// matches the sender address. On ErrNoActiveBot the returned result
// still carries the tenant, so the caller can notify the sender using
// the tenant's own credentials.
func (r *Resolver) resolvePerTenant(sender string) (*Resolved, error) {
	number := NormalizeSender(sender)

	var tenant model.User
	if err := r.db.Where("phone_number = ?", number).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoTenant
		}
		return nil, err
	}

	var b model.Bot
	if err := r.db.Where("user_id = ? AND active = ?", tenant.ID, true).Order("id ASC").First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Resolved{Tenant: tenant}, ErrNoActiveBot
		}
		return nil, err
	}

	return &Resolved{Bot: b, Tenant: tenant}, nil
}

// NormalizeSender strips the provider address prefix so Twilio-style
// "whatsapp:+123" and Cloud API "123" senders compare equal.
func NormalizeSender(sender string) string {
	return strings.TrimPrefix(sender, "whatsapp:")
}
