package services

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"
)

// NotificationService sends due-verification reminders over Telegram.
// Without a configured bot token the service stays disabled and every send
// is a logged no-op.
type NotificationService struct {
	db     *gorm.DB
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotificationService creates a NotificationService. An empty token
// disables dispatching.
func NewNotificationService(db *gorm.DB, botToken string, chatID int64) *NotificationService {
	ns := &NotificationService{db: db, chatID: chatID}
	if botToken == "" {
		return ns
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("⚠️  Telegram bot unavailable, reminders disabled: %v", err)
		return ns
	}
	ns.bot = bot
	log.Printf("✅ Telegram reminders enabled (bot: %s)", bot.Self.UserName)
	return ns
}

// Enabled reports whether reminders can actually be dispatched.
func (ns *NotificationService) Enabled() bool {
	return ns.bot != nil && ns.chatID != 0
}

// NotifyDueVerifications sends one message listing every device overdue or
// due within horizonDays. No due device means no message.
func (ns *NotificationService) NotifyDueVerifications(horizonDays int) error {
	devices, err := NewDeviceService(ns.db).GetDevicesNeedingVerification(horizonDays)
	if err != nil {
		return fmt.Errorf("unable to collect due devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Verifications due within %d days:\n", horizonDays)
	for _, d := range devices {
		customer := ""
		if d.Customer != nil {
			customer = d.Customer.Name
		}
		due := ""
		if d.NextVerificationDate != nil {
			due = *d.NextVerificationDate
		}
		fmt.Fprintf(&b, "- %s (S/N %s, %s): due %s\n", d.Description, d.SerialNumber, customer, due)
	}

	if !ns.Enabled() {
		log.Printf("Telegram disabled, reminder not sent:\n%s", b.String())
		return nil
	}

	msg := tgbotapi.NewMessage(ns.chatID, b.String())
	if _, err := ns.bot.Send(msg); err != nil {
		return fmt.Errorf("unable to send reminder: %w", err)
	}
	log.Printf("Reminder sent for %d due devices", len(devices))
	return nil
}
