package delivery

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// OpsChannel pushes operator-facing notices (global alerts, cycle failures)
// to an admin Telegram chat. It sits outside the email/SMS fallback chains:
// operator notices have exactly one destination. When no bot is configured
// the channel degrades to log-only.
type OpsChannel struct {
	bot    *telebot.Bot
	chatID int64
	log    *logrus.Logger
}

func NewOpsChannel(bot *telebot.Bot, chatID int64, log *logrus.Logger) *OpsChannel {
	return &OpsChannel{bot: bot, chatID: chatID, log: log}
}

// Notify sends text to the admin chat, or logs it when the channel is not
// configured. Delivery failures are logged, never propagated: an ops notice
// must not fail the cycle it reports on.
func (o *OpsChannel) Notify(text string) {
	if o == nil || o.bot == nil || o.chatID == 0 {
		o.logOnly(text)
		return
	}
	if _, err := o.bot.Send(&telebot.User{ID: o.chatID}, text); err != nil {
		o.log.Errorf("ops channel: failed to send notice: %v", err)
		o.logOnly(text)
	}
}

func (o *OpsChannel) logOnly(text string) {
	if o == nil || o.log == nil {
		return
	}
	o.log.Warnf("ops notice: %s", text)
}
