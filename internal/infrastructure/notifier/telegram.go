package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"dealmint/internal/domain/entity"
	"dealmint/pkg/contextx"
	"dealmint/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Telegram posts deal lifecycle events to a single chat through the Bot API.
type Telegram struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("telego.NewBot: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *Telegram) DealPaid(ctx context.Context, deal entity.Deal, payment entity.Payment) error {
	logger(ctx).Debug("notify deal paid", slog.String(logx.FieldDealID, deal.ID.String()))

	return t.sendHTML(ctx, PaidMessage(deal, payment))
}

func (t *Telegram) DealSettled(ctx context.Context, deal entity.Deal, settlement entity.Settlement) error {
	logger(ctx).Debug("notify deal settled", slog.String(logx.FieldDealID, deal.ID.String()))

	return t.sendHTML(ctx, SettledMessage(deal, settlement))
}

func (t *Telegram) sendHTML(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(t.chatID), text).WithParseMode(telego.ModeHTML)

	if _, err := t.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("bot.SendMessage: %w", err)
	}

	return nil
}

func PaidMessage(deal entity.Deal, payment entity.Payment) string {
	return fmt.Sprintf(
		"💸 <b>Deal paid</b>\n\n"+
			"📦 <b>Deal:</b> %s (<code>%s</code>)\n"+
			"💰 <b>Amount:</b> %s %s\n"+
			"🌐 <b>Network:</b> %s\n\n"+
			"🔗 <a href=\"%s\">View transaction</a>",
		html.EscapeString(deal.Title),
		html.EscapeString(deal.Slug),
		payment.Amount.StringFixed(2),
		html.EscapeString(payment.Token),
		html.EscapeString(payment.Network),
		html.EscapeString(payment.ExplorerURL),
	)
}

func SettledMessage(deal entity.Deal, settlement entity.Settlement) string {
	text := fmt.Sprintf(
		"✅ <b>Deal settled</b>\n\n"+
			"📦 <b>Deal:</b> %s (<code>%s</code>)\n"+
			"🌉 <b>Route:</b> %s → %s (%s)\n"+
			"🧾 <b>Intent:</b> <code>%s</code>",
		html.EscapeString(deal.Title),
		html.EscapeString(deal.Slug),
		html.EscapeString(settlement.SourceNetwork),
		html.EscapeString(settlement.DestNetwork),
		html.EscapeString(settlement.DestToken),
		html.EscapeString(settlement.IntentID),
	)

	if receipt := settlement.Detail.ExecutionReceipt; receipt != nil && receipt.ExecutionTxHash != "" {
		text += fmt.Sprintf("\n⛓ <b>Execution tx:</b> <code>%s</code>", receipt.ExecutionTxHash)
	}

	return text
}
