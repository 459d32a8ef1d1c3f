package handler

import (
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"dealmint/internal/domain"
	"dealmint/internal/transport/bot/view"
	"dealmint/pkg/errcodes"
	"dealmint/pkg/logx"
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	deals, err := h.deals.ListDeals(ctx)
	if err != nil {
		logger(ctx).Error("deals.ListDeals", logx.Error(err))
		return h.sendHTML(ctx, msg.Chat.ID, view.DealsError)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Status(deals, h.sweeper.IsRunning()))
}

func (h *Handler) OnDeals(ctx *th.Context, msg telego.Message) error {
	deals, err := h.deals.ListDeals(ctx)
	if err != nil {
		logger(ctx).Error("deals.ListDeals", logx.Error(err))
		return h.sendHTML(ctx, msg.Chat.ID, view.DealsError)
	}

	if len(deals) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, view.DealsEmpty)
	}

	text, keyboard := view.DealsPage(deals, 1)

	_, err = ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:      telego.ChatID{ID: msg.Chat.ID},
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: keyboard,
	})
	return err
}

// OnDeal показывает сделку с платежами и расчётом.
// Пример: /deal enterprise-deal
func (h *Handler) OnDeal(ctx *th.Context, msg telego.Message) error {
	args := strings.Fields(msg.Text)
	if len(args) < 2 {
		return h.sendHTML(ctx, msg.Chat.ID, view.DealMissingArgument)
	}

	details, err := h.deals.GetDealDetails(ctx, args[1])
	if err != nil {
		if domain.HasCode(err, errcodes.DealNotFound) {
			return h.sendHTML(ctx, msg.Chat.ID, view.DealNotFound(args[1]))
		}

		logger(ctx).Error("deals.GetDealDetails", logx.Error(err))
		return h.sendHTML(ctx, msg.Chat.ID, view.DealsError)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.DealDetails(*details))
}

func (h *Handler) OnStartSweep(ctx *th.Context, msg telego.Message) error {
	if h.sweeper.IsRunning() {
		return h.sendHTML(ctx, msg.Chat.ID, view.SweeperAlreadyRunning)
	}

	if err := h.sweeper.Start(h.sweepCtx); err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.SweeperStartFailed(err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.SweeperStarted)
}

func (h *Handler) OnStopSweep(ctx *th.Context, msg telego.Message) error {
	if !h.sweeper.IsRunning() {
		return h.sendHTML(ctx, msg.Chat.ID, view.SweeperNotRunning)
	}

	h.sweeper.Stop()

	return h.sendHTML(ctx, msg.Chat.ID, view.SweeperStopped)
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}
