package handler

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"dealmint/internal/transport/bot/view"
	"dealmint/pkg/contextx"
	"dealmint/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

func (h *Handler) OnDealsCallback(ctx *th.Context, query telego.CallbackQuery) error {
	page := view.ParsePage(query.Data)

	deals, err := h.deals.ListDeals(ctx)
	if err != nil {
		_ = ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
			WithText(view.DealsError).WithShowAlert())
		return err
	}

	text, keyboard := view.DealsPage(deals, page)

	_, err = ctx.Bot().EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(query.Message.GetChat().ID),
		MessageID:   query.Message.GetMessageID(),
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		// Telegram отклоняет правку, которая не меняет сообщение.
		logger(ctx).Debug("bot.EditMessageText", logx.Error(err))
	}

	_ = ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID))

	return nil
}
