package handler

import (
	th "github.com/mymmrac/telego/telegohandler"

	"dealmint/internal/transport/bot/middleware"
	"dealmint/internal/transport/bot/view"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	adminGroup := bh.Group(th.AnyMessage())
	adminGroup.Use(middleware.AdminOnly(adminID))

	adminGroup.HandleMessage(h.OnStart, th.CommandEqual("start"))
	adminGroup.HandleMessage(h.OnStatus, th.CommandEqual("status"))
	adminGroup.HandleMessage(h.OnDeals, th.CommandEqual("deals"))
	adminGroup.HandleMessage(h.OnDeal, th.CommandEqual("deal"))
	adminGroup.HandleMessage(h.OnStartSweep, th.CommandEqual("startsweep"))
	adminGroup.HandleMessage(h.OnStopSweep, th.CommandEqual("stopsweep"))

	cbGroup := bh.Group(th.AnyCallbackQuery())
	cbGroup.Use(middleware.AdminOnly(adminID))

	cbGroup.HandleCallbackQuery(h.OnDealsCallback, th.CallbackDataPrefix(view.DealsPagePrefix))
}
