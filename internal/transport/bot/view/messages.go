package view

import (
	"fmt"
	"html"
)

const (
	StartMessage = "👋 <b>DealMint ops</b>\n\n" +
		"/deals - recent deals\n" +
		"/deal <code>slug</code> - deal details\n" +
		"/status - totals by status and sweeper state\n" +
		"/startsweep, /stopsweep - settlement sweeper control"

	DealsError          = "❌ Failed to load deals"
	DealsEmpty          = "📭 No deals yet"
	DealMissingArgument = "❌ Usage: /deal <code>slug</code>"

	SweeperAlreadyRunning = "Sweeper is already running!"
	SweeperNotRunning     = "Sweeper is not running!"
	SweeperStarted        = "Sweeper started!"
	SweeperStopped        = "Sweeper stopped!"

	DealsPagePrefix = "deals_page"

	dealsHeaderTemplate   = "📚 <b>Deals</b> (page %d/%d)\n\n"
	dealItemTemplate      = "• <b>%s</b> <code>%s</code>\n   %s USD · %s\n"
	dealNotFoundTemplate  = "⚠️ Deal <code>%s</code> not found"
	sweeperFailedTemplate = "Failed to start sweeper: %s"
)

func DealNotFound(slug string) string {
	return fmt.Sprintf(dealNotFoundTemplate, html.EscapeString(slug))
}

func SweeperStartFailed(err error) string {
	return fmt.Sprintf(sweeperFailedTemplate, html.EscapeString(err.Error()))
}
