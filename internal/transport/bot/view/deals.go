package view

import (
	"fmt"
	"html"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"dealmint/internal/domain/entity"
	"dealmint/internal/domain/value"
)

const PageSize = 10

var statusOrder = []value.DealStatus{ //nolint:gochecknoglobals
	value.DealStatusCreated,
	value.DealStatusNegotiated,
	value.DealStatusPaid,
	value.DealStatusSettling,
	value.DealStatusSettled,
	value.DealStatusFailed,
}

// ParsePage читает номер страницы из callback data "deals_page:<n>",
// по умолчанию первая страница.
func ParsePage(data string) int {
	var page int
	if _, err := fmt.Sscanf(data, DealsPagePrefix+":%d", &page); err != nil || page < 1 {
		return 1
	}
	return page
}

// Paginate ограничивает номер страницы и возвращает границы среза.
func Paginate(total, page int) (start, end, current, pages int) {
	pages = (total + PageSize - 1) / PageSize
	if pages < 1 {
		pages = 1
	}

	current = min(max(page, 1), pages)

	start = min((current-1)*PageSize, total)
	end = min(start+PageSize, total)

	return start, end, current, pages
}

func DealsPage(deals []entity.Deal, page int) (string, *telego.InlineKeyboardMarkup) {
	start, end, current, pages := Paginate(len(deals), page)

	var sb strings.Builder
	fmt.Fprintf(&sb, dealsHeaderTemplate, current, pages)

	for _, deal := range deals[start:end] {
		fmt.Fprintf(&sb, dealItemTemplate,
			html.EscapeString(deal.Title),
			html.EscapeString(deal.Slug),
			deal.Amount.StringFixed(2),
			deal.Status,
		)
	}

	return sb.String(), paginationKeyboard(current, pages)
}

func paginationKeyboard(page, pages int) *telego.InlineKeyboardMarkup {
	var buttons []telego.InlineKeyboardButton

	if page > 1 {
		buttons = append(buttons, tu.InlineKeyboardButton("⬅️").
			WithCallbackData(fmt.Sprintf("%s:%d", DealsPagePrefix, page-1)))
	}

	buttons = append(buttons, tu.InlineKeyboardButton(fmt.Sprintf("%d / %d", page, pages)).
		WithCallbackData("noop"))

	if page < pages {
		buttons = append(buttons, tu.InlineKeyboardButton("➡️").
			WithCallbackData(fmt.Sprintf("%s:%d", DealsPagePrefix, page+1)))
	}

	return tu.InlineKeyboard(tu.InlineKeyboardRow(buttons...))
}

func DealDetails(details entity.DealDetails) string {
	deal := details.Deal

	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 <b>%s</b>\n\n", html.EscapeString(deal.Title))
	fmt.Fprintf(&sb, "<b>Slug:</b> <code>%s</code>\n", html.EscapeString(deal.Slug))
	fmt.Fprintf(&sb, "<b>Status:</b> %s\n", deal.Status)
	fmt.Fprintf(&sb, "<b>Amount:</b> %s USD\n", deal.Amount.StringFixed(2))
	fmt.Fprintf(&sb, "<b>Creator:</b> <code>%s</code>\n", deal.CreatorAddress)

	if details.Agreement != nil {
		fmt.Fprintf(&sb, "<b>Agreed:</b> %s USD\n", details.Agreement.FinalAmount.StringFixed(2))
	}

	for _, payment := range details.Payments {
		fmt.Fprintf(&sb, "💸 %s %s on %s <code>%s</code>\n",
			payment.Amount.StringFixed(2),
			html.EscapeString(payment.Token),
			html.EscapeString(payment.Network),
			payment.TxHash,
		)
	}

	if s := details.Settlement; s != nil {
		fmt.Fprintf(&sb, "🌉 %s → %s: %s\n",
			html.EscapeString(s.SourceNetwork),
			html.EscapeString(s.DestNetwork),
			s.Status,
		)
	}

	return sb.String()
}

// Status считает сделки по статусам.
func Status(deals []entity.Deal, sweeping bool) string {
	counts := make(map[value.DealStatus]int, len(statusOrder))
	for _, deal := range deals {
		counts[deal.Status]++
	}

	sweeper := "🔴 stopped"
	if sweeping {
		sweeper = "🟢 running"
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Status</b>\n\n")
	fmt.Fprintf(&sb, "🧹 <b>Sweeper:</b> %s\n", sweeper)
	fmt.Fprintf(&sb, "📦 <b>Recent deals:</b> %d\n", len(deals))

	for _, status := range statusOrder {
		if counts[status] > 0 {
			fmt.Fprintf(&sb, "   %s: %d\n", status, counts[status])
		}
	}

	return sb.String()
}
