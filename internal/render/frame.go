package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"market-watcher/internal/indicator"
	"market-watcher/internal/quote"
)

const (
	title      = "M A R K E T   W A T C H E R"
	footerHint = "PRESS CTRL+C TO OPEN MANAGER MENU"
)

// Frame is everything drawn for one refresh.
type Frame struct {
	View     quote.ViewModel
	Interval time.Duration
}

type palette struct {
	primary lipgloss.Style
	accent  lipgloss.Style
	dim     lipgloss.Style
	up      lipgloss.Style
	down    lipgloss.Style
	marker  lipgloss.Style
	fav     lipgloss.Style
	symbol  lipgloss.Style
	price   lipgloss.Style
	border  lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	return palette{
		primary: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8c00be")),
		accent:  r.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00f5d4")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("245")),
		up:      r.NewStyle().Foreground(lipgloss.Color("#00ff00")),
		down:    r.NewStyle().Foreground(lipgloss.Color("#ff0055")),
		marker:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		fav:     r.NewStyle().Foreground(lipgloss.Color("220")),
		symbol:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		price:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		border:  r.NewStyle().Foreground(lipgloss.Color("12")),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
	}
}

// compose lays out header, table and footer.
func compose(f Frame, p palette, opts Options) string {
	var b strings.Builder
	b.WriteString(headerBlock(f, p))
	b.WriteString("\n")
	b.WriteString(tableBlock(f, p, opts))
	b.WriteString("\n\n")
	b.WriteString(p.accent.Render("  " + footerHint + "  "))
	b.WriteString("\n")
	return b.String()
}

func headerBlock(f Frame, p palette) string {
	lines := []string{
		p.primary.Render("-$- " + title + " -$-"),
		p.dim.Render(fmt.Sprintf("Last Update: %s • Timeframe: %s • Refresh: %s",
			f.View.UpdatedAt.Local().Format("15:04:05"), f.View.Timeframe, f.Interval)),
	}
	if n := f.View.Degraded(); n > 0 {
		lines = append(lines, p.down.Render(fmt.Sprintf("%d symbol(s) unavailable this cycle", n)))
	}
	return strings.Join(lines, "\n")
}

func tableBlock(f Frame, p palette, opts Options) string {
	if len(f.View.Records) == 0 {
		return p.dim.Render("watchlist is empty; open the manager to add symbols")
	}

	rows := make([][]string, 0, len(f.View.Records))
	for _, r := range f.View.Records {
		rows = append(rows, []string{
			assetCell(r, p),
			p.price.Render(formatPrice(r.Price)),
			changeCell(r.ChangePct, p),
			rangeBar(indicator.RangePosition(r.RangeLow, r.RangeHigh, r.Price, opts.BarWidth), p),
			rsiCell(r.RSI, p),
			signalCell(r.Signal(), p),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.border).
		Headers("Asset", "Price", "24h %", fmt.Sprintf("%s Range (L ↔ H)", f.View.Timeframe), fmt.Sprintf("RSI (%d)", opts.RSIPeriod), "Signal").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			switch col {
			case 1, 2:
				return p.cell.Align(lipgloss.Right)
			case 3, 4, 5:
				return p.cell.Align(lipgloss.Center)
			default:
				return p.cell
			}
		}).
		Rows(rows...)

	return t.Render()
}

func assetCell(r quote.AssetRecord, p palette) string {
	mark := "  "
	if r.IsFavorite {
		mark = p.fav.Render("★") + " "
	}
	return r.Class.Icon() + "  " + mark + p.symbol.Render(r.Symbol)
}

func changeCell(pct float64, p palette) string {
	text := decimal.NewFromFloat(pct).StringFixed(2)
	if pct >= 0 {
		return p.up.Render("▲ +" + text + "%")
	}
	return p.down.Render("▼ " + text + "%")
}

func rsiCell(rsi float64, p palette) string {
	text := decimal.NewFromFloat(rsi).StringFixed(0)
	switch quote.SignalFor(rsi) {
	case quote.Overbought:
		return p.down.Bold(true).Render(text)
	case quote.Oversold:
		return p.up.Bold(true).Render(text)
	default:
		return p.dim.Render(text)
	}
}

func signalCell(s quote.Signal, p palette) string {
	switch s {
	case quote.Overbought:
		return p.down.Render(string(s))
	case quote.Oversold:
		return p.up.Render(string(s))
	default:
		return p.dim.Render(string(s))
	}
}

// rangeBar draws below/current/above slots of a range position.
func rangeBar(pos indicator.Position, p palette) string {
	var b strings.Builder
	for i := 0; i < pos.Width; i++ {
		switch pos.Zone(i) {
		case indicator.ZoneFlat:
			b.WriteString(p.dim.Render("─"))
		case indicator.ZoneBelow:
			b.WriteString(p.up.Render("─"))
		case indicator.ZoneCurrent:
			b.WriteString(p.marker.Render("●"))
		case indicator.ZoneAbove:
			b.WriteString(p.down.Render("─"))
		}
	}
	return b.String()
}

// formatPrice renders a dollar amount with thousands separators.
func formatPrice(v float64) string {
	fixed := decimal.NewFromFloat(v).Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}

	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + "$" + grouped.String() + "." + frac
}
