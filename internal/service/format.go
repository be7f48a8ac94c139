package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"freightchat/internal/model"
	"freightchat/internal/utils"
)

// formatMoney renders 2450.5 as "$2,450.50"
func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + frac
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "not scheduled"
	}
	return t.Format("Jan 2, 2006")
}

// rateLine is "$2,450.00 (780 mi, $3.14/mi)" or just the amount
func rateLine(l *model.Load) string {
	line := formatMoney(l.Rate)
	if rpm := l.RatePerMile(); rpm > 0 {
		line += fmt.Sprintf(" (%.0f mi, %s/mi)", *l.Miles, formatMoney(rpm))
	}
	return line
}

// loadSummaryLine is a one-line description used in lists
func loadSummaryLine(l *model.Load) string {
	return fmt.Sprintf("Load #%d: %s, %s, %s, %s",
		l.ID, utils.StatusLabel(l.Status), l.Route(), formatMoney(l.Rate), l.BrokerName)
}
