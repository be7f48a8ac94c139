package service

import (
	"testing"
	"time"

	"freightchat/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0.00", formatMoney(0))
	assert.Equal(t, "$950.00", formatMoney(950))
	assert.Equal(t, "$2,450.00", formatMoney(2450))
	assert.Equal(t, "$1,234,567.89", formatMoney(1234567.891))
	assert.Equal(t, "-$120.50", formatMoney(-120.5))
}

func TestRateLineAndSummary(t *testing.T) {
	l := model.Load{ID: 1234, BrokerName: "Swift", Status: "in_transit", OriginCity: "Dallas", OriginState: "TX", DestinationCity: "Atlanta", DestinationState: "GA", Rate: 2450, Miles: float64Ptr(780)}

	assert.Equal(t, "$2,450.00 (780 mi, $3.14/mi)", rateLine(&l))
	assert.Equal(t, "Load #1234: In Transit, Dallas, TX → Atlanta, GA, $2,450.00, Swift", loadSummaryLine(&l))

	l.Miles = nil
	assert.Equal(t, "$2,450.00", rateLine(&l))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mar 4, 2024", formatDate(&d))
	assert.Equal(t, "not scheduled", formatDate(nil))
}
