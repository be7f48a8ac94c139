package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Load represents a freight load record
type Load struct {
	ID               int64      `json:"id" db:"load_id"`
	ReferenceNumber  string     `json:"reference_number,omitempty" db:"reference_number"`
	BrokerName       string     `json:"broker_name" db:"broker_name"`
	Status           string     `json:"status" db:"status"`
	OriginCity       string     `json:"origin_city" db:"origin_city"`
	OriginState      string     `json:"origin_state" db:"origin_state"`
	DestinationCity  string     `json:"destination_city" db:"destination_city"`
	DestinationState string     `json:"destination_state" db:"destination_state"`
	Rate             float64    `json:"rate" db:"rate"`
	Miles            *float64   `json:"miles,omitempty" db:"miles"`
	Equipment        *string    `json:"equipment,omitempty" db:"equipment"`
	Commodity        *string    `json:"commodity,omitempty" db:"commodity"`
	WeightLbs        *float64   `json:"weight_lbs,omitempty" db:"weight_lbs"`
	PickupDate       *time.Time `json:"pickup_date,omitempty" db:"pickup_date"`
	DeliveryDate     *time.Time `json:"delivery_date,omitempty" db:"delivery_date"`
	Accessorials     JSONArray  `json:"accessorials,omitempty" db:"accessorials"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Validate checks the shape of a load at the repository boundary
func (l *Load) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("load id must be positive, got %d", l.ID)
	}
	if l.Status == "" {
		return fmt.Errorf("load %d has no status", l.ID)
	}
	if l.Rate < 0 {
		return fmt.Errorf("load %d has negative rate", l.ID)
	}
	return nil
}

// Origin returns "City, ST"
func (l *Load) Origin() string {
	return joinPlace(l.OriginCity, l.OriginState)
}

// Destination returns "City, ST"
func (l *Load) Destination() string {
	return joinPlace(l.DestinationCity, l.DestinationState)
}

// Route returns "Origin → Destination"
func (l *Load) Route() string {
	return l.Origin() + " → " + l.Destination()
}

// RatePerMile returns the rate divided by miles, or 0 when miles are unknown
func (l *Load) RatePerMile() float64 {
	if l.Miles == nil || *l.Miles <= 0 {
		return 0
	}
	return l.Rate / *l.Miles
}

func joinPlace(city, state string) string {
	switch {
	case city == "":
		return state
	case state == "":
		return city
	default:
		return city + ", " + state
	}
}

// Document is a file attached to a load (rate confirmation, BOL, POD, invoice)
type Document struct {
	ID         int64     `json:"id" db:"id"`
	LoadID     int64     `json:"load_id" db:"load_id"`
	Kind       string    `json:"kind" db:"kind"`
	Name       string    `json:"name" db:"name"`
	Status     string    `json:"status" db:"status"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// Communication is a message exchanged with the broker or shipper about a load
type Communication struct {
	ID           int64     `json:"id" db:"id"`
	LoadID       int64     `json:"load_id" db:"load_id"`
	Channel      string    `json:"channel" db:"channel"`
	Counterparty string    `json:"counterparty" db:"counterparty"`
	Summary      string    `json:"summary" db:"summary"`
	OccurredAt   time.Time `json:"occurred_at" db:"occurred_at"`
}

// FinancialSummary is the money view of a single load
type FinancialSummary struct {
	LoadID        int64   `json:"load_id" db:"load_id"`
	Revenue       float64 `json:"revenue" db:"revenue"`
	FuelCost      float64 `json:"fuel_cost" db:"fuel_cost"`
	Tolls         float64 `json:"tolls" db:"tolls"`
	OtherExpenses float64 `json:"other_expenses" db:"other_expenses"`
	NetProfit     float64 `json:"net_profit" db:"net_profit"`
	InvoiceStatus string  `json:"invoice_status" db:"invoice_status"`
}

// Related groups the sub-records of a load
type Related struct {
	Documents      []Document        `json:"documents"`
	Communications []Communication   `json:"communications"`
	Financials     *FinancialSummary `json:"financials,omitempty"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported type %T for JSONArray", value)
	}
}

// JSONMap represents a JSON object field
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported type %T for JSONMap", value)
	}
}
