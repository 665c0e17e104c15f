package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of Record.CreatedDate. Summary ordering compares
// dates as strings, so every stored date must use this layout.
const DateLayout = "2006-01-02"

// StatusPending is assigned to every newly created record
const StatusPending = "Pending"

// Record values must stay below 10^MaxValueDigits and carry at most
// MaxValueScale fractional digits, so every stored value is a finite float64
// and sums never rescale to extreme exponents.
const (
	MaxValueDigits = 15
	MaxValueScale  = 10
)

// Record is a single business item tracked by the service
type Record struct {
	ID          string
	Name        string
	Category    string
	Status      string
	Value       decimal.Decimal
	CreatedDate string
	Owner       string
	Description string
}

// NewRecord holds the caller-supplied fields for a record creation
type NewRecord struct {
	Name        string
	Category    string
	Value       decimal.Decimal
	Owner       string
	Description string
}

// FieldError describes a single invalid field of a request
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field-level problem found in a request
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns e when it holds at least one field error, nil otherwise
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks the required-field contract of a record creation
func (n NewRecord) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(n.Name) == "" {
		verr.Add("name", "field required")
	}
	if strings.TrimSpace(n.Category) == "" {
		verr.Add("category", "field required")
	}
	if strings.TrimSpace(n.Owner) == "" {
		verr.Add("owner", "field required")
	}
	if msg := checkValue(n.Value); msg != "" {
		verr.Add("value", msg)
	}
	return verr.Err()
}

// checkValue inspects only the coefficient length and exponent, so it stays
// cheap for inputs such as 1e20000000
func checkValue(v decimal.Decimal) string {
	if v.IsNegative() {
		return "must be greater than or equal to 0"
	}
	if v.Exponent() < -MaxValueScale {
		return fmt.Sprintf("must have at most %d decimal places", MaxValueScale)
	}
	if int64(v.NumDigits())+int64(v.Exponent()) > MaxValueDigits {
		return fmt.Sprintf("must be less than 1e%d", MaxValueDigits)
	}
	return ""
}

// FormatRecordID renders the positional record id for the given 1-based sequence
func FormatRecordID(seq int) string {
	return fmt.Sprintf("REC%03d", seq)
}

// Build turns the input into a stored record with the given id and creation time
func (n NewRecord) Build(id string, now time.Time) Record {
	return Record{
		ID:          id,
		Name:        n.Name,
		Category:    n.Category,
		Status:      StatusPending,
		Value:       n.Value,
		CreatedDate: now.UTC().Format(DateLayout),
		Owner:       n.Owner,
		Description: n.Description,
	}
}

// Summary holds aggregate statistics computed over the current record set
type Summary struct {
	TotalRecords       int
	TotalValue         decimal.Decimal
	AverageValue       decimal.Decimal
	StatusBreakdown    map[string]int
	CategoryBreakdown  map[string]int
	MostValuableRecord *Record
	LatestRecord       *Record
}

// Summarize computes summary statistics over records.
// Ties for the most valuable record go to the first one encountered. The latest
// record is the maximum of (CreatedDate, ID) compared as strings.
func Summarize(records []Record) Summary {
	s := Summary{
		TotalRecords:      len(records),
		TotalValue:        decimal.Zero,
		AverageValue:      decimal.Zero,
		StatusBreakdown:   make(map[string]int),
		CategoryBreakdown: make(map[string]int),
	}

	for i := range records {
		rec := &records[i]
		s.TotalValue = s.TotalValue.Add(rec.Value)
		s.StatusBreakdown[rec.Status]++
		s.CategoryBreakdown[rec.Category]++

		if s.MostValuableRecord == nil || rec.Value.GreaterThan(s.MostValuableRecord.Value) {
			s.MostValuableRecord = rec
		}
		if s.LatestRecord == nil || laterThan(rec, s.LatestRecord) {
			s.LatestRecord = rec
		}
	}

	if s.TotalRecords > 0 {
		s.AverageValue = s.TotalValue.Div(decimal.NewFromInt(int64(s.TotalRecords))).Round(2)
	}

	return s
}

func laterThan(a, b *Record) bool {
	if a.CreatedDate != b.CreatedDate {
		return a.CreatedDate > b.CreatedDate
	}
	return a.ID > b.ID
}
