package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"records-api/models"

	"github.com/shopspring/decimal"
)

// maxBodyBytes caps the size of a create request body
const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// createRecordRequest keeps every field raw so presence and JSON type can be
// checked before conversion
type createRecordRequest struct {
	Name        json.RawMessage `json:"name"`
	Category    json.RawMessage `json:"category"`
	Value       json.RawMessage `json:"value"`
	Owner       json.RawMessage `json:"owner"`
	Description json.RawMessage `json:"description"`
}

// decodeCreateRecord parses and validates a create body. Every field problem
// is reported at once as a *models.ValidationError.
func decodeCreateRecord(w http.ResponseWriter, r *http.Request) (models.NewRecord, error) {
	var req createRecordRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.NewRecord{}, errBodyTooLarge
		}
		verr := &models.ValidationError{}
		verr.Add("body", "request body must be a JSON object")
		return models.NewRecord{}, verr
	}

	verr := &models.ValidationError{}
	flagged := make(map[string]bool)
	fail := func(field, message string) {
		verr.Add(field, message)
		flagged[field] = true
	}

	var in models.NewRecord
	var ok bool
	if in.Name, ok = decodeString(req.Name); !ok {
		fail("name", "must be a string")
	}
	if in.Category, ok = decodeString(req.Category); !ok {
		fail("category", "must be a string")
	}
	if isAbsent(req.Value) {
		fail("value", "field required")
	} else if in.Value, ok = decodeNumber(req.Value); !ok {
		fail("value", "must be a number")
	}
	if in.Owner, ok = decodeString(req.Owner); !ok {
		fail("owner", "must be a string")
	}
	if in.Description, ok = decodeString(req.Description); !ok {
		fail("description", "must be a string")
	}

	var contractErr *models.ValidationError
	if errors.As(in.Validate(), &contractErr) {
		for _, fe := range contractErr.Fields {
			if !flagged[fe.Field] {
				verr.Add(fe.Field, fe.Message)
			}
		}
	}

	if err := verr.Err(); err != nil {
		return models.NewRecord{}, err
	}
	return in, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeString returns "" for an absent or null field
func decodeString(raw json.RawMessage) (string, bool) {
	if isAbsent(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeNumber accepts only a JSON number literal; quoted numbers are rejected
func decodeNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return decimal.Zero, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
