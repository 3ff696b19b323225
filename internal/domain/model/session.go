package model

import (
	"strconv"
	"time"
)

// Step identifies where a user is inside a multi-step conversation.
type Step string

const (
	// Shop workflow. "Idle" is represented by the absence of a session.
	StepSelectingCategory  Step = "selecting_category"
	StepSelectingYear      Step = "selecting_year"
	StepSelectingState     Step = "selecting_state"
	StepEnteringQuantity   Step = "entering_quantity"
	StepConfirmingCheckout Step = "confirming_checkout"

	// Deposit workflow.
	StepEnteringCustomAmount  Step = "entering_custom_amount"
	StepSelectingCryptoCustom Step = "selecting_crypto_custom"
)

// Well-known session data keys.
const (
	KeyBase              = "base"
	KeyCategoryLabel     = "category_label"
	KeyYearFrom          = "year_from"
	KeyYearTo            = "year_to"
	KeyState             = "state"
	KeyQuantity          = "quantity"
	KeyAvailableQuantity = "available_quantity"
	KeyAmount            = "amount"
)

// Session holds a single user's progress in any multi-step conversation.
// Data accumulates workflow fields (selected category, year bounds, region,
// quantity) across otherwise-stateless updates.
type Session struct {
	Step      Step              `json:"step"`
	Data      map[string]string `json:"data"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewSession(step Step) *Session {
	return &Session{Step: step, Data: make(map[string]string)}
}

// Clone returns a deep copy. Stores hand out clones so no two concurrently
// handled events for the same user ever share a Data map.
func (s *Session) Clone() *Session {
	c := &Session{Step: s.Step, Data: make(map[string]string, len(s.Data)), UpdatedAt: s.UpdatedAt}
	for k, v := range s.Data {
		c.Data[k] = v
	}
	return c
}

// Int reads an integer field from the session data; ok is false when the key
// is absent or not numeric.
func (s *Session) Int(key string) (int, bool) {
	v, ok := s.Data[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float reads a float field from the session data.
func (s *Session) Float(key string) (float64, bool) {
	v, ok := s.Data[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Filters reconstructs the product filters accumulated so far.
func (s *Session) Filters() Filters {
	f := Filters{Base: s.Data[KeyBase], State: s.Data[KeyState]}
	if from, ok := s.Int(KeyYearFrom); ok {
		f.YearFrom = from
	}
	if to, ok := s.Int(KeyYearTo); ok {
		f.YearTo = to
	}
	return f
}

// Filters narrows a product search. Zero fields are omitted from the query.
type Filters struct {
	Base     string
	YearFrom int
	YearTo   int
	State    string
}

// Data flattens the filters into session data fields.
func (f Filters) Data() map[string]string {
	d := map[string]string{KeyBase: f.Base}
	if f.YearFrom > 0 && f.YearTo > 0 {
		d[KeyYearFrom] = strconv.Itoa(f.YearFrom)
		d[KeyYearTo] = strconv.Itoa(f.YearTo)
	}
	if f.State != "" {
		d[KeyState] = f.State
	}
	return d
}
