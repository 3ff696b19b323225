package model

import "time"

// User is the backend account bound to a Telegram username.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Balance  float64
}

// Category is a purchasable product base as listed by the backend.
type Category struct {
	ID    string `json:"_id"`
	Base  string `json:"base"`
	Price string `json:"price"`
}

// Transaction is one wallet ledger entry.
type Transaction struct {
	PriceAmount float64   `json:"priceAmount"`
	PayCurrency string    `json:"payCurrency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Wallet is a user's balance plus recent ledger entries.
type Wallet struct {
	Balance      float64       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// Availability is the backend's answer to a filtered product query.
type Availability struct {
	Quantity int
	Products []map[string]any
}

// CheckoutResult describes the artifact produced by a successful purchase.
type CheckoutResult struct {
	FileName    string
	FileSize    int64
	DownloadURL string
	Message     string
}

// Currency is one accepted deposit currency.
type Currency struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Network string `json:"network"`
}

// Deposit carries the payment details for a created deposit.
type Deposit struct {
	TransactionID string
	Status        string
	PriceAmount   float64
	PayAmount     string
	PayCurrency   string
	PayAddress    string
	Network       string
	OrderID       string
}
