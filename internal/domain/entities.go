package domain

import "time"

// User is a customer account as stored by the shop under test.
type User struct {
	ID                  int64      `json:"id" db:"id"`
	Email               string     `json:"email" db:"email"`
	FirstName           string     `json:"first_name" db:"first_name"`
	LastName            string     `json:"last_name" db:"last_name"`
	Phone               string     `json:"phone,omitempty" db:"phone"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Status              string     `json:"status" db:"status"`
	FailedLoginAttempts int        `json:"failed_login_attempts" db:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty" db:"locked_until"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// NewUser carries the fields needed to create a user directly in the database.
type NewUser struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Password  string
	Status    string
}

// Lockout describes the login lockout state of an account.
type Lockout struct {
	Locked         bool
	FailedAttempts int
	Minutes        int
}

// Product is a catalogue item.
type Product struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Description   string  `json:"description,omitempty" db:"description"`
	Category      string  `json:"category" db:"category"`
	Brand         string  `json:"brand" db:"brand"`
	Price         float64 `json:"price" db:"price"`
	StockQuantity int     `json:"stock_quantity" db:"stock_quantity"`
}

// Order is a placed order, identified externally by OrderID.
type Order struct {
	ID            int64     `json:"id" db:"id"`
	OrderID       string    `json:"order_id" db:"order_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Status        string    `json:"status" db:"status"`
	PaymentStatus string    `json:"payment_status" db:"payment_status"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CleanupReport counts the rows removed or reset by a test-data cleanup.
type CleanupReport struct {
	Orders   int64
	Users    int64
	Products int64
}

// ProductCard is a product as rendered in a listing.
type ProductCard struct {
	Index     int
	Title     string
	Price     float64
	PriceText string
	Category  string
	Brand     string
}

// CartItem is a line of the shopping cart as rendered.
type CartItem struct {
	Index    int
	Name     string
	Price    string
	Quantity int
	Total    string
}

// ProfileData is what the dashboard exposes about the signed-in user.
type ProfileData struct {
	Name         string
	Email        string
	AuthProvider string
}

// EmailJob is a queued outbound email as produced by the application.
type EmailJob struct {
	ID        string         `json:"id,omitempty"`
	Recipient string         `json:"recipient"`
	Template  string         `json:"template"`
	Subject   string         `json:"subject,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Email is a delivered message seen in a mailbox.
type Email struct {
	ID      string
	From    string
	To      []string
	Subject string
	Created time.Time
}

// OutgoingEmail is a message sent by the suite itself.
type OutgoingEmail struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// APIResponse is the normalized result of a call to the shop API.
// StatusCode 0 with Err set means the request never completed.
type APIResponse struct {
	StatusCode int
	Headers    map[string][]string
	Data       any
	Raw        []byte
	Duration   time.Duration
	Err        error
}

// Object returns Data as a JSON object when it is one.
func (r APIResponse) Object() map[string]any {
	m, _ := r.Data.(map[string]any)
	return m
}

// ConsoleEntry is a browser console message.
type ConsoleEntry struct {
	Level   string
	Message string
	Time    time.Time
}
