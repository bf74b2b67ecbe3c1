package dto

// CreateCheckoutSessionRequest prices the stay server side and opens a hosted checkout
type CreateCheckoutSessionRequest struct {
	PropertyID    string `json:"property_id" validate:"required,uuid"`
	CheckIn       string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut      string `json:"check_out" validate:"required,datetime=2006-01-02"`
	GuestCount    int    `json:"guest_count" validate:"required,gte=1,lte=100"`
	PetCount      int    `json:"pet_count" validate:"gte=0,lte=20"`
	CustomerEmail string `json:"customer_email,omitempty" validate:"omitempty,email"`
	SuccessURL    string `json:"success_url" validate:"required,url"`
	CancelURL     string `json:"cancel_url" validate:"required,url"`
}

type CreateCheckoutSessionResponse struct {
	Message     string             `json:"message"`
	BookingID   string             `json:"booking_id"`
	SessionID   string             `json:"session_id"`
	RedirectURL string             `json:"redirect_url"`
	Amount      string             `json:"amount"`
	Currency    string             `json:"currency"`
	Quote       PriceQuoteResponse `json:"quote"`
}

// PaymentWebhookRequest carries an unparsed provider event
type PaymentWebhookRequest struct {
	Payload   []byte
	Signature string
}

type PaymentWebhookResponse struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	// Handled is false for events the service ignores or has already processed
	Handled   bool   `json:"handled"`
	BookingID string `json:"booking_id,omitempty"`
	Status    string `json:"status,omitempty"`
}
