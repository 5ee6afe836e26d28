package domain

// SubscriptionRequest is the buyer's purchase intent. It is built from user
// input at submit time and discarded once sent.
type SubscriptionRequest struct {
	FirstName string
	LastName  string
	Email     string
	PlanID    int

	// Optional contact details forwarded to the gateway when set.
	Phone   string
	Address string
	City    string
}

// MissingFields returns the names of required fields that are blank.
func (r SubscriptionRequest) MissingFields() []string {
	var missing []string
	if r.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if r.LastName == "" {
		missing = append(missing, "last_name")
	}
	if r.Email == "" {
		missing = append(missing, "email")
	}
	return missing
}

// CheckoutPayload is the backend-rendered document that redirects the browser
// to the payment gateway. It is opaque: never parsed, never modified.
type CheckoutPayload []byte

// Subscription is a backend subscription record as listed by /subscriptions.
type Subscription struct {
	ID                    int    `json:"id"`
	OrderID               string `json:"order_id"`
	CustomerEmail         string `json:"customer_email"`
	FirstName             string `json:"first_name,omitempty"`
	LastName              string `json:"last_name,omitempty"`
	PlanID                int    `json:"plan_id,omitempty"`
	Status                string `json:"status"`
	GatewaySubscriptionID string `json:"payhere_subscription_id,omitempty"`
}
