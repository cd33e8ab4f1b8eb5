// Package plans fetches the billing catalog and handles credit purchases.
// The catalog payload is validated against a JSON schema before use so a
// misbehaving billing endpoint cannot feed garbage into the purchase flow;
// when the endpoint is unreachable the built-in catalog is served instead.
package plans

// Feature is a single line item on a plan card.
type Feature struct {
	Feature  string `json:"feature"`
	Included bool   `json:"included"`
}

// Plan is one purchasable credit bundle.
type Plan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Credits   int       `json:"credits"`
	Features  []Feature `json:"features"`
	BestValue bool      `json:"is_best_value"`
}

// Transaction is the outcome of a purchase request.
type Transaction struct {
	TransactionID string  `json:"transaction_id"`
	PlanID        string  `json:"plan_id"`
	CreditsAdded  int     `json:"credits_added"`
	AmountPaid    float64 `json:"amount_paid"`
	Status        string  `json:"payment_status"`
}

// builtinCatalog is served when the billing endpoint cannot be reached.
var builtinCatalog = []Plan{
	{
		ID:      "free",
		Name:    "Free Plan",
		Price:   0,
		Credits: 100,
		Features: []Feature{
			{Feature: "Access to basic question solving", Included: true},
			{Feature: "Limited to 100 credits", Included: true},
			{Feature: "Priority support", Included: false},
		},
	},
	{
		ID:      "premium",
		Name:    "Premium Plan",
		Price:   500,
		Credits: 500,
		Features: []Feature{
			{Feature: "Access to all question solving features", Included: true},
			{Feature: "500 credits", Included: true},
			{Feature: "Priority support", Included: true},
			{Feature: "Detailed explanations", Included: true},
		},
		BestValue: true,
	},
}

// BuiltinCatalog returns a copy of the offline plan catalog.
func BuiltinCatalog() []Plan {
	out := make([]Plan, len(builtinCatalog))
	copy(out, builtinCatalog)
	return out
}

// FindPlan looks up a plan by ID in the given catalog.
func FindPlan(catalog []Plan, id string) (Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
