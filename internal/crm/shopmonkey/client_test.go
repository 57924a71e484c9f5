package shopmonkey

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sarmadashoor/LeadManager/platform/logger"
)

type testCRMConfig struct {
	apiKey   string
	baseURL  string
	demoMode bool
}

func (c testCRMConfig) GetShopMonkeyAPIKey() string  { return c.apiKey }
func (c testCRMConfig) GetShopMonkeyBaseURL() string { return c.baseURL }
func (c testCRMConfig) GetDemoMode() bool            { return c.demoMode }

func strPtr(s string) *string { return &s }

func websiteOrder() Order {
	return Order{
		ID:               "wo-1",
		Number:           "1042",
		Name:             strPtr("New Quote - Window Tint"),
		CustomerID:       "cust-1",
		Status:           "Estimate",
		Authorized:       false,
		MessageCount:     0,
		WorkflowStatusID: WorkflowWebsiteLeads,
	}
}

func TestIsWebsiteLead(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Order)
		want   bool
	}{
		{"qualified order", func(*Order) {}, true},
		{"wrong swim lane", func(o *Order) { o.WorkflowStatusID = WorkflowInvoiced }, false},
		{"already authorized", func(o *Order) { o.Authorized = true }, false},
		{"already messaged", func(o *Order) { o.MessageCount = 2 }, false},
		{"not an estimate", func(o *Order) { o.Status = "Invoice" }, false},
		{"manually created name", func(o *Order) { o.Name = strPtr("Walk-in repair") }, false},
		{"nil name", func(o *Order) { o.Name = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := websiteOrder()
			tt.mutate(&order)
			if got := IsWebsiteLead(order); got != tt.want {
				t.Fatalf("IsWebsiteLead = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsWindowTintingOrder(t *testing.T) {
	order := websiteOrder()
	order.Complaint = strPtr("Full vehicle ceramic TINT")
	if !IsWindowTintingOrder(order) {
		t.Fatal("complaint mentioning tint should qualify")
	}

	order = websiteOrder()
	order.Name = strPtr("New Quote - Paint protection")
	order.CoalescedName = nil
	order.Complaint = nil
	if IsWindowTintingOrder(order) {
		t.Fatal("order with no tinting keywords should not qualify")
	}
}

func TestExtractEmailPrefersPrimary(t *testing.T) {
	customer := &Customer{
		Emails: []EmailEntry{
			{Email: "old@example.com", Primary: false},
			{Email: "main@example.com", Primary: true},
		},
	}

	if got := ExtractEmail(customer); got != "main@example.com" {
		t.Fatalf("expected primary email, got %q", got)
	}

	customer.Emails[1].Primary = false
	if got := ExtractEmail(customer); got != "old@example.com" {
		t.Fatalf("expected first email as fallback, got %q", got)
	}

	if got := ExtractEmail(nil); got != "" {
		t.Fatalf("nil customer should yield empty email, got %q", got)
	}
}

func TestExtractPhonePrefersMobileThenPrimary(t *testing.T) {
	customer := &Customer{
		PhoneNumbers: []PhoneNumber{
			{Number: "+15550001", Primary: true, Type: "Home"},
			{Number: "+15550002", Primary: false, Type: "Mobile"},
		},
	}

	if got := ExtractPhone(customer); got != "+15550002" {
		t.Fatalf("expected mobile number, got %q", got)
	}

	customer.PhoneNumbers[1].Type = "Work"
	if got := ExtractPhone(customer); got != "+15550001" {
		t.Fatalf("expected primary number, got %q", got)
	}
}

func TestExtractNameFallsBackToGeneratedName(t *testing.T) {
	customer := &Customer{FirstName: strPtr("Ada"), LastName: strPtr("Lovelace")}
	if got := ExtractName(customer, nil); got != "Ada Lovelace" {
		t.Fatalf("expected joined name, got %q", got)
	}

	if got := ExtractName(&Customer{}, strPtr("Generated Name")); got != "Generated Name" {
		t.Fatalf("expected fallback name, got %q", got)
	}

	if got := ExtractName(nil, nil); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}

func TestFetchWebsiteLeadsQualifiesAndEnriches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/order":
			_, _ = w.Write([]byte(`{"data": [
				{"id": "wo-1", "number": "1042", "name": "New Quote - Window Tint", "customerId": "cust-1",
				 "status": "Estimate", "authorized": false, "messageCount": 0,
				 "workflowStatusId": "` + WorkflowWebsiteLeads + `", "vehicleId": "veh-1"},
				{"id": "wo-2", "number": "1043", "name": "Walk-in repair", "customerId": "cust-2",
				 "status": "Invoice", "authorized": true, "messageCount": 4,
				 "workflowStatusId": "` + WorkflowInvoiced + `"}
			]}`))
		case "/customer/cust-1":
			_, _ = w.Write([]byte(`{"data": {"id": "cust-1", "firstName": "Ada", "lastName": "Lovelace",
				"emails": [{"email": "ada@example.com", "primary": true}],
				"phoneNumbers": [{"number": "+15550002", "primary": true, "type": "Mobile"}]}}`))
		case "/vehicle/veh-1":
			_, _ = w.Write([]byte(`{"data": {"id": "veh-1", "year": 2021, "make": "Honda", "model": "Civic"}}`))
		default:
			t.Errorf("unexpected request path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := testCRMConfig{apiKey: "test-key", baseURL: server.URL, demoMode: false}
	client := NewClient(cfg, logger.New("test"))

	leads, err := client.FetchWebsiteLeads(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(leads) != 1 {
		t.Fatalf("expected 1 qualified lead, got %d", len(leads))
	}

	lead := leads[0]
	if lead.Order.ID != "wo-1" {
		t.Fatalf("expected order wo-1, got %q", lead.Order.ID)
	}
	if ExtractEmail(lead.Customer) != "ada@example.com" {
		t.Fatal("expected customer enrichment")
	}
	if lead.Vehicle == nil || lead.Vehicle.Model == nil || *lead.Vehicle.Model != "Civic" {
		t.Fatal("expected vehicle enrichment")
	}
}

func TestFetchWebsiteLeadsDemoModeDropsRealCustomers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/order":
			_, _ = w.Write([]byte(`{"data": [
				{"id": "wo-1", "number": "1042", "name": "New Quote - Window Tint", "customerId": "cust-1",
				 "status": "Estimate", "authorized": false, "messageCount": 0,
				 "workflowStatusId": "` + WorkflowWebsiteLeads + `"}
			]}`))
		case "/customer/cust-1":
			_, _ = w.Write([]byte(`{"data": {"id": "cust-1", "firstName": "Real", "lastName": "Customer",
				"emails": [{"email": "real@example.com", "primary": true}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := testCRMConfig{apiKey: "test-key", baseURL: server.URL, demoMode: true}
	client := NewClient(cfg, logger.New("test"))

	leads, err := client.FetchWebsiteLeads(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(leads) != 0 {
		t.Fatalf("demo mode must drop real customers, got %d leads", len(leads))
	}
}
