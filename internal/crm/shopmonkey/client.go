// Package shopmonkey is the read-side ShopMonkey CRM adapter: a thin REST
// client plus the qualification rules that decide which work orders count as
// website leads worth pursuing.
package shopmonkey

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// Workflow swim lane ids from the Tint World ShopMonkey account.
const (
	WorkflowWebsiteLeads = "619813fb2c9c3e8ce527be48"
	WorkflowInvoiced     = "619813fb2c9c3e7f6a27be4b"
	WorkflowAppointments = "65fb14d76ee665db4d8d2ce0"
)

// Demo mode only lets these test addresses through, so a misconfigured
// environment can never message real customers.
var demoModeEmails = []string{"sarmadashoor1@gmail.com"}

// Client talks to the ShopMonkey v3 REST API.
type Client struct {
	apiKey   string
	baseURL  string
	demoMode bool
	client   *http.Client
	log      *logger.Logger
}

// NewClient creates a ShopMonkey client from configuration.
func NewClient(cfg config.CRMConfig, log *logger.Logger) *Client {
	return &Client{
		apiKey:   cfg.GetShopMonkeyAPIKey(),
		baseURL:  strings.TrimRight(cfg.GetShopMonkeyBaseURL(), "/"),
		demoMode: cfg.GetDemoMode(),
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopmonkey api error: %d %s", resp.StatusCode, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// FetchOrders returns up to limit work orders.
func (c *Client) FetchOrders(ctx context.Context, limit int) ([]Order, error) {
	endpoint := "/order"
	if limit > 0 {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", limit))
		endpoint += "?" + params.Encode()
	}

	var resp orderListResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// GetCustomer returns the customer record, or nil when the lookup fails.
// A lead with an unresolvable customer is still worth admitting, so lookup
// failures degrade to missing contact info instead of aborting the order.
func (c *Client) GetCustomer(ctx context.Context, customerID string) *Customer {
	var resp customerResponse
	if err := c.get(ctx, "/customer/"+customerID, &resp); err != nil {
		c.log.Warn("customer lookup failed", "customer_id", customerID, "error", err)
		return nil
	}

	return &resp.Data
}

// GetVehicle returns the vehicle record, or nil when absent or the lookup
// fails.
func (c *Client) GetVehicle(ctx context.Context, vehicleID string) *Vehicle {
	if vehicleID == "" {
		return nil
	}

	var resp vehicleResponse
	if err := c.get(ctx, "/vehicle/"+vehicleID, &resp); err != nil {
		c.log.Warn("vehicle lookup failed", "vehicle_id", vehicleID, "error", err)
		return nil
	}

	return &resp.Data
}

// IsWebsiteLead reports whether the order is a website-generated lead: in
// the Website Leads swim lane, still an unauthorized estimate, never
// messaged, and carrying the website's "New Quote" name prefix.
func IsWebsiteLead(order Order) bool {
	return order.WorkflowStatusID == WorkflowWebsiteLeads &&
		order.Status == "Estimate" &&
		!order.Authorized &&
		order.MessageCount == 0 &&
		order.Name != nil && strings.HasPrefix(*order.Name, "New Quote")
}

// IsWindowTintingOrder reports whether the order's descriptive text mentions
// tinting work.
func IsWindowTintingOrder(order Order) bool {
	var parts []string
	for _, s := range []*string{order.CoalescedName, order.Complaint, order.Name} {
		if s != nil && *s != "" {
			parts = append(parts, *s)
		}
	}

	text := strings.ToLower(strings.Join(parts, " "))
	return strings.Contains(text, "tint") || strings.Contains(text, "window")
}

// IsDemoModeLead reports whether the customer is on the demo allowlist.
func IsDemoModeLead(customer *Customer) bool {
	email := strings.ToLower(ExtractEmail(customer))
	if email == "" {
		return false
	}

	for _, allowed := range demoModeEmails {
		if email == allowed {
			return true
		}
	}

	return false
}

// ExtractEmail picks the customer's primary email, falling back to the first
// one listed. Empty when the customer has none.
func ExtractEmail(customer *Customer) string {
	if customer == nil || len(customer.Emails) == 0 {
		return ""
	}

	for _, e := range customer.Emails {
		if e.Primary {
			return e.Email
		}
	}

	return customer.Emails[0].Email
}

// ExtractPhone picks the customer's phone with Mobile beating primary
// beating first-listed. Empty when the customer has none.
func ExtractPhone(customer *Customer) string {
	if customer == nil || len(customer.PhoneNumbers) == 0 {
		return ""
	}

	for _, p := range customer.PhoneNumbers {
		if p.Type == "Mobile" {
			return p.Number
		}
	}
	for _, p := range customer.PhoneNumbers {
		if p.Primary {
			return p.Number
		}
	}

	return customer.PhoneNumbers[0].Number
}

// ExtractName joins the customer's first and last names, falling back to the
// order's generated customer name.
func ExtractName(customer *Customer, fallback *string) string {
	if customer != nil {
		var parts []string
		if customer.FirstName != nil && *customer.FirstName != "" {
			parts = append(parts, *customer.FirstName)
		}
		if customer.LastName != nil && *customer.LastName != "" {
			parts = append(parts, *customer.LastName)
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}

	if fallback != nil {
		return *fallback
	}

	return ""
}

// WebsiteLead is a fully enriched, qualified website lead ready for
// admission.
type WebsiteLead struct {
	Order    Order
	Customer *Customer
	Vehicle  *Vehicle
}

// FetchWebsiteLeads pulls recent orders and returns the ones that qualify as
// website tinting leads, enriched with customer and vehicle records. In demo
// mode, leads outside the test allowlist are dropped.
func (c *Client) FetchWebsiteLeads(ctx context.Context) ([]WebsiteLead, error) {
	orders, err := c.FetchOrders(ctx, 500)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	qualified := make([]Order, 0)
	for _, order := range orders {
		if IsWebsiteLead(order) && IsWindowTintingOrder(order) {
			qualified = append(qualified, order)
		}
	}

	// Enrichment is one customer plus one vehicle call per lead, fanned out
	// with a cap so a big batch doesn't hammer the CRM.
	enriched := make([]WebsiteLead, len(qualified))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)

	for i, order := range qualified {
		g.Go(func() error {
			lead := WebsiteLead{Order: order}
			lead.Customer = c.GetCustomer(gctx, order.CustomerID)
			if order.VehicleID != nil {
				lead.Vehicle = c.GetVehicle(gctx, *order.VehicleID)
			}
			enriched[i] = lead
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	leads := make([]WebsiteLead, 0, len(enriched))
	for _, lead := range enriched {
		if c.demoMode && !IsDemoModeLead(lead.Customer) {
			continue
		}
		leads = append(leads, lead)
	}

	c.log.Info("fetched website leads", "demo_mode", c.demoMode, "qualified", len(leads), "scanned", len(orders))

	return leads, nil
}
