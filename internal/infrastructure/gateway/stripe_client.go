package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrBaseItemMissing signals a subscription without its base line item.
	// Mutating such a subscription is refused before any gateway write.
	ErrBaseItemMissing = errors.New("base subscription item not found")
)

// CheckoutSession is a hosted checkout flow created at the gateway
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SubscriptionItem is one line item on a gateway subscription
type SubscriptionItem struct {
	ID       string
	PriceID  string
	Quantity int64
}

// Subscription is the gateway's view of a recurring subscription
type Subscription struct {
	ID               string
	Status           string
	CustomerID       string
	CurrentPeriodEnd int64 // epoch seconds
	Items            []SubscriptionItem
}

// StripeClient talks to the Stripe REST API with form-encoded requests
type StripeClient struct {
	apiKey       string
	basePriceID  string
	childPriceID string
	appBaseURL   string
	baseURL      string
	httpClient   *http.Client
}

// NewStripeClient creates a gateway client. baseURL is overridable for tests.
func NewStripeClient(apiKey, basePriceID, childPriceID, appBaseURL, baseURL string) *StripeClient {
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	return &StripeClient{
		apiKey:       apiKey,
		basePriceID:  basePriceID,
		childPriceID: childPriceID,
		appBaseURL:   appBaseURL,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ChildPriceID exposes the configured per-dependent price reference
func (c *StripeClient) ChildPriceID() string {
	return c.childPriceID
}

// CreateCheckoutSession requests a hosted subscription checkout: one base
// line item at quantity 1, a child line item when children > 0, and the
// member reference embedded as correlation metadata the gateway echoes back.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, email string, children int, memberRef string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("customer_email", email)
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", c.basePriceID)
	form.Set("line_items[0][quantity]", "1")
	if children > 0 {
		form.Set("line_items[1][price]", c.childPriceID)
		form.Set("line_items[1][quantity]", strconv.Itoa(children))
	}
	form.Set("success_url", c.appBaseURL+"?checkout_status=success&session_id={CHECKOUT_SESSION_ID}&member_id="+memberRef)
	form.Set("cancel_url", c.appBaseURL+"?checkout_status=cancel&member_id="+memberRef)
	form.Set("metadata[app_user_id]", memberRef)

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSubscription retrieves a subscription with its line items
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var raw struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		Customer         string `json:"customer"`
		CurrentPeriodEnd int64  `json:"current_period_end"`
		Items            struct {
			Data []struct {
				ID       string `json:"id"`
				Quantity int64  `json:"quantity"`
				Price    struct {
					ID string `json:"id"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}

	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, &raw); err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:               raw.ID,
		Status:           raw.Status,
		CustomerID:       raw.Customer,
		CurrentPeriodEnd: raw.CurrentPeriodEnd,
	}
	for _, item := range raw.Items.Data {
		sub.Items = append(sub.Items, SubscriptionItem{
			ID:       item.ID,
			PriceID:  item.Price.ID,
			Quantity: item.Quantity,
		})
	}
	return sub, nil
}

// SetChildQuantity reconciles the child line item to newCount: updated in
// place, removed at zero, added when missing. The base item must exist and
// is always kept at quantity 1; its absence aborts before any mutation.
// The billing adjustment is prorated immediately.
func (c *StripeClient) SetChildQuantity(ctx context.Context, subscriptionID string, newCount int) error {
	sub, err := c.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	var baseItemID, childItemID string
	for _, item := range sub.Items {
		switch item.PriceID {
		case c.basePriceID:
			baseItemID = item.ID
		case c.childPriceID:
			childItemID = item.ID
		}
	}
	if baseItemID == "" {
		return ErrBaseItemMissing
	}

	form := url.Values{}
	form.Set("items[0][id]", baseItemID)
	form.Set("items[0][quantity]", "1")

	switch {
	case childItemID != "" && newCount > 0:
		form.Set("items[1][id]", childItemID)
		form.Set("items[1][quantity]", strconv.Itoa(newCount))
	case childItemID != "" && newCount == 0:
		form.Set("items[1][id]", childItemID)
		form.Set("items[1][deleted]", "true")
	case childItemID == "" && newCount > 0:
		form.Set("items[1][price]", c.childPriceID)
		form.Set("items[1][quantity]", strconv.Itoa(newCount))
	}

	form.Set("proration_behavior", "create_prorations")
	form.Set("payment_behavior", "default_incomplete")

	return c.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(subscriptionID), form, nil)
}

func (c *StripeClient) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway response read failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if jsonErr := json.Unmarshal(data, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gateway rejected request (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("gateway rejected request (%d)", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("gateway response decode failed: %w", err)
		}
	}
	return nil
}
