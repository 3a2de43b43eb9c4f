// Package ekart wraps authentication and the shipment lifecycle calls of the
// Ekart logistics API.
package ekart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snapkartapp/snapkart/internal/models"
	"github.com/snapkartapp/snapkart/internal/observability"
)

const vendorCallTimeout = 30 * time.Second

type Config struct {
	BaseURL  string
	ClientID string
	Username string
	Password string
}

type Client struct {
	baseURL    string
	clientID   string
	username   string
	password   string
	httpClient *http.Client
	tokens     *tokenCache
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   cfg.ClientID,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: observability.NewHTTPClient(vendorCallTimeout),
		logger:     logger,
	}
	c.tokens = newTokenCache(c.authenticate)
	return c
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) authenticate(ctx context.Context) (string, time.Time, error) {
	body, err := json.Marshal(map[string]string{
		"client_id": c.clientID,
		"username":  c.username,
		"password":  c.password,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ekart auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("ekart auth failed with status %d", resp.StatusCode)
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode ekart auth response: %w", err)
	}
	if auth.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("ekart auth response missing token")
	}

	return auth.AccessToken, time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second), nil
}

// do issues an authenticated request, re-authenticating once on a 401.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = encoded
	}

	for attempt := 0; ; attempt++ {
		token, err := c.tokens.get(ctx)
		if err != nil {
			return 0, nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("ekart request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, fmt.Errorf("failed to read ekart response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.tokens.invalidate()
			continue
		}

		return resp.StatusCode, respBody, nil
	}
}

type serviceabilityResponse struct {
	Pincode     string `json:"pincode"`
	ForwardDrop bool   `json:"forward_drop"`
}

// CheckServiceability reports whether the carrier delivers to the pincode.
// A vendor-level failure is returned as an error, distinct from a confirmed
// negative answer.
func (c *Client) CheckServiceability(ctx context.Context, pincode string) (bool, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v2/serviceability/"+url.PathEscape(pincode), nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("ekart serviceability check failed with status %d", status)
	}

	var result serviceabilityResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("failed to decode serviceability response: %w", err)
	}
	return result.ForwardDrop, nil
}

type Shipment struct {
	TrackingID string
	Waybill    string
	Raw        string
}

type shipmentItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type createShipmentRequest struct {
	OrderID       string         `json:"order_id"`
	Amount        int64          `json:"amount"`
	PaymentMethod string         `json:"payment_method"`
	Consignee     string         `json:"consignee"`
	AddressLine1  string         `json:"address_line1"`
	AddressLine2  string         `json:"address_line2,omitempty"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	Pincode       string         `json:"pincode"`
	Mobile        string         `json:"mobile"`
	Items         []shipmentItem `json:"items"`
}

type createShipmentResponse struct {
	TrackingID string `json:"tracking_id"`
	Waybill    string `json:"waybill"`
}

// CreateShipment registers a forward shipment for the order.
func (c *Client) CreateShipment(ctx context.Context, order *models.Order) (*Shipment, error) {
	items := make([]shipmentItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, shipmentItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.UnitPricePaise,
		})
	}

	payload := createShipmentRequest{
		OrderID:       order.OrderID,
		Amount:        order.TotalPaise,
		PaymentMethod: string(order.PaymentMethod),
		Consignee:     order.Address.FullName,
		AddressLine1:  order.Address.Line1,
		AddressLine2:  order.Address.Line2,
		City:          order.Address.City,
		State:         order.Address.State,
		Pincode:       order.Address.Pincode,
		Mobile:        order.Address.Mobile,
		Items:         items,
	}

	status, body, err := c.do(ctx, http.MethodPost, "/v2/shipments/create", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		c.logger.Warn("ekart shipment creation rejected", "status", status, "order_id", order.OrderID)
		return nil, fmt.Errorf("ekart shipment creation failed with status %d", status)
	}

	var result createShipmentResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode shipment response: %w", err)
	}
	if result.TrackingID == "" {
		return nil, fmt.Errorf("ekart shipment response missing tracking id")
	}

	return &Shipment{
		TrackingID: result.TrackingID,
		Waybill:    result.Waybill,
		Raw:        string(body),
	}, nil
}

// CancelShipment requests carrier-side cancellation for a tracking reference.
func (c *Client) CancelShipment(ctx context.Context, trackingID string) error {
	status, _, err := c.do(ctx, http.MethodPost, "/v2/shipments/cancel", map[string]string{
		"tracking_id": trackingID,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("ekart shipment cancellation failed with status %d", status)
	}
	return nil
}

type TrackingStatus struct {
	TrackingID string `json:"tracking_id"`
	Status     string `json:"status"`
	Raw        string `json:"-"`
}

// TrackShipment returns the carrier's current view of a shipment.
func (c *Client) TrackShipment(ctx context.Context, trackingID string) (*TrackingStatus, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v2/shipments/track/"+url.PathEscape(trackingID), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("ekart tracking failed with status %d", status)
	}

	var result TrackingStatus
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}
	result.Raw = string(body)
	return &result, nil
}
