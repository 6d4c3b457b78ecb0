package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrCardNotActive is returned when the payment service does not confirm the card
	ErrCardNotActive = errors.New("card is not active")
	// ErrInvalidPaymentResponse is returned when a 2xx charge carries no usable payment id
	ErrInvalidPaymentResponse = errors.New("invalid payment response")
	// ErrCardsNotFound is returned when a customer has no saved cards
	ErrCardsNotFound = errors.New("cards not found")
)

// Class groups HTTP status codes of the payment service
type Class int

const (
	ClassOther Class = iota
	ClassSuccess
	ClassClientError
	ClassServerError
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassClientError:
		return "client_error"
	case ClassServerError:
		return "server_error"
	default:
		return "other"
	}
}

// Result is the raw outcome of one call to the payment service
type Result struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Class classifies the status code
func (r Result) Class() Class {
	switch {
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return ClassSuccess
	case r.StatusCode >= 400 && r.StatusCode < 500:
		return ClassClientError
	case r.StatusCode >= 500 && r.StatusCode < 600:
		return ClassServerError
	default:
		return ClassOther
	}
}

// BodyString returns the trimmed body
func (r Result) BodyString() string {
	return strings.TrimSpace(string(r.Body))
}

// DownstreamError is a non-2xx answer from the payment service
type DownstreamError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *DownstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("payment service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("payment service returned status %d: %s", e.StatusCode, e.Body)
}

func downstreamError(res Result) *DownstreamError {
	return &DownstreamError{StatusCode: res.StatusCode, Body: res.BodyString(), URL: res.URL}
}

// CardSummary is a saved card as listed by the payment service
type CardSummary struct {
	CardID          int64  `json:"cardId"`
	Last4Digits     string `json:"last4Digits"`
	ExpirationMonth int    `json:"expirationMonth"`
	ExpirationYear  int    `json:"expirationYear"`
}

// ChargeRequest is the body of /make-payment. Amount is in minor units.
type ChargeRequest struct {
	CardID     int64 `json:"cardId"`
	Amount     int64 `json:"amount"`
	CustomerID int64 `json:"customerId"`
}

type chargeResponse struct {
	PaymentID int64 `json:"paymentId"`
}

type cardRequest struct {
	CardID int64 `json:"cardId"`
}

type customerRequest struct {
	CustomerID int64 `json:"customerId"`
}

type refundRequest struct {
	PaymentID int64  `json:"paymentId"`
	Reason    string `json:"reason"`
}

// Client talks to the payment service over JSON/HTTP. It never retries.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewClient creates a new payment service client
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// post sends payload to path. An error is returned only when no response was received.
func (c *Client) post(ctx context.Context, path string, payload interface{}) (Result, error) {
	url := c.baseURL + path
	res := Result{URL: url}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return res, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return res, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Error("Failed to call payment service")
		return res, fmt.Errorf("failed to call payment service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, fmt.Errorf("failed to read payment service response: %w", err)
	}

	res.StatusCode = resp.StatusCode
	res.Body = body

	c.logger.WithFields(logrus.Fields{
		"url":         url,
		"status_code": resp.StatusCode,
		"class":       res.Class().String(),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("Payment service response received")

	return res, nil
}

// IsCardActive asks whether the card can be charged. Every answer other than a
// 2xx "true" is reported as ErrCardNotActive.
func (c *Client) IsCardActive(ctx context.Context, cardID int64) (Result, error) {
	res, err := c.post(ctx, "/check-card-active", cardRequest{CardID: cardID})
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrCardNotActive, err)
	}

	if res.Class() != ClassSuccess {
		return res, fmt.Errorf("%w: %v", ErrCardNotActive, downstreamError(res))
	}

	var active bool
	if err := json.Unmarshal(res.Body, &active); err != nil {
		return res, fmt.Errorf("%w: unreadable card status %q", ErrCardNotActive, res.BodyString())
	}
	if !active {
		return res, ErrCardNotActive
	}
	return res, nil
}

// Charge debits the card and returns the payment id
func (c *Client) Charge(ctx context.Context, charge ChargeRequest) (int64, Result, error) {
	res, err := c.post(ctx, "/make-payment", charge)
	if err != nil {
		return 0, res, err
	}

	if res.Class() != ClassSuccess {
		return 0, res, downstreamError(res)
	}

	if len(bytes.TrimSpace(res.Body)) == 0 {
		return 0, res, fmt.Errorf("%w: empty body", ErrInvalidPaymentResponse)
	}

	var parsed chargeResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return 0, res, fmt.Errorf("%w: %v", ErrInvalidPaymentResponse, err)
	}
	if parsed.PaymentID <= 0 {
		return 0, res, fmt.Errorf("%w: payment id %d", ErrInvalidPaymentResponse, parsed.PaymentID)
	}

	return parsed.PaymentID, res, nil
}

// ListCards returns the saved cards of a customer
func (c *Client) ListCards(ctx context.Context, customerID int64) ([]CardSummary, Result, error) {
	res, err := c.post(ctx, "/customer-cards", customerRequest{CustomerID: customerID})
	if err != nil {
		return nil, res, err
	}

	if res.Class() != ClassSuccess {
		return nil, res, downstreamError(res)
	}

	var cards []CardSummary
	if len(bytes.TrimSpace(res.Body)) > 0 {
		if err := json.Unmarshal(res.Body, &cards); err != nil {
			return nil, res, fmt.Errorf("failed to parse customer cards: %w", err)
		}
	}
	if len(cards) == 0 {
		return nil, res, ErrCardsNotFound
	}

	return cards, res, nil
}

// Refund reverses a completed charge
func (c *Client) Refund(ctx context.Context, paymentID int64, reason string) (Result, error) {
	res, err := c.post(ctx, "/refund-payment", refundRequest{PaymentID: paymentID, Reason: reason})
	if err != nil {
		return res, err
	}

	if res.Class() != ClassSuccess {
		return res, downstreamError(res)
	}
	return res, nil
}
