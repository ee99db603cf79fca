// Package zarinpal is a client for the ZarinPal v4 payment gateway REST API.
package zarinpal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatflowers/paygate/internal/platform/httpx"
)

const (
	CodeSuccess         = 100
	CodeAlreadyVerified = 101

	requestPath    = "/pg/v4/payment/request.json"
	verifyPath     = "/pg/v4/payment/verify.json"
	unverifiedPath = "/pg/v4/payment/unVerified.json"

	SandboxBaseURL     = "https://sandbox.zarinpal.com"
	SandboxStartPayURL = "https://sandbox.zarinpal.com/pg/StartPay/"
	DefaultRefundURL   = "https://next.zarinpal.com/api/v4/graphql"
)

type Options struct {
	MerchantID  string
	AccessToken string
	RefundURL   string
	StartPayURL string
}

type Client struct {
	http *httpx.Client
	opts Options
}

func New(hc *httpx.Client, opts Options) *Client {
	if opts.RefundURL == "" {
		opts.RefundURL = DefaultRefundURL
	}
	return &Client{http: hc, opts: opts}
}

type Metadata struct {
	Mobile  string `json:"mobile,omitempty"`
	Email   string `json:"email,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

type PaymentRequest struct {
	MerchantID  string    `json:"merchant_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	CallbackURL string    `json:"callback_url"`
	Description string    `json:"description"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

type PaymentResult struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Authority string `json:"authority"`
	FeeType   string `json:"fee_type"`
	Fee       int64  `json:"fee"`
}

type VerifyRequest struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type VerifyResult struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	CardHash string `json:"card_hash"`
	CardPan  string `json:"card_pan"`
	RefID    int64  `json:"ref_id"`
	FeeType  string `json:"fee_type"`
	Fee      int64  `json:"fee"`
}

type UnverifiedResult struct {
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Authorities []struct {
		Authority   string `json:"authority"`
		Amount      int64  `json:"amount"`
		CallbackURL string `json:"callback_url"`
		Date        string `json:"date"`
	} `json:"authorities"`
}

// APIError is a non-success code returned by ZarinPal. Raw keeps the response
// body for diagnostics.
type APIError struct {
	Code    int
	Message string
	Raw     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zarinpal error %d: %s", e.Code, e.Message)
}

// envelope is the shape of every v4 reply. On failure "data" is an empty
// array and "errors" an object, on success the other way round.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) MerchantID() string { return c.opts.MerchantID }

// StartPayURL is where the payer is redirected with the authority.
func (c *Client) StartPayURL(authority string) string {
	return strings.TrimRight(c.opts.StartPayURL, "/") + "/" + authority
}

func (c *Client) RequestPayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	req.MerchantID = c.opts.MerchantID
	var out PaymentResult
	if err := c.call(ctx, requestPath, req, &out); err != nil {
		return nil, err
	}
	if out.Code != CodeSuccess {
		return nil, &APIError{Code: out.Code, Message: out.Message}
	}
	return &out, nil
}

// VerifyPayment confirms a payment. CodeAlreadyVerified is returned as a
// result, not an error, so repeated verifies stay idempotent.
func (c *Client) VerifyPayment(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	req.MerchantID = c.opts.MerchantID
	var out VerifyResult
	if err := c.call(ctx, verifyPath, req, &out); err != nil {
		return nil, err
	}
	if out.Code != CodeSuccess && out.Code != CodeAlreadyVerified {
		return nil, &APIError{Code: out.Code, Message: out.Message}
	}
	return &out, nil
}

// Unverified lists paid but not yet verified authorities. It is cheap and
// authenticated, which makes it a good liveness probe.
func (c *Client) Unverified(ctx context.Context) (*UnverifiedResult, error) {
	var out UnverifiedResult
	if err := c.call(ctx, unverifiedPath, map[string]string{"merchant_id": c.opts.MerchantID}, &out); err != nil {
		return nil, err
	}
	if out.Code != CodeSuccess {
		return nil, &APIError{Code: out.Code, Message: out.Message}
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, path string, in any, out any) error {
	res, err := c.http.PostJSON(ctx, path, in, nil)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return fmt.Errorf("zarinpal: malformed response (status %d): %w", res.StatusCode, err)
	}
	if isObject(env.Errors) {
		var eb errorBody
		if err := json.Unmarshal(env.Errors, &eb); err != nil {
			return fmt.Errorf("zarinpal: malformed error body: %w", err)
		}
		return &APIError{Code: eb.Code, Message: eb.Message, Raw: string(res.Body)}
	}
	if !isObject(env.Data) {
		return fmt.Errorf("zarinpal: empty data in response (status %d)", res.StatusCode)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("zarinpal: malformed data: %w", err)
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
