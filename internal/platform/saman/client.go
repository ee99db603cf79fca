// Package saman talks to the Saman Electronic Payment (SEP) gateway.
package saman

import (
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/fatflowers/paygate/internal/platform/httpx"
)

const (
	tokenPath   = "/payments/initpayment.asmx/RequestToken"
	verifyPath  = "/payments/referencepayment.asmx/verifyTransaction"
	reversePath = "/payments/referencepayment.asmx/reverseTransaction"

	// StateOK is the State value SEP posts back after a successful charge.
	StateOK = "OK"
)

var codeMessages = map[int]string{
	-1:  "error while processing the request",
	-3:  "inputs contain invalid characters",
	-4:  "merchant authentication failed",
	-6:  "transaction already reversed or its reversal window expired",
	-7:  "digital receipt is empty",
	-8:  "input length exceeds the maximum",
	-9:  "returned amount contains invalid characters",
	-10: "digital receipt contains invalid characters",
	-11: "input length is below the minimum",
	-12: "returned amount is negative",
	-13: "returned amount exceeds the unreturned balance",
	-14: "transaction is not defined",
	-15: "returned amount is fractional",
	-16: "internal system error",
	-17: "partial reversal of a non-Saman card",
	-18: "invalid caller IP or merchant password",
}

// Describe renders a SEP error code.
func Describe(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error code %d", code)
}

type ResultError struct {
	Operation string
	Code      int
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("saman %s failed with code %d: %s", e.Operation, e.Code, Describe(e.Code))
}

type Options struct {
	MerchantID string
	Username   string
	Password   string
	PaymentURL string
}

type Client struct {
	http *httpx.Client
	opts Options
}

func New(hc *httpx.Client, opts Options) *Client {
	return &Client{http: hc, opts: opts}
}

func (c *Client) MerchantID() string { return c.opts.MerchantID }
func (c *Client) PaymentURL() string { return c.opts.PaymentURL }
func (c *Client) Configured() bool   { return c.opts.MerchantID != "" }

type TokenRequest struct {
	ResNum      string
	Amount      int64
	RedirectURL string
	CellNumber  string
}

// RequestToken registers a purchase and returns the token the payer's
// browser posts to PaymentURL.
func (c *Client) RequestToken(ctx context.Context, req TokenRequest) (string, error) {
	form := url.Values{}
	form.Set("TermID", c.opts.MerchantID)
	form.Set("ResNum", req.ResNum)
	form.Set("TotalAmount", strconv.FormatInt(req.Amount, 10))
	form.Set("RedirectURL", req.RedirectURL)
	if req.CellNumber != "" {
		form.Set("CellNumber", req.CellNumber)
	}
	v, err := c.post(ctx, "RequestToken", tokenPath, form)
	if err != nil {
		return "", err
	}
	// failures come back as a negative number in place of the token
	if n, perr := strconv.Atoi(v); perr == nil && n < 0 {
		return "", &ResultError{Operation: "RequestToken", Code: n}
	}
	if v == "" {
		return "", fmt.Errorf("saman RequestToken: empty token")
	}
	return v, nil
}

// VerifyTransaction confirms RefNum and returns the amount SEP captured.
func (c *Client) VerifyTransaction(ctx context.Context, refNum string) (int64, error) {
	form := url.Values{}
	form.Set("RefNum", refNum)
	form.Set("MerchantID", c.opts.MerchantID)
	n, err := c.postNumber(ctx, "verifyTransaction", verifyPath, form)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, &ResultError{Operation: "verifyTransaction", Code: int(n)}
	}
	return n, nil
}

// ReverseTransaction returns the full amount of RefNum to the payer.
func (c *Client) ReverseTransaction(ctx context.Context, refNum string) error {
	form := url.Values{}
	form.Set("RefNum", refNum)
	form.Set("MerchantID", c.opts.MerchantID)
	form.Set("Username", c.opts.Username)
	form.Set("Password", c.opts.Password)
	n, err := c.postNumber(ctx, "reverseTransaction", reversePath, form)
	if err != nil {
		return err
	}
	if n != 1 {
		return &ResultError{Operation: "reverseTransaction", Code: int(n)}
	}
	return nil
}

type scalar struct {
	Value string `xml:",chardata"`
}

func (c *Client) post(ctx context.Context, op, path string, form url.Values) (string, error) {
	res, err := c.http.PostForm(ctx, path, form, nil)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("saman %s: unexpected status %d", op, res.StatusCode)
	}
	var s scalar
	if err := xml.Unmarshal(res.Body, &s); err != nil {
		return "", fmt.Errorf("saman %s: parse response: %w", op, err)
	}
	return strings.TrimSpace(s.Value), nil
}

func (c *Client) postNumber(ctx context.Context, op, path string, form url.Values) (int64, error) {
	v, err := c.post(ctx, op, path, form)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("saman %s: unexpected value %q", op, v)
	}
	return int64(math.Round(f)), nil
}
