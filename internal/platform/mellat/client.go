// Package mellat is a SOAP client for the Behpardakht Mellat payment gateway.
package mellat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatflowers/paygate/internal/platform/httpx"
)

const (
	servicePath = "/pgwchannel/services/pgw"

	opPay      = "bpPayRequest"
	opVerify   = "bpVerifyRequest"
	opSettle   = "bpSettleRequest"
	opInquiry  = "bpInquiryRequest"
	opReversal = "bpReversalRequest"

	CodeSuccess         = 0
	CodeUserCancelled   = 17
	CodeDuplicateOrder  = 41
	CodeAlreadyVerified = 43
	CodeAlreadySettled  = 45
	CodeNotSettled      = 46
	CodeAlreadyReversed = 48
)

// iranTime is the fixed +03:30 offset; Iran dropped daylight saving in 2022.
var iranTime = time.FixedZone("IRST", 3*3600+30*60)

type Credentials struct {
	TerminalID int64
	Username   string
	Password   string
}

type Client struct {
	http        *httpx.Client
	creds       Credentials
	startPayURL string
}

func New(hc *httpx.Client, creds Credentials, startPayURL string) *Client {
	return &Client{http: hc, creds: creds, startPayURL: startPayURL}
}

// Configured reports whether terminal credentials are present. The bank has
// no cheap unauthenticated probe, so this stands in for a liveness check.
func (c *Client) Configured() bool {
	return c.creds.TerminalID > 0 && c.creds.Username != "" && c.creds.Password != ""
}

// StartPayURL is the page the payer's browser must POST RefId to.
func (c *Client) StartPayURL() string { return c.startPayURL }

// ResultError is a non-zero ResCode returned by the bank.
type ResultError struct {
	Operation string
	Code      int
	Raw       string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("mellat %s failed with code %d", e.Operation, e.Code)
}

// FaultError is a SOAP fault, usually bad credentials or a malformed call.
type FaultError struct {
	Operation string
	Code      string
	Message   string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("mellat %s soap fault %s: %s", e.Operation, e.Code, e.Message)
}

type PayRequest struct {
	OrderID        int64
	Amount         int64
	CallbackURL    string
	AdditionalData string
	PayerID        string
	At             time.Time
}

// PayRequest registers a purchase and returns the RefId the payer is sent to
// the bank with.
func (c *Client) PayRequest(ctx context.Context, req PayRequest) (string, error) {
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	at = at.In(iranTime)
	payerID := req.PayerID
	if payerID == "" {
		payerID = "0"
	}
	ret, err := c.call(ctx, opPay, &payRequest{
		TerminalID:     c.creds.TerminalID,
		UserName:       c.creds.Username,
		UserPassword:   c.creds.Password,
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		LocalDate:      at.Format("20060102"),
		LocalTime:      at.Format("150405"),
		AdditionalData: req.AdditionalData,
		CallBackURL:    req.CallbackURL,
		PayerID:        payerID,
	})
	if err != nil {
		return "", err
	}
	// success is "0,<RefId>", failure a bare code
	code, refID, _ := strings.Cut(ret, ",")
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("mellat %s: unexpected return %q", opPay, ret)
	}
	if n != CodeSuccess {
		return "", &ResultError{Operation: opPay, Code: n, Raw: ret}
	}
	if refID == "" {
		return "", fmt.Errorf("mellat %s: missing RefId in %q", opPay, ret)
	}
	return strings.TrimSpace(refID), nil
}

// Sale identifies a purchase after the payer returns from the bank.
type Sale struct {
	OrderID         int64
	SaleOrderID     int64
	SaleReferenceID int64
}

func (c *Client) Verify(ctx context.Context, s Sale) error  { return c.followUp(ctx, opVerify, s) }
func (c *Client) Settle(ctx context.Context, s Sale) error  { return c.followUp(ctx, opSettle, s) }
func (c *Client) Inquiry(ctx context.Context, s Sale) error { return c.followUp(ctx, opInquiry, s) }
func (c *Client) Reverse(ctx context.Context, s Sale) error { return c.followUp(ctx, opReversal, s) }

func (c *Client) followUp(ctx context.Context, op string, s Sale) error {
	req := &followUpRequest{
		TerminalID:      c.creds.TerminalID,
		UserName:        c.creds.Username,
		UserPassword:    c.creds.Password,
		OrderID:         s.OrderID,
		SaleOrderID:     s.SaleOrderID,
		SaleReferenceID: s.SaleReferenceID,
	}
	req.XMLName.Local = "int:" + op
	ret, err := c.call(ctx, op, req)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(ret)
	if err != nil {
		return fmt.Errorf("mellat %s: unexpected return %q", op, ret)
	}
	if n != CodeSuccess {
		return &ResultError{Operation: op, Code: n, Raw: ret}
	}
	return nil
}

func (c *Client) call(ctx context.Context, op string, payload any) (string, error) {
	body, err := marshalEnvelope(payload)
	if err != nil {
		return "", fmt.Errorf("mellat %s: marshal: %w", op, err)
	}
	res, err := c.http.PostRaw(ctx, servicePath, "text/xml; charset=utf-8", body, map[string]string{"SOAPAction": `""`})
	if err != nil {
		return "", err
	}
	ret, fault, err := parseReturn(res.Body, op)
	if err != nil {
		return "", fmt.Errorf("mellat %s: parse response (status %d): %w", op, res.StatusCode, err)
	}
	if fault != nil {
		return "", &FaultError{Operation: op, Code: fault.Code, Message: fault.String}
	}
	return ret, nil
}
