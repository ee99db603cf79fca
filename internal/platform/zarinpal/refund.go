package zarinpal

import (
	"context"
	"encoding/json"
	"fmt"
)

type RefundMethod string

const (
	RefundMethodPaya RefundMethod = "PAYA"
	RefundMethodCard RefundMethod = "CARD"
)

type RefundRequest struct {
	SessionID   string
	Amount      int64
	Description string
	Method      RefundMethod
}

type RefundResult struct {
	ID           string `json:"id"`
	TerminalID   string `json:"terminal_id"`
	Amount       int64  `json:"amount"`
	RefundStatus string `json:"refund_status"`
}

const addRefundMutation = `mutation AddRefund($session_id: ID!, $amount: BigInteger!, $description: String, $method: InstantPayoutActionTypeEnum, $reason: RefundReasonEnum) {
  resource: AddRefund(session_id: $session_id, amount: $amount, description: $description, method: $method, reason: $reason) {
    terminal_id
    id
    amount
    timeline { refund_amount refund_time refund_status }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		Resource *struct {
			ID         string `json:"id"`
			TerminalID string `json:"terminal_id"`
			Amount     int64  `json:"amount"`
			Timeline   struct {
				RefundStatus string `json:"refund_status"`
			} `json:"timeline"`
		} `json:"resource"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Refund files a refund through the merchant GraphQL API. It needs an access
// token from the ZarinPal panel.
func (c *Client) Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	if c.opts.AccessToken == "" {
		return nil, fmt.Errorf("zarinpal: refund requires an access token")
	}
	method := req.Method
	if method == "" {
		method = RefundMethodPaya
	}
	body := graphQLRequest{
		Query: addRefundMutation,
		Variables: map[string]any{
			"session_id":  req.SessionID,
			"amount":      req.Amount,
			"description": req.Description,
			"method":      method,
			"reason":      "CUSTOMER_REQUEST",
		},
	}
	res, err := c.http.PostJSON(ctx, c.opts.RefundURL, body, map[string]string{"Authorization": "Bearer " + c.opts.AccessToken})
	if err != nil {
		return nil, err
	}
	var out graphQLResponse
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return nil, fmt.Errorf("zarinpal: malformed refund response (status %d): %w", res.StatusCode, err)
	}
	if len(out.Errors) > 0 {
		return nil, &APIError{Code: -1, Message: out.Errors[0].Message, Raw: string(res.Body)}
	}
	if out.Data.Resource == nil {
		return nil, &APIError{Code: -1, Message: "refund not accepted", Raw: string(res.Body)}
	}
	r := out.Data.Resource
	return &RefundResult{ID: r.ID, TerminalID: r.TerminalID, Amount: r.Amount, RefundStatus: r.Timeline.RefundStatus}, nil
}
