package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/internal/platform/httpx"
	"github.com/fatflowers/paygate/internal/platform/mellat"
	"github.com/fatflowers/paygate/internal/platform/saman"
	"github.com/fatflowers/paygate/internal/platform/zarinpal"
	"github.com/fatflowers/paygate/pkg/apperr"
	"github.com/fatflowers/paygate/pkg/config"
	"github.com/fatflowers/paygate/pkg/types"
)

var testLimits = AmountLimits{Min: 1000, Max: 500_000_000}

func testServer(t *testing.T, handler http.HandlerFunc) *httpx.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return httpx.New(httpx.Config{BaseURL: srv.URL})
}

func TestAdapters_RegistryRules(t *testing.T) {
	a, err := NewAdapters(newFake(zp), newFake(bm))
	require.NoError(t, err)
	require.Equal(t, []types.GatewayType{zp, bm}, a.Types())

	require.Error(t, a.Register(newFake(zp)))
	require.Error(t, a.Register(newFake(types.GatewayTypeCrypto)))
	require.Error(t, a.Register(nil))
}

func TestAmountLimits_Check(t *testing.T) {
	l := AmountLimits{Min: 1000, Max: 5000}
	require.NoError(t, l.Check(zp, 1000))
	require.NoError(t, l.Check(zp, 5000))
	require.ErrorIs(t, l.Check(zp, 999), &apperr.Error{Kind: apperr.KindValidation, Code: "amount_below_minimum"})
	require.ErrorIs(t, l.Check(zp, 5001), &apperr.Error{Kind: apperr.KindValidation, Code: "amount_above_maximum"})
	require.ErrorIs(t, l.Check(zp, 0), &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_amount"})
}

func newZarinPalAdapter(t *testing.T, handler http.HandlerFunc) *ZarinPalAdapter {
	t.Helper()
	client := zarinpal.New(testServer(t, handler), zarinpal.Options{
		MerchantID:  "m-1",
		StartPayURL: "https://payment.zarinpal.com/pg/StartPay/",
	})
	return NewZarinPalAdapter(client, testLimits)
}

func TestZarinPalAdapter_Create(t *testing.T) {
	a := newZarinPalAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"code":100,"message":"Success","authority":"A0001","fee_type":"Merchant","fee":150},"errors":[]}`)
	})

	res, err := a.CreatePaymentRequest(context.Background(), "u-1", &CreateInput{TransactionID: "tx-1", Amount: 15000, CallbackURL: "https://x/cb"})
	require.NoError(t, err)
	require.Equal(t, "A0001", res.Authority)
	require.Equal(t, http.MethodGet, res.RedirectVerb)
	require.Equal(t, "https://payment.zarinpal.com/pg/StartPay/A0001", res.PaymentURL)
	require.Equal(t, int64(150), res.Fee)
}

func TestZarinPalAdapter_CreateClassifiesProviderCode(t *testing.T) {
	a := newZarinPalAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"data":[],"errors":{"code":-11,"message":"Terminal is not active.","validations":[]}}`)
	})

	_, err := a.CreatePaymentRequest(context.Background(), "u-1", &CreateInput{TransactionID: "tx-1", Amount: 15000})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "merchant_inactive"})
	require.True(t, apperr.Retryable(err))
}

func TestZarinPalAdapter_VerifySkipsCallWhenPayerCancelled(t *testing.T) {
	called := false
	a := newZarinPalAdapter(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		TransactionID: "tx-1",
		Amount:        15000,
		Authority:     "A0001",
		CallbackData:  map[string]string{"Authority": "A0001", "Status": "NOK"},
	})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "payment_failed"})
	require.False(t, called)
}

func TestZarinPalAdapter_VerifyAlreadyVerified(t *testing.T) {
	a := newZarinPalAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"code":101,"message":"Verified","card_pan":"502229******5995","card_hash":"h","ref_id":201},"errors":[]}`)
	})

	res, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		TransactionID: "tx-1",
		Amount:        15000,
		Authority:     "A0001",
		CallbackData:  map[string]string{"Authority": "A0001", "Status": "OK"},
	})
	require.NoError(t, err)
	require.Equal(t, "201", res.ReferenceID)
	require.Equal(t, "502229******5995", res.CardPAN)
	require.Equal(t, true, res.GatewayData["already_verified"])
}

func TestZarinPalAdapter_VerifyRejectsForeignAuthority(t *testing.T) {
	a := newZarinPalAdapter(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		Authority:    "A0001",
		CallbackData: map[string]string{"Authority": "A0002", "Status": "OK"},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func mellatReply(op, ret string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` +
		`<ns2:` + op + `Response xmlns:ns2="http://interfaces.core.sw.bps.com/"><return>` + ret + `</return></ns2:` + op + `Response>` +
		`</soap:Body></soap:Envelope>`
}

// mellatBank answers each SOAP operation with the code in replies, "0" by default.
func mellatBank(t *testing.T, replies map[string]string) (*MellatAdapter, func() []string) {
	t.Helper()
	var (
		mu  sync.Mutex
		ops []string
	)
	hc := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		for _, op := range []string{"bpPayRequest", "bpVerifyRequest", "bpSettleRequest", "bpInquiryRequest", "bpReversalRequest"} {
			if !strings.Contains(string(body), "<int:"+op+">") {
				continue
			}
			mu.Lock()
			ops = append(ops, op)
			mu.Unlock()
			ret, ok := replies[op]
			if !ok {
				ret = "0"
			}
			_, _ = io.WriteString(w, mellatReply(op, ret))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	})
	client := mellat.New(hc, mellat.Credentials{TerminalID: 1234, Username: "user", Password: "pass"}, "https://bpm.shaparak.ir/pgwchannel/startpay.mellat")
	return NewMellatAdapter(client, testLimits, clockz.RealClock), func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), ops...)
	}
}

func mellatCallback() map[string]string {
	return map[string]string{"RefId": "REF1", "ResCode": "0", "SaleOrderId": "987", "SaleReferenceId": "555", "CardHolderPan": "6104****1234"}
}

func TestMellatAdapter_CreatePostsRefID(t *testing.T) {
	a, _ := mellatBank(t, map[string]string{"bpPayRequest": "0,REF1"})

	res, err := a.CreatePaymentRequest(context.Background(), "u-1", &CreateInput{TransactionID: "tx-1", Amount: 50000, CallbackURL: "https://x/cb"})
	require.NoError(t, err)
	require.Equal(t, "REF1", res.Authority)
	require.Equal(t, http.MethodPost, res.RedirectVerb)
	require.Equal(t, map[string]string{"RefId": "REF1"}, res.FormFields)
	require.NotZero(t, res.GatewayData["order_id"])
}

func TestMellatAdapter_VerifyAndSettle(t *testing.T) {
	a, ops := mellatBank(t, nil)

	res, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		TransactionID: "tx-1",
		Amount:        50000,
		Authority:     "REF1",
		GatewayData:   map[string]any{"order_id": float64(987)},
		CallbackData:  mellatCallback(),
	})
	require.NoError(t, err)
	require.Equal(t, "555", res.ReferenceID)
	require.Equal(t, "6104****1234", res.CardPAN)
	require.Equal(t, []string{"bpVerifyRequest", "bpSettleRequest"}, ops())
}

func TestMellatAdapter_AlreadySettledIsSuccess(t *testing.T) {
	a, ops := mellatBank(t, map[string]string{"bpVerifyRequest": "43", "bpSettleRequest": "45"})

	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{Amount: 50000, Authority: "REF1", CallbackData: mellatCallback()})
	require.NoError(t, err)
	require.Equal(t, []string{"bpVerifyRequest", "bpSettleRequest"}, ops())
}

func TestMellatAdapter_SettleFailureReverses(t *testing.T) {
	a, ops := mellatBank(t, map[string]string{"bpSettleRequest": "46"})

	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{Amount: 50000, Authority: "REF1", CallbackData: mellatCallback()})
	require.ErrorIs(t, err, apperr.ErrSettlementInconsistency)
	require.Equal(t, []string{"bpVerifyRequest", "bpSettleRequest", "bpReversalRequest"}, ops())
	require.Equal(t, true, apperr.As(err).Detail.(map[string]any)["reversed"])
}

func TestMellatAdapter_CancelledCallbackSkipsBank(t *testing.T) {
	a, ops := mellatBank(t, nil)
	cb := mellatCallback()
	cb["ResCode"] = "17"

	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{Amount: 50000, Authority: "REF1", CallbackData: cb})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "cancelled_by_user"})
	require.Empty(t, ops())
}

func TestMellatAdapter_RefundNotSupported(t *testing.T) {
	a, _ := mellatBank(t, nil)
	require.False(t, a.SupportsRefund())
	_, err := a.RefundPayment(context.Background(), &RefundInput{Amount: 1000})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "refund_not_supported"})
}

func samanXML(v string) string {
	return `<?xml version="1.0" encoding="utf-8"?><string xmlns="http://tempuri.org/">` + v + `</string>`
}

func newSamanAdapter(t *testing.T, handler http.HandlerFunc) *SamanAdapter {
	t.Helper()
	client := saman.New(testServer(t, handler), saman.Options{MerchantID: "10001", Username: "u", Password: "p", PaymentURL: "https://sep.shaparak.ir/payment.aspx"})
	return NewSamanAdapter(client, testLimits, nil)
}

func TestSamanAdapter_Create(t *testing.T) {
	a := newSamanAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, samanXML("tok-123"))
	})

	res, err := a.CreatePaymentRequest(context.Background(), "u-1", &CreateInput{TransactionID: "tx-1", Amount: 75000, CallbackURL: "https://x/cb"})
	require.NoError(t, err)
	require.Equal(t, "tok-123", res.Authority)
	require.Equal(t, "tok-123", res.FormFields["Token"])
	require.Equal(t, "https://sep.shaparak.ir/payment.aspx", res.PaymentURL)
}

func TestSamanAdapter_VerifyAmountMismatchReverses(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	a := newSamanAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if strings.HasSuffix(r.URL.Path, "verifyTransaction") {
			_, _ = io.WriteString(w, samanXML("5000"))
			return
		}
		_, _ = io.WriteString(w, samanXML("1"))
	})

	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		TransactionID: "tx-1",
		Amount:        75000,
		CallbackData:  map[string]string{"State": "OK", "ResNum": "tx-1", "RefNum": "R1"},
	})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "amount_mismatch"})
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 2)
	require.True(t, strings.HasSuffix(paths[1], "reverseTransaction"))
}

func TestSamanAdapter_VerifyCancelledState(t *testing.T) {
	a := newSamanAdapter(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		TransactionID: "tx-1",
		CallbackData:  map[string]string{"State": "Canceled By User", "ResNum": "tx-1"},
	})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindProvider, Code: "cancelled_by_user"})
}

func TestSamanAdapter_VerifyRequiresMatchingResNum(t *testing.T) {
	var calls atomic.Int32
	a := newSamanAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, samanXML("75000"))
	})

	for _, cb := range []map[string]string{
		{"State": "OK", "RefNum": "R1"},
		{"State": "OK", "ResNum": "tx-other", "RefNum": "R1"},
	} {
		_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{TransactionID: "tx-1", Amount: 75000, CallbackData: cb})
		require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "authority_mismatch"})
	}
	require.Zero(t, calls.Load())
}

// stubReferences answers FindByReference from a fixed map.
type stubReferences map[string]*models.PaymentTransaction

func (s stubReferences) FindByReference(ctx context.Context, g types.GatewayType, referenceID string) (*models.PaymentTransaction, error) {
	return s[referenceID], nil
}

func TestSamanAdapter_VerifyRejectsReusedRefNum(t *testing.T) {
	var calls atomic.Int32
	a := newSamanAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, samanXML("75000"))
	})
	a.refs = stubReferences{"R1": {ID: "tx-paid-earlier"}, "R2": {ID: "tx-1"}}

	_, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		TransactionID: "tx-1",
		Amount:        75000,
		CallbackData:  map[string]string{"State": "OK", "ResNum": "tx-1", "RefNum": "R1"},
	})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "reference_already_used"})
	require.Zero(t, calls.Load())

	// the payment's own reference is a replay of its own callback
	v, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		TransactionID: "tx-1",
		Amount:        75000,
		CallbackData:  map[string]string{"State": "OK", "ResNum": "tx-1", "RefNum": "R2"},
	})
	require.NoError(t, err)
	require.Equal(t, "R2", v.ReferenceID)
	require.Equal(t, int32(1), calls.Load())
}

func TestSamanAdapter_RefundIsFullOnly(t *testing.T) {
	a := newSamanAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, samanXML("1"))
	})

	_, err := a.RefundPayment(context.Background(), &RefundInput{Amount: 1000, PaidAmount: 75000, ReferenceID: "R1"})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "partial_refund_not_supported"})

	res, err := a.RefundPayment(context.Background(), &RefundInput{Amount: 75000, PaidAmount: 75000, ReferenceID: "R1"})
	require.NoError(t, err)
	require.Equal(t, "reversed", res.Status)
}

func TestBankTransferAdapter(t *testing.T) {
	a := NewBankTransferAdapter(config.BankTransferConfig{IBAN: "IR000000000000000000000001", AccountHolder: "Paygate", BankName: "Melli"}, testLimits)

	res, err := a.CreatePaymentRequest(context.Background(), "u-1", &CreateInput{TransactionID: "tx-1", Amount: 20000})
	require.NoError(t, err)
	require.Equal(t, "IR000000000000000000000001", res.Instructions["iban"])
	require.Equal(t, res.Authority, res.Instructions["reference_code"])

	_, err = a.VerifyPayment(context.Background(), "u-1", &VerifyInput{Authority: res.Authority, Amount: 20000, CallbackData: map[string]string{"confirmed": "false"}, OperatorConfirmed: true})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "transfer_not_confirmed"})

	confirmed := map[string]string{"confirmed": "true", "bank_reference": "BR-9", "reference_code": res.Authority}
	_, err = a.VerifyPayment(context.Background(), "u-1", &VerifyInput{Authority: res.Authority, Amount: 20000, CallbackData: confirmed})
	require.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: "transfer_not_confirmed"})

	v, err := a.VerifyPayment(context.Background(), "u-1", &VerifyInput{
		Authority:         res.Authority,
		Amount:            20000,
		CallbackData:      confirmed,
		OperatorConfirmed: true,
	})
	require.NoError(t, err)
	require.Equal(t, "BR-9", v.ReferenceID)

	require.Error(t, NewBankTransferAdapter(config.BankTransferConfig{}, testLimits).HealthCheck(context.Background()))
}
