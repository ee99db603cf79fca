package mellat

import (
	"encoding/xml"
	"strings"
)

const (
	soapEnvNS    = "http://schemas.xmlsoap.org/soap/envelope/"
	interfacesNS = "http://interfaces.core.sw.bps.com/"
)

// requestEnvelope marshals to the envelope layout the bank's WSDL documents:
// prefixed soapenv/int names with unqualified parameter elements.
type requestEnvelope struct {
	XMLName   xml.Name `xml:"soapenv:Envelope"`
	SoapEnvNS string   `xml:"xmlns:soapenv,attr"`
	IntNS     string   `xml:"xmlns:int,attr"`
	Header    struct{} `xml:"soapenv:Header"`
	Body      struct {
		Operation any
	} `xml:"soapenv:Body"`
}

func newEnvelope(op any) *requestEnvelope {
	env := &requestEnvelope{SoapEnvNS: soapEnvNS, IntNS: interfacesNS}
	env.Body.Operation = op
	return env
}

type payRequest struct {
	XMLName        xml.Name `xml:"int:bpPayRequest"`
	TerminalID     int64    `xml:"terminalId"`
	UserName       string   `xml:"userName"`
	UserPassword   string   `xml:"userPassword"`
	OrderID        int64    `xml:"orderId"`
	Amount         int64    `xml:"amount"`
	LocalDate      string   `xml:"localDate"`
	LocalTime      string   `xml:"localTime"`
	AdditionalData string   `xml:"additionalData"`
	CallBackURL    string   `xml:"callBackUrl"`
	PayerID        string   `xml:"payerId"`
}

// followUpRequest is shared by verify, settle, inquiry and reversal, which
// take identical parameters under different operation names.
type followUpRequest struct {
	XMLName         xml.Name
	TerminalID      int64  `xml:"terminalId"`
	UserName        string `xml:"userName"`
	UserPassword    string `xml:"userPassword"`
	OrderID         int64  `xml:"orderId"`
	SaleOrderID     int64  `xml:"saleOrderId"`
	SaleReferenceID int64  `xml:"saleReferenceId"`
}

type responseEnvelope struct {
	Body struct {
		Fault    *soapFault `xml:"Fault"`
		Response struct {
			XMLName xml.Name
			Return  string `xml:"return"`
		} `xml:",any"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

func marshalEnvelope(op any) ([]byte, error) {
	out, err := xml.Marshal(newEnvelope(op))
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// parseReturn extracts the <return> text of operation's response element.
func parseReturn(body []byte, operation string) (string, *soapFault, error) {
	var env responseEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return "", nil, err
	}
	if env.Body.Fault != nil {
		return "", env.Body.Fault, nil
	}
	if got := env.Body.Response.XMLName.Local; got != operation+"Response" {
		return "", nil, &unexpectedElementError{want: operation + "Response", got: got}
	}
	return strings.TrimSpace(env.Body.Response.Return), nil, nil
}

type unexpectedElementError struct{ want, got string }

func (e *unexpectedElementError) Error() string {
	return "mellat: expected <" + e.want + "> got <" + e.got + ">"
}
