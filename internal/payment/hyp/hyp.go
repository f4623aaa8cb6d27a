// Package hyp charges cards through the HYP (Yaad Sarig) ashrait XML API.
package hyp

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/payment"
	"github.com/unseen32online/UNSEEN.IL/pkg/httpclient"
)

const (
	commandDoDeal = "doDeal"
	// actionCharge is a regular debit; J5 would only place a hold.
	actionCharge = "J4"
	currencyILS  = "1"

	maxResponseBody = 64 << 10
)

type Config struct {
	Endpoint string
	Terminal string
	Username string
	Password string
}

// poster is the subset of httpclient.CircuitBreakerClient the gateway needs.
type poster interface {
	PostForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error)
}

type Gateway struct {
	cfg    Config
	client poster
	logger *slog.Logger
}

// NewGateway creates a HYP gateway that sends requests through client.
func NewGateway(cfg Config, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *Gateway {
	return newGateway(cfg, client, logger)
}

func newGateway(cfg Config, client poster, logger *slog.Logger) *Gateway {
	return &Gateway{cfg: cfg, client: client, logger: logger.With(slog.String("gateway", "hyp"))}
}

func (g *Gateway) Name() string {
	return "hyp"
}

type ashraitRequest struct {
	XMLName xml.Name    `xml:"ashrait"`
	Request dealRequest `xml:"request"`
}

type dealRequest struct {
	Username       string `xml:"username"`
	Password       string `xml:"password"`
	Command        string `xml:"command"`
	Terminal       string `xml:"Masof"`
	Action         string `xml:"action"`
	Sum            int64  `xml:"sum"`
	Currency       string `xml:"currency"`
	CardNumber     string `xml:"cardNumber"`
	CardExpiration string `xml:"cardExpiration"`
	CVV            string `xml:"CVV2"`
	ID             string `xml:"id"`
	Comments       string `xml:"comments"`
	Info           string `xml:"info,omitempty"`
}

type dealResult struct {
	ResponseCode    string `xml:"responsecode"`
	ResponseMessage string `xml:"responsemessage"`
	TransactionID   string `xml:"transactionid"`
	ApprovalCode    string `xml:"approvalcode"`
}

// ashraitResponse accepts the result fields either directly under the root
// element or nested in <response>.
type ashraitResponse struct {
	dealResult
	Response *dealResult `xml:"response"`
}

func (r ashraitResponse) result() dealResult {
	if r.Response != nil && r.Response.ResponseCode != "" {
		return *r.Response
	}
	return r.dealResult
}

// approved reports whether code is one of the gateway's success codes
// ("0", "00", "000").
func approved(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && strings.Trim(code, "0") == ""
}

// cardExpiration converts "MM/YY", "MM/YYYY", "MMYY" or "MM-YY" to MMYY.
func cardExpiration(expiry string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, expiry)

	switch len(digits) {
	case 4:
	case 6:
		digits = digits[:2] + digits[4:]
	default:
		return "", fmt.Errorf("expiry %q is not MM/YY", expiry)
	}
	month, _ := strconv.Atoi(digits[:2])
	if month < 1 || month > 12 {
		return "", fmt.Errorf("expiry month %02d out of range", month)
	}
	return digits, nil
}

func (g *Gateway) buildRequest(charge payment.Charge) ([]byte, error) {
	expiration, err := cardExpiration(charge.Instrument.Expiry)
	if err != nil {
		return nil, err
	}
	if charge.Currency != "" && charge.Currency != "ILS" {
		return nil, fmt.Errorf("currency %s is not supported", charge.Currency)
	}

	req := ashraitRequest{Request: dealRequest{
		Username:       g.cfg.Username,
		Password:       g.cfg.Password,
		Command:        commandDoDeal,
		Terminal:       g.cfg.Terminal,
		Action:         actionCharge,
		Sum:            domain.ToMinorUnits(charge.Amount),
		Currency:       currencyILS,
		CardNumber:     charge.Instrument.Digits(),
		CardExpiration: expiration,
		CVV:            strings.TrimSpace(charge.Instrument.CVV),
		ID:             charge.OrderNumber,
		Comments:       "Order: " + charge.OrderNumber,
		Info:           charge.Instrument.CardholderName,
	}}
	return xml.Marshal(req)
}

// Process sends one doDeal request. Malformed card data is a decline, not
// an error; transport failures, non-200 answers and unparseable bodies are
// errors.
func (g *Gateway) Process(ctx context.Context, charge payment.Charge) (domain.PaymentOutcome, error) {
	payload, err := g.buildRequest(charge)
	if err != nil {
		return domain.PaymentOutcome{Message: err.Error()}, nil
	}

	g.logger.InfoContext(ctx, "sending payment",
		slog.String("order_number", charge.OrderNumber),
		slog.String("amount", charge.Amount.StringFixed(2)),
		slog.String("card", charge.Instrument.Masked()),
	)

	resp, err := g.client.PostForm(ctx, g.cfg.Endpoint, url.Values{"data": {string(payload)}})
	if err != nil {
		return domain.PaymentOutcome{}, fmt.Errorf("hyp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PaymentOutcome{}, httpclient.ParseResponseError(resp, "hyp")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.PaymentOutcome{}, fmt.Errorf("read hyp response: %w", err)
	}
	var parsed ashraitResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return domain.PaymentOutcome{}, fmt.Errorf("parse hyp response: %w", err)
	}
	result := parsed.result()

	outcome := domain.PaymentOutcome{
		Success:       approved(result.ResponseCode),
		Message:       strings.TrimSpace(result.ResponseMessage),
		TransactionID: strings.TrimSpace(result.TransactionID),
	}
	if !outcome.Success {
		outcome.TransactionID = ""
		if outcome.Message == "" {
			outcome.Message = "payment declined (code " + result.ResponseCode + ")"
		}
	}

	g.logger.InfoContext(ctx, "payment answered",
		slog.String("order_number", charge.OrderNumber),
		slog.String("response_code", result.ResponseCode),
		slog.Bool("approved", outcome.Success),
	)
	return outcome, nil
}
