package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
	"creativerse/internal/platform/logger"

	"github.com/rs/zerolog"
)

const sessionPath = "/gwprocess/v4/api.php"

type Options struct {
	BaseURL       string
	StoreID       string
	StorePassword string
	SuccessURL    string
	FailURL       string
	CallbackURL   string

	// CallbackSecret is appended to the IPN URL so the callback endpoint can authenticate the gateway.
	CallbackSecret string
	Timeout        time.Duration
}

// SSLCommerz starts hosted checkouts. The gateway reports the outcome to CallbackURL.
type SSLCommerz struct {
	opts   Options
	client *http.Client
	logger zerolog.Logger
}

func NewSSLCommerz(opts Options) *SSLCommerz {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	return &SSLCommerz{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.Component("gateway"),
	}
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
	SessionKey     string `json:"sessionkey"`
}

func (g *SSLCommerz) CreateSession(ctx context.Context, s model.CheckoutSession) (string, error) {
	form := url.Values{
		"store_id":         {g.opts.StoreID},
		"store_passwd":     {g.opts.StorePassword},
		"total_amount":     {s.Amount.StringFixed(2)},
		"currency":         {"BDT"},
		"tran_id":          {s.TransactionID},
		"success_url":      {withTransaction(g.opts.SuccessURL, s.TransactionID)},
		"fail_url":         {withTransaction(g.opts.FailURL, s.TransactionID)},
		"cancel_url":       {withTransaction(g.opts.FailURL, s.TransactionID)},
		"ipn_url":          {withParam(g.opts.CallbackURL, "secret", g.opts.CallbackSecret)},
		"cus_name":         {s.CustomerName},
		"cus_email":        {s.CustomerEmail},
		"product_name":     {s.ContestName},
		"product_category": {"contest-entry"},
		"product_profile":  {"non-physical-goods"},
		"shipping_method":  {"NO"},
		"value_a":          {s.ContestID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.opts.BaseURL, "/")+sessionPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway unreachable: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read gateway response: %v: %w", err, common.ErrServiceUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Error().Int("status", resp.StatusCode).Str("tranId", s.TransactionID).Msg("Gateway rejected session request")
		return "", fmt.Errorf("gateway returned %d: %w", resp.StatusCode, common.ErrServiceUnavailable)
	}

	var out sessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode gateway response: %v: %w", err, common.ErrServiceUnavailable)
	}
	if !strings.EqualFold(out.Status, "SUCCESS") || out.GatewayPageURL == "" {
		return "", fmt.Errorf("gateway refused session: %s: %w", out.FailedReason, common.ErrServiceUnavailable)
	}
	g.logger.Debug().Str("tranId", s.TransactionID).Str("sessionKey", out.SessionKey).Msg("Checkout session created")
	return out.GatewayPageURL, nil
}

func withTransaction(target, transactionID string) string {
	return withParam(target, "tran_id", transactionID)
}

func withParam(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil || target == "" || value == "" {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// Sandbox skips the hosted checkout and sends the payer straight to the success page.
// Confirmation still has to arrive through the callback endpoint.
type Sandbox struct {
	SuccessURL string
}

func (s Sandbox) CreateSession(_ context.Context, session model.CheckoutSession) (string, error) {
	return withTransaction(s.SuccessURL, session.TransactionID), nil
}

// NormalizeOutcome maps a gateway status to a payment outcome.
func NormalizeOutcome(status string) (model.PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "VALID", "VALIDATED", "SUCCESS":
		return model.PaymentSuccess, true
	case "FAILED", "CANCELLED", "UNATTEMPTED", "EXPIRED":
		return model.PaymentFailed, true
	}
	return "", false
}
