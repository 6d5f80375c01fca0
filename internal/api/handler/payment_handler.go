package handler

import (
	"crypto/subtle"
	"fmt"
	"mime"
	"net/http"
	"time"

	"creativerse/internal/api/middleware"
	"creativerse/internal/app/service"
	"creativerse/internal/common"
	"creativerse/internal/domain/model"
	"creativerse/internal/platform/gateway"

	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	Responder
	paymentService *service.PaymentService
	callbackSecret string
}

// NewPaymentHandler: with an empty callbackSecret every callback is rejected.
func NewPaymentHandler(ps *service.PaymentService, callbackSecret string, rs Responder) *PaymentHandler {
	return &PaymentHandler{Responder: rs, paymentService: ps, callbackSecret: callbackSecret}
}

// RegisterContestRoutes mounts under /contests.
func (h *PaymentHandler) RegisterContestRoutes(r chi.Router, auth *middleware.Auth) {
	r.With(auth.Authenticator).Post("/{contestID}/payments", h.initiate)
	r.With(auth.Authenticator).Get("/{contestID}/payments/me", h.myPayment)
}

// RegisterRoutes mounts under /payments.
func (h *PaymentHandler) RegisterRoutes(r chi.Router, auth *middleware.Auth) {
	r.Post("/callback", h.callback)
	r.With(auth.Authenticator).Get("/{transactionID}", h.receipt)
}

func (h *PaymentHandler) initiate(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentService.InitiatePayment(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) myPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentService.GetPaymentStatus(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "contestID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) receipt(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentService.GetPaymentByTransaction(r.Context(), middleware.PrincipalFromContext(r.Context()), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, payment)
}

type callbackBody struct {
	TranID        string `json:"tran_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// callback receives the gateway's server to server notification, as a form post or JSON.
func (h *PaymentHandler) callback(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedCallback(r) {
		h.fail(w, r, fmt.Errorf("invalid callback secret: %w", common.ErrUnauthorized))
		return
	}

	cb, err := h.readCallback(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	payment, err := h.paymentService.HandleGatewayCallback(r.Context(), cb)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) authorizedCallback(r *http.Request) bool {
	if h.callbackSecret == "" {
		return false
	}
	got := r.Header.Get("X-Callback-Secret")
	if got == "" {
		got = r.URL.Query().Get("secret")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.callbackSecret)) == 1
}

func (h *PaymentHandler) readCallback(w http.ResponseWriter, r *http.Request) (model.GatewayCallback, error) {
	cb := model.GatewayCallback{
		RemoteAddr: r.RemoteAddr,
		ReceivedAt: time.Now().UTC(),
		Payload:    map[string]string{},
	}

	var status string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body callbackBody
		if err := decodeJSON(w, r, &body); err != nil {
			return cb, err
		}
		cb.TransactionID = body.TransactionID
		if cb.TransactionID == "" {
			cb.TransactionID = body.TranID
		}
		status = body.Status
		cb.Payload["tran_id"] = cb.TransactionID
		cb.Payload["status"] = status
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			return cb, fmt.Errorf("invalid callback form: %s: %w", err.Error(), common.ErrValidation)
		}
		for key := range r.PostForm {
			cb.Payload[key] = r.PostForm.Get(key)
		}
		cb.TransactionID = r.PostForm.Get("tran_id")
		if cb.TransactionID == "" {
			cb.TransactionID = r.PostForm.Get("transaction_id")
		}
		status = r.PostForm.Get("status")
	}

	outcome, ok := gateway.NormalizeOutcome(status)
	if !ok {
		return cb, fmt.Errorf("unknown gateway status %q: %w", status, common.ErrValidation)
	}
	cb.Outcome = string(outcome)
	return cb, nil
}
