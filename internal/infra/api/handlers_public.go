package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/infra/logging"
)

const rateWindow = time.Minute

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type createOrderRequest struct {
	Key      string `json:"key"`
	Service  string `json:"service"`
	Link     string `json:"link"`
	Quantity int    `json:"quantity"`
}

// handleCreateOrder is the storefront redemption endpoint. Precondition
// failures map to distinct status codes:
//
//	401 unknown or inactive key
//	403 exhausted key, or key not entitled for the service
//	400 bad quantity or link
//	404 unknown service
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("invalid_body"))
		return
	}
	if req.Key == "" || req.Service == "" || req.Link == "" || req.Quantity == 0 {
		writeError(w, http.StatusBadRequest, s.tr.T("missing_parameters"))
		return
	}

	orderID, err := s.orders.Create(r.Context(), req.Key, req.Service, req.Link, req.Quantity)
	if err != nil {
		var notEntitled *domain.NotEntitledError
		var quantityLimit *domain.QuantityLimitError
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, s.tr.T("invalid_key"))
		case errors.Is(err, domain.ErrLimitReached):
			writeError(w, http.StatusForbidden, s.tr.T("limit_reached"))
		case errors.As(err, &notEntitled):
			writeErrorDetail(w, http.StatusForbidden, s.tr.T("not_entitled"), map[string]any{
				"requestedService":  notEntitled.RequestedServiceID,
				"permittedServices": notEntitled.PermittedServices,
			})
		case errors.As(err, &quantityLimit):
			writeError(w, http.StatusBadRequest, s.tr.T("quantity_exceeds_limit", quantityLimit.Limit))
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, s.tr.T("invalid_link"))
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, s.tr.T("service_not_found"))
		default:
			s.serverError(w, r, err, "create order failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"orderId": orderID,
		"status":  "Pending",
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	view, err := s.orders.GetByID(r.Context(), orderID)
	if err != nil {
		notFoundOr500(s, w, r, err, "order_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId":    view.OrderID,
		"status":     view.Status,
		"charge":     view.Charge,
		"startCount": view.StartCount,
		"remains":    view.Remains,
		"createdAt":  view.CreatedAt,
	})
}

// handleValidateKey is a pure read: an exhausted key answers 400 without
// touching the usage counter.
func (s *Server) handleValidateKey(w http.ResponseWriter, r *http.Request) {
	keyValue := chi.URLParam(r, "productKey")
	v, err := s.keys.Validate(r.Context(), keyValue)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLimitReached):
			writeError(w, http.StatusBadRequest, s.tr.T("limit_reached"))
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, s.tr.T("invalid_key"))
		default:
			s.serverError(w, r, err, "validate key failed")
		}
		return
	}

	s.log.Debug().Str("key", logging.Redact(keyValue, s.cfg.Runtime.Dev)).Msg("key validated")

	body := map[string]any{
		"valid":         true,
		"key":           v.KeyValue,
		"remainingUses": v.RemainingUses,
		"maxQuantity":   v.MaxQuantity,
	}
	if v.Service != nil {
		body["service"] = map[string]any{
			"id":       v.Service.ID,
			"name":     v.Service.Name,
			"platform": v.Service.Platform,
			"minOrder": v.Service.MinOrder,
			"maxOrder": v.Service.MaxOrder,
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// handleGetProduct answers the "where is my order" storefront lookup:
// the most recent order under the key plus the total order count.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	keyValue := chi.URLParam(r, "productKey")
	view, err := s.orders.GetByKey(r.Context(), keyValue)
	if err != nil {
		notFoundOr500(s, w, r, err, "key_not_found")
		return
	}
	serviceName := view.ServiceName
	if serviceName == "" {
		serviceName = s.tr.T("unknown_service")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId":     view.OrderID,
		"status":      view.Status,
		"serviceName": serviceName,
		"link":        view.Link,
		"quantity":    view.Quantity,
		"charge":      view.Charge,
		"startCount":  view.StartCount,
		"remains":     view.Remains,
		"createdAt":   view.CreatedAt,
		"orderCount":  view.OrderCount,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("invalid_body"))
		return
	}

	u, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, s.tr.T("missing_parameters"))
		case errors.Is(err, domain.ErrAlreadyExists):
			key := "username_taken"
			if strings.HasPrefix(err.Error(), "email") {
				key = "email_taken"
			}
			writeError(w, http.StatusConflict, s.tr.T(key))
		default:
			s.serverError(w, r, err, "register failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("invalid_body"))
		return
	}

	u, token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, s.tr.T("login_failed"))
			return
		}
		s.serverError(w, r, err, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":    token,
		"username": u.Username,
		"balance":  u.Balance,
	})
}
