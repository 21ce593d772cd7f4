package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
)

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("invalid_body"))
		return
	}

	token, err := s.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, s.tr.T("invalid_credentials"))
			return
		}
		s.serverError(w, r, err, "admin login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionToken": token})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(adminSessionHeader)
	if err := s.sessions.Logout(r.Context(), token); err != nil {
		s.serverError(w, r, err, "admin logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": s.tr.T("logged_out")})
}

type createProviderRequest struct {
	Name   string `json:"name"`
	APIURL string `json:"apiUrl"`
	APIKey string `json:"apiKey"`
}

func (s *Server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req createProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("invalid_body"))
		return
	}

	p, err := s.catalog.CreateProvider(r.Context(), req.Name, req.APIURL, req.APIKey)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, s.tr.T("missing_parameters"))
			return
		}
		s.serverError(w, r, err, "create provider failed")
		return
	}

	writeJSON(w, http.StatusCreated, providerView(p))
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.catalog.ListProviders(r.Context())
	if err != nil {
		s.serverError(w, r, err, "list providers failed")
		return
	}
	out := make([]map[string]any, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerID")
	if err := s.catalog.DeleteProvider(r.Context(), id); err != nil {
		notFoundOr500(s, w, r, err, "provider_not_found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncServices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerID")
	res, err := s.catalog.SyncServices(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, s.tr.T("provider_not_found"))
		case errors.Is(err, domain.ErrUpstream):
			writeError(w, http.StatusBadGateway, s.tr.T("sync_failed"))
		default:
			s.serverError(w, r, err, "sync services failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": s.tr.T("services_synced", res.Created+res.Updated),
		"created": res.Created,
		"updated": res.Updated,
		"skipped": res.Skipped,
	})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListServices(r.Context())
	if err != nil {
		s.serverError(w, r, err, "list services failed")
		return
	}
	out := make([]map[string]any, 0, len(services))
	for _, svc := range services {
		out = append(out, map[string]any{
			"id":                svc.ID,
			"providerId":        svc.ProviderID,
			"externalServiceId": svc.ExternalServiceID,
			"name":              svc.Name,
			"category":          svc.Category,
			"platform":          svc.Platform,
			"price":             svc.Price,
			"minOrder":          svc.MinOrder,
			"maxOrder":          svc.MaxOrder,
			"isActive":          svc.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type generateKeysRequest struct {
	ServiceIDs []string `json:"serviceIds"`
	UsageLimit int      `json:"usageLimit"`
	Count      int      `json:"count"`
}

func (s *Server) handleGenerateKeys(w http.ResponseWriter, r *http.Request) {
	var req generateKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("invalid_body"))
		return
	}

	keys, err := s.keys.GenerateBatch(r.Context(), req.ServiceIDs, req.UsageLimit, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, s.tr.T("missing_parameters"))
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, s.tr.T("service_not_found"))
		default:
			s.serverError(w, r, err, "generate keys failed")
		}
		return
	}

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyView(k))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.keys.List(r.Context())
	if err != nil {
		s.serverError(w, r, err, "list keys failed")
		return
	}
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyView(k))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "keyID")
	if err := s.keys.Delete(r.Context(), id); err != nil {
		notFoundOr500(s, w, r, err, "invalid_key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.ListAll(r.Context())
	if err != nil {
		s.serverError(w, r, err, "list orders failed")
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, map[string]any{
			"orderId":   o.OrderID,
			"serviceId": o.ServiceID,
			"link":      o.Link,
			"quantity":  o.Quantity,
			"charge":    o.Charge,
			"status":    o.Status,
			"createdAt": o.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	entries, err := s.sessions.ListActivity(r.Context(), limit)
	if err != nil {
		s.serverError(w, r, err, "list activity failed")
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":          e.ID,
			"type":        e.Type,
			"description": e.Description,
			"metadata":    e.Metadata,
			"createdAt":   e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func providerView(p *model.APIProvider) map[string]any {
	return map[string]any{
		"id":        p.ID,
		"name":      p.Name,
		"apiUrl":    p.APIURL,
		"isActive":  p.IsActive,
		"createdAt": p.CreatedAt,
	}
}

func keyView(k *model.RedemptionKey) map[string]any {
	return map[string]any{
		"id":         k.ID,
		"key":        k.KeyValue,
		"serviceIds": k.ServiceIDs,
		"usageLimit": k.UsageLimit,
		"usageCount": k.UsageCount,
		"isActive":   k.IsActive,
		"createdAt":  k.CreatedAt,
	}
}
