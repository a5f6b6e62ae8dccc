// Package api exposes the HTTP handlers for the aggregator service.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/aggregator/internal/auth"
	"example.com/aggregator/internal/domain"
	"example.com/aggregator/internal/registry"
)

// Handler coordinates HTTP requests with the aggregation and registry
// services.
type Handler struct {
	aggregator *domain.Service
	registry   *registry.Service
	authCfg    auth.Config
	log        *logrus.Logger
}

// NewHandler builds a Handler.
func NewHandler(aggregator *domain.Service, reg *registry.Service, authCfg auth.Config, log *logrus.Logger) *Handler {
	return &Handler{aggregator: aggregator, registry: reg, authCfg: authCfg, log: log}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/user/", h.userMetrics)
	mux.HandleFunc("/signup", h.signUp)
	mux.HandleFunc("/signin", h.signIn)
	mux.HandleFunc("/client/", h.clientCallback)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// userMetrics serves GET /user/{userID}/{metricKind}/daily.
func (h *Handler) userMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeFailure(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	segments := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/user/"), "/"), "/")
	if len(segments) != 3 || segments[2] != "daily" {
		writeFailure(w, http.StatusNotFound, "no such resource")
		return
	}

	userID, err := strconv.Atoi(segments[0])
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "userID must be an integer")
		return
	}

	kind, err := domain.ParseMetricKind(segments[1])
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		writeFailure(w, http.StatusBadRequest, "Expected parameter 'date' in request")
		return
	}
	date, err := time.Parse(domain.ISODateLayout, rawDate)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "date must use the YYYY-MM-DD format")
		return
	}

	largestOnly := r.URL.Query().Get("largestOnly") == "true"

	records, err := h.aggregator.Aggregate(r.Context(), userID, kind, date, largestOnly)
	if err != nil {
		if errors.Is(err, domain.ErrAllPlatformsFailed) {
			writeFailure(w, http.StatusBadGateway, err.Error())
			return
		}
		h.log.WithFields(logrus.Fields{"userId": userID, "err": err}).Error("aggregation failed")
		writeFailure(w, http.StatusInternalServerError, "Something went wrong. Try again later...")
		return
	}

	if records == nil {
		records = []domain.MetricRecord{}
	}
	writeJSON(w, http.StatusOK, aggregationResponse{ID: userID, Result: records})
}

// signUp serves POST /signup with form fields name and password.
func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeFailure(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		writeFailure(w, http.StatusOK, "Expected parameter 'name' in request")
		return
	}
	password := r.FormValue("password")
	if password == "" {
		writeFailure(w, http.StatusOK, "Expected parameter 'password' in request")
		return
	}

	client, err := h.registry.SignUp(r.Context(), name, password)
	if err != nil {
		if errors.Is(err, registry.ErrNameTaken) {
			writeFailure(w, http.StatusOK, err.Error())
			return
		}
		h.log.WithFields(logrus.Fields{"name": name, "err": err}).Error("signup failed")
		writeFailure(w, http.StatusInternalServerError, "Something went wrong. Try again later...")
		return
	}

	h.log.WithFields(logrus.Fields{"clientId": client.ID, "name": name}).Info("new client registered")
	writeJSON(w, http.StatusOK, registryResponse{Success: true})
}

// signIn serves POST /signin; success carries a session token.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeFailure(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		writeFailure(w, http.StatusOK, "Expected parameter 'name' in request")
		return
	}
	password := r.FormValue("password")
	if password == "" {
		writeFailure(w, http.StatusOK, "Expected parameter 'password' in request")
		return
	}

	client, err := h.registry.SignIn(r.Context(), name, password)
	if err != nil {
		if errors.Is(err, registry.ErrIncorrectPassword) {
			writeFailure(w, http.StatusOK, err.Error())
			return
		}
		h.log.WithFields(logrus.Fields{"name": name, "err": err}).Error("signin failed")
		writeFailure(w, http.StatusInternalServerError, "Something went wrong. Try again later...")
		return
	}

	token, err := auth.IssueToken(h.authCfg, client.ID)
	if err != nil {
		h.log.WithFields(logrus.Fields{"clientId": client.ID, "err": err}).Error("failed to sign session token")
		writeFailure(w, http.StatusInternalServerError, "Something went wrong. Try again later...")
		return
	}

	writeJSON(w, http.StatusOK, registryResponse{Success: true, Token: token})
}

// clientCallback serves POST and GET /client/{clientID}/callback.
func (h *Handler) clientCallback(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/client/"), "/"), "/")
	if len(segments) != 2 || segments[1] != "callback" {
		writeFailure(w, http.StatusNotFound, "no such resource")
		return
	}

	clientID, err := strconv.Atoi(segments[0])
	if err != nil {
		writeFailure(w, http.StatusOK, "clientID must be an integer")
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.updateCallback(w, r, clientID)
	case http.MethodGet:
		h.getCallback(w, r, clientID)
	default:
		writeFailure(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (h *Handler) updateCallback(w http.ResponseWriter, r *http.Request, clientID int) {
	callback := r.FormValue("callback")
	if callback == "" {
		writeFailure(w, http.StatusOK, "Expected parameter 'callback' in request")
		return
	}

	if err := h.registry.UpdateCallback(r.Context(), clientID, callback); err != nil {
		if errors.Is(err, registry.ErrUnknownClient) {
			writeFailure(w, http.StatusOK, err.Error())
			return
		}
		h.log.WithFields(logrus.Fields{"clientId": clientID, "err": err}).Error("callback update failed")
		writeFailure(w, http.StatusInternalServerError, "Something went wrong. Try again later...")
		return
	}

	writeJSON(w, http.StatusOK, registryResponse{Success: true, UpdatedCallback: callback})
}

func (h *Handler) getCallback(w http.ResponseWriter, r *http.Request, clientID int) {
	callback, err := h.registry.Callback(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownClient) {
			writeFailure(w, http.StatusOK, err.Error())
			return
		}
		h.log.WithFields(logrus.Fields{"clientId": clientID, "err": err}).Error("callback lookup failed")
		writeFailure(w, http.StatusInternalServerError, "Something went wrong. Try again later...")
		return
	}

	writeJSON(w, http.StatusOK, registryResponse{Success: true, Callback: callback})
}
