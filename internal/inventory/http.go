package inventory

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"labeldesk/internal/integrity"
	"labeldesk/internal/models"
	"labeldesk/internal/repo"

	"github.com/gorilla/mux"
)

type HTTP struct {
	mgr   *Manager
	store *repo.Store
}

func NewHTTP(m *Manager, s *repo.Store) *HTTP { return &HTTP{mgr: m, store: s} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1/sites").Subrouter()

	// POST /api/v1/sites  { name, code }
	api.HandleFunc("", h.createSite).Methods(http.MethodPost)
	api.HandleFunc("", h.listSites).Methods(http.MethodGet)

	s := api.PathPrefix("/{site:[0-9]+}").Subrouter()
	s.HandleFunc("", h.getSite).Methods(http.MethodGet)
	// DELETE /api/v1/sites/{site}?cascade=true
	s.HandleFunc("", h.deleteSite).Methods(http.MethodDelete)

	// Locations
	s.HandleFunc("/locations", h.listLocations).Methods(http.MethodGet)
	s.HandleFunc("/locations", h.createLocation).Methods(http.MethodPost)
	s.HandleFunc("/locations/{id:[0-9]+}", h.updateLocation).Methods(http.MethodPatch)
	s.HandleFunc("/locations/{id:[0-9]+}/usage", h.usage(fixedKind(integrity.TargetLocation))).Methods(http.MethodGet)
	// DELETE /locations/{id}?strategy=reassign&replacement=9
	s.HandleFunc("/locations/{id:[0-9]+}", h.deleteReferenced(fixedKind(integrity.TargetLocation))).Methods(http.MethodDelete)

	// Catalogs: cable-types, device-models, cpu-models, sid-types
	s.HandleFunc("/catalog/{kind}", h.listCatalog).Methods(http.MethodGet)
	s.HandleFunc("/catalog/{kind}", h.createCatalog).Methods(http.MethodPost)
	s.HandleFunc("/catalog/{kind}/{id:[0-9]+}", h.renameCatalog).Methods(http.MethodPatch)
	s.HandleFunc("/catalog/{kind}/{id:[0-9]+}/usage", h.usage(catalogKind)).Methods(http.MethodGet)
	s.HandleFunc("/catalog/{kind}/{id:[0-9]+}", h.deleteReferenced(catalogKind)).Methods(http.MethodDelete)

	// VLANs
	s.HandleFunc("/vlans", h.listVLANs).Methods(http.MethodGet)
	s.HandleFunc("/vlans", h.createVLAN).Methods(http.MethodPost)
	s.HandleFunc("/vlans/{id:[0-9]+}/usage", h.usage(fixedKind(integrity.TargetVLAN))).Methods(http.MethodGet)
	s.HandleFunc("/vlans/{id:[0-9]+}", h.deleteReferenced(fixedKind(integrity.TargetVLAN))).Methods(http.MethodDelete)

	// Labels
	s.HandleFunc("/labels", h.listLabels).Methods(http.MethodGet)
	// POST /labels  { ..., quantity }
	s.HandleFunc("/labels", h.createLabels).Methods(http.MethodPost)
	s.HandleFunc("/labels/bulk-delete", h.deleteLabels).Methods(http.MethodPost)
	s.HandleFunc("/labels/{id:[0-9]+}", h.getLabel).Methods(http.MethodGet)
	s.HandleFunc("/labels/{id:[0-9]+}", h.updateLabel).Methods(http.MethodPatch)

	// Devices
	s.HandleFunc("/devices", h.listDevices).Methods(http.MethodGet)
	s.HandleFunc("/devices", h.createDevice).Methods(http.MethodPost)
	s.HandleFunc("/devices/bulk-delete", h.deleteDevices).Methods(http.MethodPost)
	s.HandleFunc("/devices/{id:[0-9]+}", h.getDevice).Methods(http.MethodGet)
	s.HandleFunc("/devices/{id:[0-9]+}/nics", h.addNIC).Methods(http.MethodPost)
	s.HandleFunc("/devices/{id:[0-9]+}/notes", h.addNote).Methods(http.MethodPost)

	// Sequences: POST allocates, GET peeks
	s.HandleFunc("/sequences/{kind}", h.allocate).Methods(http.MethodPost)
	s.HandleFunc("/sequences/{kind}", h.peek).Methods(http.MethodGet)
}

func fixedKind(k integrity.TargetKind) func(*http.Request) (integrity.TargetKind, error) {
	return func(*http.Request) (integrity.TargetKind, error) { return k, nil }
}

func catalogKind(r *http.Request) (integrity.TargetKind, error) {
	k, err := integrity.ParseTargetKind(mux.Vars(r)["kind"])
	if err != nil {
		return "", err
	}
	if _, ok := catalogModels[k]; !ok {
		return "", models.Invalid("kind", fmt.Sprintf("%q is not a catalog", mux.Vars(r)["kind"]))
	}
	return k, nil
}

func uintVar(r *http.Request, name string) (uint, error) {
	v, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || v == 0 {
		return 0, models.Invalid(name, "must be a positive integer")
	}
	return uint(v), nil
}

func uintQuery(r *http.Request, name string) (*uint, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return nil, models.Invalid(name, "must be a positive integer")
	}
	u := uint(v)
	return &u, nil
}

func boolQuery(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, models.Invalid(name, "must be a boolean")
	}
	return b, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.Invalid("body", err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
