package inventory

import (
	"net/http"
	"strconv"

	"labeldesk/internal/integrity"
	"labeldesk/internal/models"
	"labeldesk/internal/repo"
	"labeldesk/internal/sequence"

	"github.com/gorilla/mux"
)

// ---- sites ----

func (h *HTTP) createSite(w http.ResponseWriter, r *http.Request) {
	var in SiteInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	s, err := h.mgr.CreateSite(r.Context(), in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *HTTP) listSites(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListSites(r.Context())
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) getSite(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	s, err := h.store.GetSite(r.Context(), siteID)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *HTTP) deleteSite(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	cascade, err := boolQuery(r, "cascade")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	deleted, err := h.mgr.DeleteSite(r.Context(), siteID, cascade)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// ---- referenced rows: usage + delete ----

func (h *HTTP) target(r *http.Request, kindOf func(*http.Request) (integrity.TargetKind, error)) (uint, integrity.Target, error) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		return 0, integrity.Target{}, err
	}
	kind, err := kindOf(r)
	if err != nil {
		return 0, integrity.Target{}, err
	}
	id, err := uintVar(r, "id")
	if err != nil {
		return 0, integrity.Target{}, err
	}
	return siteID, integrity.Target{Kind: kind, ID: id}, nil
}

func (h *HTTP) usage(kindOf func(*http.Request) (integrity.TargetKind, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, t, err := h.target(r, kindOf)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		u, err := h.mgr.CountUsage(r.Context(), siteID, t)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"target": t, "usage": u, "total": u.Total()})
	}
}

// deleteReferenced accepts ?strategy=auto|block|reassign|cascade, ?replacement=<id>
// and the older ?cascade=true.
func (h *HTTP) deleteReferenced(kindOf func(*http.Request) (integrity.TargetKind, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, t, err := h.target(r, kindOf)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		legacy, err := boolQuery(r, "cascade")
		if err != nil {
			models.WriteError(w, err)
			return
		}
		strategy, err := integrity.ParseStrategy(r.URL.Query().Get("strategy"), legacy)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		repl, err := uintQuery(r, "replacement")
		if err != nil {
			models.WriteError(w, err)
			return
		}
		req := integrity.Request{SiteID: siteID, Target: t, Strategy: strategy}
		if repl != nil {
			req.ReplacementID = *repl
		}
		res, err := h.mgr.DeleteReferencedRow(r.Context(), req)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ---- locations ----

func (h *HTTP) listLocations(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	out, err := h.store.ListLocations(r.Context(), siteID)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) createLocation(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in LocationInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	loc, err := h.mgr.CreateLocation(r.Context(), siteID, in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (h *HTTP) updateLocation(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	id, err := uintVar(r, "id")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in struct {
		Label string `json:"label"`
	}
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	if err := h.mgr.UpdateLocationLabel(r.Context(), siteID, id, in.Label); err != nil {
		models.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- catalogs ----

func (h *HTTP) listCatalog(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	kind, err := catalogKind(r)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	out, err := h.store.ListCatalog(r.Context(), siteID, string(kind)+"s")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) createCatalog(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	kind, err := catalogKind(r)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in CatalogInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	e, err := h.mgr.CreateCatalogEntry(r.Context(), siteID, kind, in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *HTTP) renameCatalog(w http.ResponseWriter, r *http.Request) {
	siteID, t, err := h.target(r, catalogKind)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in CatalogInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	if err := h.mgr.RenameCatalogEntry(r.Context(), siteID, t.Kind, t.ID, in); err != nil {
		models.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- vlans ----

func (h *HTTP) listVLANs(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	out, err := h.store.ListVLANs(r.Context(), siteID)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) createVLAN(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in VLANInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	v, err := h.mgr.CreateVLAN(r.Context(), siteID, in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// ---- labels ----

func (h *HTTP) listLabels(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var f repo.LabelFilter
	if f.LocationID, err = uintQuery(r, "location"); err != nil {
		models.WriteError(w, err)
		return
	}
	if f.CableTypeID, err = uintQuery(r, "cable_type"); err != nil {
		models.WriteError(w, err)
		return
	}
	f.BatchID = r.URL.Query().Get("batch")
	if f.Page, err = pageQuery(r); err != nil {
		models.WriteError(w, err)
		return
	}
	out, err := h.store.ListLabels(r.Context(), siteID, f)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) getLabel(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	id, err := uintVar(r, "id")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	l, err := h.store.GetLabel(r.Context(), siteID, id)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *HTTP) createLabels(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in struct {
		LabelInput
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	out, err := h.mgr.CreateLabels(r.Context(), siteID, in.LabelInput, in.Quantity)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	if len(out) == 1 {
		writeJSON(w, http.StatusCreated, out[0])
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *HTTP) updateLabel(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	id, err := uintVar(r, "id")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var p LabelPatch
	if err := decode(r, &p); err != nil {
		models.WriteError(w, err)
		return
	}
	l, err := h.mgr.UpdateLabel(r.Context(), siteID, id, p)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type idsBody struct {
	IDs []uint `json:"ids"`
}

func (h *HTTP) deleteLabels(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in idsBody
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	n, err := h.mgr.DeleteLabels(r.Context(), siteID, in.IDs)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// ---- devices ----

func (h *HTTP) listDevices(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	p, err := pageQuery(r)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	out, err := h.store.ListDevices(r.Context(), siteID, p)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTP) getDevice(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	id, err := uintVar(r, "id")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	d, err := h.store.GetDevice(r.Context(), siteID, id)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *HTTP) createDevice(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in DeviceInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	d, err := h.mgr.CreateDevice(r.Context(), siteID, in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *HTTP) addNIC(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	id, err := uintVar(r, "id")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in NICInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	nic, err := h.mgr.AddNIC(r.Context(), siteID, id, in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nic)
}

func (h *HTTP) addNote(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	id, err := uintVar(r, "id")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in NoteInput
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	n, err := h.mgr.AddNote(r.Context(), siteID, id, in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *HTTP) deleteDevices(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	var in idsBody
	if err := decode(r, &in); err != nil {
		models.WriteError(w, err)
		return
	}
	deleted, err := h.mgr.DeleteDevices(r.Context(), siteID, in.IDs)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// ---- sequences ----

func (h *HTTP) allocate(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	kind, err := sequence.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		models.WriteError(w, err)
		return
	}
	v, err := h.mgr.AllocateSequence(r.Context(), siteID, kind)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"kind": kind, "value": v})
}

func (h *HTTP) peek(w http.ResponseWriter, r *http.Request) {
	siteID, err := uintVar(r, "site")
	if err != nil {
		models.WriteError(w, err)
		return
	}
	kind, err := sequence.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		models.WriteError(w, err)
		return
	}
	v, err := h.mgr.Allocator().Peek(r.Context(), siteID, kind)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "next": v})
}

func pageQuery(r *http.Request) (repo.Page, error) {
	var p repo.Page
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		s := r.URL.Query().Get(name)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return p, models.Invalid(name, "must be a non-negative integer")
		}
		*dst = v
	}
	return p, nil
}
