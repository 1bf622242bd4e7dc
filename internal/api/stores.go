package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type storeRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	store, err := h.admin.CreateStore(r.Context(), req.Name, req.Address)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, envelope{
		"message": "store created",
		"data":    envelope{"newStore": store},
	})
}

// Anonymous callers of the store reads get no user list; they only need
// the store id and name to register.
func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.admin.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if currentUser(r.Context()) == nil {
		store.Users = nil
	}
	respondSuccess(w, http.StatusOK, envelope{"data": envelope{"store": store}})
}

func (h *Handler) updateStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	store, err := h.admin.UpdateStore(r.Context(), chi.URLParam(r, "id"), req.Name, req.Address)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{
		"message": "store updated",
		"data":    envelope{"updatedStore": store},
	})
}

func (h *Handler) deleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteStore(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.admin.ListStores(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if currentUser(r.Context()) == nil {
		for i := range stores {
			stores[i].Users = nil
		}
	}
	respondSuccess(w, http.StatusOK, envelope{"data": envelope{"stores": stores}})
}

type categoryRequest struct {
	Name    string `json:"name"`
	StoreID string `json:"storeId"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := h.admin.CreateCategory(r.Context(), req.StoreID, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, envelope{
		"message": "category created",
		"data":    envelope{"category": category},
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.admin.ListCategories(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{"data": envelope{"categories": categories}})
}
