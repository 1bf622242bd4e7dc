package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	StoreID  string `json:"storeId"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sess, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.StoreID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondSuccess(w, http.StatusCreated, envelope{
		"message": "User Registered Successfully",
		"token":   sess.Token,
		"data":    envelope{"user": sess.User},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondSuccess(w, http.StatusOK, envelope{
		"message": "Login successful",
		"token":   sess.Token,
		"data":    envelope{"user": sess.User},
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, envelope{"data": envelope{"user": currentUser(r.Context())}})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{"data": envelope{"users": users}})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
