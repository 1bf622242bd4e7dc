package api

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inventory/m/domain"
	"inventory/m/internal/ledger"
	"inventory/m/internal/media"
)

type createItemRequest struct {
	Name       string  `json:"name"`
	Price      numeric `json:"price"`
	Quantity   numeric `json:"quantity"`
	CategoryID string  `json:"categoryId"`
	StoreID    string  `json:"storeId"`
}

// createItem accepts JSON, a url-encoded form, or multipart form data
// with an optional "image" file.
func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in ledger.CreateItemInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			h.fail(w, r, domain.Validation("Invalid multipart body"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		in = itemFromForm(r)

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			in.Image = &media.Image{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		case !errors.Is(err, http.ErrMissingFile):
			h.fail(w, r, domain.Validation("Invalid image upload"))
			return
		}

	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, domain.Validation("Invalid form body"))
			return
		}
		in = itemFromForm(r)

	default:
		var req createItemRequest
		if err := decodeJSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		in = ledger.CreateItemInput{
			Name:       req.Name,
			Price:      string(req.Price),
			Quantity:   string(req.Quantity),
			CategoryID: req.CategoryID,
			StoreID:    req.StoreID,
		}
	}

	item, err := h.ledger.CreateItem(r.Context(), currentUser(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, envelope{"item": item})
}

func itemFromForm(r *http.Request) ledger.CreateItemInput {
	return ledger.CreateItemInput{
		Name:       r.FormValue("name"),
		Price:      r.FormValue("price"),
		Quantity:   r.FormValue("quantity"),
		CategoryID: r.FormValue("categoryId"),
		StoreID:    r.FormValue("storeId"),
	}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.ledger.ListItems(r.Context(), currentUser(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{"items": items})
}

type quantityRequest struct {
	Quantity numeric `json:"quantity"`
}

func (h *Handler) updateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	qty, err := req.Quantity.Int("quantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	item, err := h.ledger.UpdateItemQuantity(r.Context(), currentUser(r.Context()), chi.URLParam(r, "id"), qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{"updatedItem": item})
}

type sellRequest struct {
	QuantitySold numeric `json:"quantitySold"`
	Purchaser    string  `json:"purchaser"`
}

func (h *Handler) sellItem(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	qty, err := req.QuantitySold.Int("quantitySold")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	item, err := h.ledger.SellItem(r.Context(), currentUser(r.Context()), chi.URLParam(r, "id"), qty, req.Purchaser)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{"updatedItem": item})
}

type swapRequest struct {
	ItemID      string  `json:"itemId"`
	Quantity    numeric `json:"quantity"`
	FromStoreID string  `json:"fromStoreId"`
	ToStoreID   string  `json:"toStoreId"`
	Direction   string  `json:"direction"`
}

func (h *Handler) swapItem(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	qty, err := req.Quantity.Int("quantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.ledger.SwapItem(r.Context(), currentUser(r.Context()), ledger.SwapInput{
		ItemID:      req.ItemID,
		Quantity:    qty,
		FromStoreID: req.FromStoreID,
		ToStoreID:   req.ToStoreID,
		Direction:   req.Direction,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	message := "Product transferred to another store"
	if req.Direction == ledger.DirectionIncoming {
		message = "Product received from another store"
	}
	respondSuccess(w, http.StatusOK, envelope{
		"message": message,
		"data":    envelope{"newLog": entry},
	})
}

type transferRequest struct {
	ItemID   string  `json:"itemId"`
	ToItemID string  `json:"toItemId"`
	Quantity numeric `json:"quantity"`
}

func (h *Handler) transferItem(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	qty, err := req.Quantity.Int("quantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	transfer, err := h.ledger.TransferItem(r.Context(), currentUser(r.Context()), ledger.TransferInput{
		ItemID:   req.ItemID,
		ToItemID: req.ToItemID,
		Quantity: qty,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{
		"message": "Stock transferred",
		"data":    transfer,
	})
}

func (h *Handler) itemLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.ledger.ItemHistory(r.Context(), currentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{"data": envelope{"logs": logs}})
}
