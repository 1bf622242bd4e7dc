package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory/m/domain"
	"inventory/m/internal/admin"
	"inventory/m/internal/auth"
	"inventory/m/internal/database"
	"inventory/m/internal/ledger"
	"inventory/m/internal/logging"
	"inventory/m/internal/media"
	"inventory/m/internal/migrations"
	"inventory/m/internal/repository"
)

type stubUploader struct{ names []string }

func (s *stubUploader) Upload(_ context.Context, img media.Image) (string, error) {
	s.names = append(s.names, img.Filename)
	return "https://cdn.example.com/items/" + img.Filename, nil
}

type testAPI struct {
	t        *testing.T
	srv      *httptest.Server
	uploader *stubUploader
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db))

	repos := repository.NewSQLManager(db)
	logger := logging.Discard()
	up := &stubUploader{}
	h := New(Services{
		Auth:   auth.NewService(repos, auth.NewTokenIssuer("test-secret", time.Hour), nil, logger),
		Ledger: ledger.NewService(repos, up, logger),
		Admin:  admin.NewService(repos, logger),
	}, logger, []string{"http://localhost:8810"})

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv, uploader: up}
}

func (a *testAPI) send(req *http.Request, token string) (*http.Response, map[string]any) {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) == 0 {
		return resp, nil
	}
	var body map[string]any
	require.NoError(a.t, json.Unmarshal(raw, &body), string(raw))
	return resp, body
}

func (a *testAPI) do(method, path, token string, payload any) (*http.Response, map[string]any) {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(a.t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, body)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	return a.send(req, token)
}

// field walks nested JSON objects.
func field(t *testing.T, body map[string]any, path ...string) any {
	t.Helper()
	var cur any = body
	for _, p := range path {
		m, ok := cur.(map[string]any)
		require.True(t, ok, "no object at %q", p)
		cur = m[p]
	}
	return cur
}

func str(t *testing.T, body map[string]any, path ...string) string {
	t.Helper()
	s, ok := field(t, body, path...).(string)
	require.True(t, ok, "%v is not a string", path)
	return s
}

type session struct {
	storeID    string
	categoryID string
	token      string
}

func (a *testAPI) bootstrap() session {
	a.t.Helper()
	resp, body := a.do(http.MethodPost, "/stores", "", map[string]any{"name": "Main", "address": "1 High St"})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	storeID := str(a.t, body, "data", "newStore", "id")

	resp, body = a.do(http.MethodPost, "/register", "", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": "s3cret", "storeId": storeID,
	})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(a.t, str(a.t, body, "token"))

	resp, body = a.do(http.MethodPost, "/login", "", map[string]any{"email": "ann@example.com", "password": "s3cret"})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	token := str(a.t, body, "token")

	resp, body = a.do(http.MethodPost, "/categories", token, map[string]any{"name": "Tools", "storeId": storeID})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)

	return session{storeID: storeID, categoryID: str(a.t, body, "data", "category", "id"), token: token}
}

func (a *testAPI) createItem(s session, name string, qty int) string {
	a.t.Helper()
	resp, body := a.do(http.MethodPost, "/items", s.token, map[string]any{
		"name": name, "price": "12.50", "quantity": qty, "categoryId": s.categoryID, "storeId": s.storeID,
	})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode, body)
	return str(a.t, body, "item", "id")
}

func TestEndToEndSell(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()

	itemID := a.createItem(s, "Hammer", 10)

	resp, body := a.do(http.MethodPost, "/items/"+itemID+"/sell", s.token, map[string]any{"quantitySold": 3, "purchaser": "bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 7, field(t, body, "updatedItem", "quantity"))

	resp, body = a.do(http.MethodGet, "/items/"+itemID+"/logs", s.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs, ok := field(t, body, "data", "logs").([]any)
	require.True(t, ok)
	require.Len(t, logs, 2)
	sell := logs[0].(map[string]any)
	assert.Equal(t, "SELL", sell["action"])
	assert.EqualValues(t, 3, sell["quantity"])
	assert.Equal(t, "bob", sell["purchaser"])

	resp, body = a.do(http.MethodPost, "/items/"+itemID+"/sell", s.token, map[string]any{"quantitySold": 100, "purchaser": "bob"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Insufficient quantity. Kindly restock.", body["message"])

	resp, body = a.do(http.MethodGet, "/items", s.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 7, items[0].(map[string]any)["quantity"])
}

func TestAuthEnvelope(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()

	resp, body := a.do(http.MethodGet, "/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid authorization header format", body["message"])

	resp, _ = a.do(http.MethodGet, "/items", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = a.do(http.MethodGet, "/me", s.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ann@example.com", str(t, body, "data", "user", "email"))
	assert.Nil(t, field(t, body, "data", "user", "password"))

	resp, body = a.do(http.MethodPost, "/register", "", map[string]any{
		"name": "Ann", "email": "ANN@example.com", "password": "x", "storeId": s.storeID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", body["message"])

	resp, _ = a.do(http.MethodPost, "/login", "", map[string]any{"email": "ann@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(http.MethodPost, "/login", "", map[string]any{"email": "nobody@example.com", "password": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(http.MethodPost, "/login", "", map[string]any{"email": "ann@example.com", "password": "x", "extra": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestItemMutations(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()
	itemID := a.createItem(s, "Hammer", 5)

	resp, body := a.do(http.MethodPatch, "/items/"+itemID+"/quantity", s.token, map[string]any{"quantity": 9})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 9, field(t, body, "updatedItem", "quantity"))

	resp, _ = a.do(http.MethodPatch, "/items/"+itemID+"/quantity", s.token, map[string]any{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(http.MethodPatch, "/items/missing/quantity", s.token, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(http.MethodPost, "/items", s.token, map[string]any{
		"name": "Saw", "price": 3, "quantity": "abc", "categoryId": s.categoryID, "storeId": s.storeID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])

	// Second store and its counterpart item.
	resp, body = a.do(http.MethodPost, "/stores", "", map[string]any{"name": "Annex", "address": "2 Low St"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	otherStore := str(t, body, "data", "newStore", "id")
	resp, body = a.do(http.MethodPost, "/categories", s.token, map[string]any{"name": "Tools", "storeId": otherStore})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	otherCategory := str(t, body, "data", "category", "id")
	resp, body = a.do(http.MethodPost, "/items", s.token, map[string]any{
		"name": "Hammer", "price": 12.5, "quantity": 1, "categoryId": otherCategory, "storeId": otherStore,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	otherItem := str(t, body, "item", "id")

	resp, body = a.do(http.MethodPost, "/items/swap", s.token, map[string]any{
		"itemId": itemID, "quantity": 2, "fromStoreId": otherStore, "toStoreId": s.storeID, "direction": "outgoing",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Item does not belong to the store", body["message"])

	resp, body = a.do(http.MethodPost, "/items/swap", s.token, map[string]any{
		"itemId": itemID, "quantity": 2, "fromStoreId": s.storeID, "toStoreId": otherStore, "direction": "outgoing",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Product transferred to another store", body["message"])
	assert.Equal(t, "SWAP_OUTGOING", str(t, body, "data", "newLog", "action"))

	resp, body = a.do(http.MethodPost, "/items/swap", s.token, map[string]any{
		"itemId": otherItem, "quantity": 2, "fromStoreId": s.storeID, "toStoreId": otherStore, "direction": "incoming",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Product received from another store", body["message"])

	resp, _ = a.do(http.MethodPost, "/items/swap", s.token, map[string]any{
		"itemId": itemID, "quantity": 1, "fromStoreId": s.storeID, "toStoreId": otherStore, "direction": "up",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = a.do(http.MethodPost, "/items/transfer", s.token, map[string]any{"itemId": itemID, "toItemId": otherItem, "quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, field(t, body, "data", "source", "quantity"))
	assert.EqualValues(t, 6, field(t, body, "data", "destination", "quantity"))

	resp, _ = a.do(http.MethodPost, "/items/transfer", s.token, map[string]any{"itemId": itemID, "toItemId": otherItem, "quantity": 50})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = a.do(http.MethodGet, "/stores/"+otherStore, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := field(t, body, "data", "store", "items").([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 6, items[0].(map[string]any)["quantity"])
}

func TestCreateItem_Multipart(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"name": "Drill", "price": "99.90", "quantity": "4", "categoryId": s.categoryID, "storeId": s.storeID,
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "drill.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/items", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, body := a.send(req, s.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "https://cdn.example.com/items/drill.png", str(t, body, "item", "imageUrl"))
	assert.EqualValues(t, 99.9, field(t, body, "item", "price"))
	assert.Equal(t, []string{"drill.png"}, a.uploader.names)
}

func TestStoreAdministration(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()

	resp, body := a.do(http.MethodPost, "/stores", "", map[string]any{"name": "", "address": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "All fields required", body["message"])

	resp, _ = a.do(http.MethodPatch, "/stores/"+s.storeID, "", map[string]any{"name": "New", "address": "Addr"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = a.do(http.MethodPatch, "/stores/"+s.storeID, s.token, map[string]any{"name": "New", "address": "Addr"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "New", str(t, body, "data", "updatedStore", "name"))

	resp, body = a.do(http.MethodGet, "/stores", s.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stores := field(t, body, "data", "stores").([]any)
	require.Len(t, stores, 1)
	assert.Len(t, stores[0].(map[string]any)["users"], 1)

	resp, body = a.do(http.MethodGet, "/stores/"+s.storeID, s.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field(t, body, "data", "store", "users"), 1)

	resp, _ = a.do(http.MethodGet, "/stores", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = a.do(http.MethodGet, "/stores/"+s.storeID+"/categories", s.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field(t, body, "data", "categories"), 1)

	resp, body = a.do(http.MethodGet, "/users", s.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := field(t, body, "data", "users").([]any)
	require.Len(t, users, 1)
	userID := users[0].(map[string]any)["id"].(string)

	resp, _ = a.do(http.MethodGet, "/stores/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(http.MethodDelete, "/stores/"+s.storeID, s.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, body)

	// The store took its users with it, so the token no longer resolves.
	resp, _ = a.do(http.MethodDelete, "/users/"+userID, s.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStoreReads_AnonymousSeeNoUsers(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()

	resp, body := a.do(http.MethodGet, "/stores", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stores := field(t, body, "data", "stores").([]any)
	require.Len(t, stores, 1)
	store := stores[0].(map[string]any)
	assert.Equal(t, s.storeID, store["id"])
	assert.Equal(t, "Main", store["name"])
	assert.NotContains(t, store, "users")

	resp, body = a.do(http.MethodGet, "/stores/"+s.storeID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, field(t, body, "data", "store").(map[string]any), "users")
	assert.Len(t, field(t, body, "data", "store", "categories"), 1)
}

func TestCreateItem_URLEncodedForm(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()

	form := url.Values{
		"name": {"Saw"}, "price": {"15"}, "quantity": {"2"}, "categoryId": {s.categoryID}, "storeId": {s.storeID},
	}
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/items", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, body := a.send(req, s.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "Saw", str(t, body, "item", "name"))
	assert.EqualValues(t, 2, field(t, body, "item", "quantity"))
	assert.Empty(t, a.uploader.names)
}

func TestDeleteUser(t *testing.T) {
	a := newTestAPI(t)
	s := a.bootstrap()

	resp, body := a.do(http.MethodPost, "/register", "", map[string]any{
		"name": "Bob", "email": "bob@example.com", "password": "pw", "storeId": s.storeID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bobID := str(t, body, "data", "user", "id")

	resp, body = a.do(http.MethodDelete, "/users/"+bobID, s.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, body)

	resp, body = a.do(http.MethodDelete, "/users/"+bobID, s.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["message"])
}

func TestHealthAndCORS(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))

	req, err := http.NewRequest(http.MethodOptions, a.srv.URL+"/items", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8810")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, _ = a.send(req, "")
	assert.Equal(t, "http://localhost:8810", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestFail_HidesUnknownErrors(t *testing.T) {
	h := New(Services{}, logging.Discard(), nil)
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.Validation("bad"), http.StatusBadRequest, "bad"},
		{domain.Conflict("dup"), http.StatusBadRequest, "dup"},
		{domain.InsufficientStock("short"), http.StatusBadRequest, "short"},
		{domain.Unauthorized("nope"), http.StatusUnauthorized, "nope"},
		{fmt.Errorf("lookup: %w", domain.ErrNotFound), http.StatusNotFound, "not found"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		assert.Equal(t, tt.status, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, tt.msg, body["message"])
	}
}

func TestNumeric(t *testing.T) {
	var req quantityRequest
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":"12"}`), &req))
	n, err := req.Quantity.Int("quantity")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	require.NoError(t, json.Unmarshal([]byte(`{"quantity":7}`), &req))
	n, err = req.Quantity.Int("quantity")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	require.NoError(t, json.Unmarshal([]byte(`{"quantity":1.5}`), &req))
	_, err = req.Quantity.Int("quantity")
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = quantityRequest{}
	_, err = req.Quantity.Int("quantity")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Error(t, json.Unmarshal([]byte(`{"quantity":true}`), &req))
}
