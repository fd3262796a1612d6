package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/server/authctx"
	"tillpos-backend/internal/server/logctx"
	"tillpos-backend/internal/service"
)

type stubSales struct {
	created   []api.CreateTransactionRequest
	createErr error
	printed   []api.PrintReceiptRequest
}

func (s *stubSales) Create(_ context.Context, userID string, req api.CreateTransactionRequest) (*domain.Transaction, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, req)
	return &domain.Transaction{ID: "tx-1", UserID: userID, PaymentMethod: req.PaymentMethod}, nil
}

func (s *stubSales) List(context.Context) ([]domain.Transaction, error) {
	return []domain.Transaction{{ID: "tx-1"}}, nil
}

func (s *stubSales) Export(_ context.Context, format string, now time.Time) (*service.Export, error) {
	if format == "pdf" {
		return nil, api.ErrInvalidRequest
	}
	return &service.Export{Data: []byte("Transaction ID\n"), ContentType: "text/csv; charset=utf-8", Filename: "transactions-" + now.Format("20060102") + ".csv"}, nil
}

func (s *stubSales) PrintReceipt(_ context.Context, req api.PrintReceiptRequest) error {
	s.printed = append(s.printed, req)
	return nil
}

type stubShifts struct {
	shifts   map[string]*domain.Shift
	looked   []string
	closeErr error
	closed   []api.CloseCashShiftRequest
	opened   []api.OpenCashShiftRequest
	moved    []string
}

func (s *stubShifts) Current(_ context.Context, userID string) (*domain.Shift, error) {
	for _, sh := range s.shifts {
		if sh.UserID == userID && sh.Status == domain.ShiftOpen {
			return sh, nil
		}
	}
	return nil, nil
}

func (s *stubShifts) Shift(_ context.Context, id string) (*domain.Shift, error) {
	s.looked = append(s.looked, id)
	sh, ok := s.shifts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sh, nil
}

func (s *stubShifts) Open(_ context.Context, req api.OpenCashShiftRequest) (string, error) {
	s.opened = append(s.opened, req)
	return "s-new", nil
}

func (s *stubShifts) Close(_ context.Context, req api.CloseCashShiftRequest) (*domain.ShiftReport, error) {
	if s.closeErr != nil {
		return nil, s.closeErr
	}
	s.closed = append(s.closed, req)
	return &domain.ShiftReport{ID: "r1", ShiftID: req.ShiftID, GeneratedBy: req.UserID}, nil
}

func (s *stubShifts) AddMovement(_ context.Context, userID string, req api.AddCashMovementRequest) (string, error) {
	s.moved = append(s.moved, userID+":"+req.ShiftID)
	return "m1", nil
}

func (s *stubShifts) Movements(context.Context, string) ([]domain.CashMovement, error) {
	return []domain.CashMovement{{ID: "m0"}}, nil
}

func (s *stubShifts) PrintReport(context.Context, api.PrintShiftReportRequest) error { return nil }

func (s *stubShifts) ListReports(context.Context) ([]domain.ShiftReport, error) {
	return []domain.ShiftReport{}, nil
}

type stubProducts struct{ byBarcode map[string]domain.Product }

func (s stubProducts) List(context.Context) ([]domain.Product, error) { return nil, nil }
func (s stubProducts) GetByID(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}
func (s stubProducts) GetByBarcode(_ context.Context, b string) (*domain.Product, error) {
	p, ok := s.byBarcode[b]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}
func (s stubProducts) UpdateStock(context.Context, string, int) error { return nil }
func (s stubProducts) Save(_ context.Context, p domain.Product) (*domain.Product, error) {
	if p.Barcode == "dup" {
		return nil, domain.ErrDuplicate
	}
	p.ID = "p-new"
	return &p, nil
}
func (s stubProducts) Delete(context.Context, string) error { return domain.ErrInUse }

type registrar interface{ RegisterRoutes(chi.Router) }

// serve runs one request as user against h's routes.
func serve(t *testing.T, h registrar, user *authctx.CurrentUser, method, path, body string) (*httptest.ResponseRecorder, api.Envelope[json.RawMessage]) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if user != nil {
		req = req.WithContext(authctx.WithCurrentUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env api.Envelope[json.RawMessage]
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

const (
	kasirID   = "7d3f1c2a-5b6e-4f80-9a1b-2c3d4e5f6a01"
	otherID   = "7d3f1c2a-5b6e-4f80-9a1b-2c3d4e5f6a09"
	managerID = "7d3f1c2a-5b6e-4f80-9a1b-2c3d4e5f6a02"
	shiftID   = "0b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7c01"
	productID = "c4a1e2b3-d4f5-4a6b-8c7d-9e0f1a2b3c01"
	missingID = "0b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7cff"
)

var (
	kasir   = &authctx.CurrentUser{ID: kasirID, Username: "kasir", Role: domain.RoleCashier}
	other   = &authctx.CurrentUser{ID: otherID, Username: "other", Role: domain.RoleCashier}
	manager = &authctx.CurrentUser{ID: managerID, Username: "boss", Role: domain.RoleManager}
)

func TestCreateTransaction(t *testing.T) {
	sales := &stubSales{}
	h := TransactionHandler{Service: sales}

	rec, env := serve(t, h, kasir, http.MethodPost, "/transactions",
		`{"items":[{"product_id":"`+productID+`","quantity":2}],"paymentMethod":"cash","discountData":{"discountType":"percentage","discountValue":10,"paymentAmount":50000}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var out api.CreateTransactionResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "tx-1", out.ID)
	assert.Equal(t, kasirID, out.Transaction.UserID)
	require.Len(t, sales.created, 1)
	assert.True(t, sales.created[0].DiscountData.DiscountValue.Equal(decimal.NewFromInt(10)))
}

func TestCreateTransactionErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		reason string
	}{
		{"bad json", nil, `{`, http.StatusBadRequest, api.ReasonInvalidRequest},
		{"stock", domain.ErrInsufficientStock, `{}`, http.StatusConflict, api.ReasonInsufficientStock},
		{"unknown product", domain.ErrNotFound, `{}`, http.StatusNotFound, api.ReasonNotFound},
		{"db down", io.ErrUnexpectedEOF, `{}`, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TransactionHandler{Service: &stubSales{createErr: tt.err}}
			rec, env := serve(t, h, kasir, http.MethodPost, "/transactions", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.reason, env.Error.Reason)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestExportWritesFile(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	h := TransactionHandler{Service: &stubSales{}, Now: func() time.Time { return now }}

	rec, _ := serve(t, h, kasir, http.MethodGet, "/transactions/export?format=csv", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "transactions-20240301.csv")
	assert.Equal(t, "Transaction ID\n", rec.Body.String())

	rec, _ = serve(t, h, kasir, http.MethodGet, "/transactions/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBarcodeMissIsNullData(t *testing.T) {
	h := ProductHandler{Repo: stubProducts{byBarcode: map[string]domain.Product{"123": {ID: "p1", Barcode: "123"}}}}

	rec, env := serve(t, h, kasir, http.MethodGet, "/products/barcode/999", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(env.Data))

	_, env = serve(t, h, kasir, http.MethodGet, "/products/barcode/123", "")
	var p domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "p1", p.ID)
}

func TestProductAdmin(t *testing.T) {
	h := ProductAdminHandler{Repo: stubProducts{}}

	rec, env := serve(t, h, manager, http.MethodPost, "/products", `{"name":"Teh","barcode":"dup","price":5000,"stock":1,"category":"Beverages"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.ReasonDuplicate, env.Error.Reason)

	rec, _ = serve(t, h, manager, http.MethodPost, "/products", `{"name":"","barcode":"1","price":5000,"category":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = serve(t, h, manager, http.MethodDelete, "/products/"+productID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.ReasonInUse, env.Error.Reason)

	rec, _ = serve(t, h, manager, http.MethodPut, "/products/"+productID+"/stock", `{"productId":"`+missingID+`","newStock":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, manager, http.MethodPut, "/products/"+productID+"/stock", `{"newStock":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, manager, http.MethodPut, "/products/"+productID+"/stock", `{"newStock":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductAdminRejectsMalformedIDs(t *testing.T) {
	h := ProductAdminHandler{Repo: stubProducts{}}

	rec, env := serve(t, h, manager, http.MethodDelete, "/products/p1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.ReasonNotFound, env.Error.Reason)

	rec, env = serve(t, h, manager, http.MethodPut, "/products/p1/stock", `{"newStock":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.ReasonNotFound, env.Error.Reason)

	rec, env = serve(t, h, manager, http.MethodPost, "/products", `{"id":"p1","name":"Teh","barcode":"1","price":5000,"category":"Beverages"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.ReasonInvalidRequest, env.Error.Reason)
}

func newShiftStub() *stubShifts {
	return &stubShifts{shifts: map[string]*domain.Shift{
		shiftID: {ID: shiftID, UserID: kasirID, Status: domain.ShiftOpen, InitialCash: decimal.NewFromInt(500000)},
	}}
}

func TestCurrentShift(t *testing.T) {
	shifts := newShiftStub()
	h := ShiftHandler{Service: shifts}

	_, env := serve(t, h, kasir, http.MethodGet, "/shifts/current", "")
	var sh domain.Shift
	require.NoError(t, json.Unmarshal(env.Data, &sh))
	assert.Equal(t, shiftID, sh.ID)

	rec, env := serve(t, h, other, http.MethodGet, "/shifts/current", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(env.Data))

	rec, env = serve(t, h, other, http.MethodGet, "/shifts/current?userId="+kasirID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, api.ReasonForbidden, env.Error.Reason)

	rec, _ = serve(t, h, manager, http.MethodGet, "/shifts/current?userId="+kasirID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenShiftDefaultsToCaller(t *testing.T) {
	shifts := newShiftStub()
	h := ShiftHandler{Service: shifts}

	rec, env := serve(t, h, other, http.MethodPost, "/shifts", `{"initialCash":100000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var out api.OpenCashShiftResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "s-new", out.ShiftID)
	require.Len(t, shifts.opened, 1)
	assert.Equal(t, otherID, shifts.opened[0].UserID)
}

func TestCloseShift(t *testing.T) {
	shifts := newShiftStub()
	h := ShiftHandler{Service: shifts}

	rec, _ := serve(t, h, other, http.MethodPost, "/shifts/"+shiftID+"/close", `{"actualCash":540000}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, shifts.closed)

	rec, env := serve(t, h, kasir, http.MethodPost, "/shifts/"+shiftID+"/close", `{"actualCash":540000,"notes":"short"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out api.CloseCashShiftResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, shiftID, out.ShiftID)
	require.Len(t, shifts.closed, 1)
	assert.Equal(t, kasirID, shifts.closed[0].UserID)
	require.NotNil(t, shifts.closed[0].Notes)
	assert.Equal(t, "short", *shifts.closed[0].Notes)

	shifts.closeErr = domain.ErrShiftClosed
	rec, env = serve(t, h, kasir, http.MethodPost, "/shifts/"+shiftID+"/close", `{"actualCash":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.ReasonShiftClosed, env.Error.Reason)

	rec, _ = serve(t, h, kasir, http.MethodPost, "/shifts/"+missingID+"/close", `{"actualCash":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShiftMovements(t *testing.T) {
	shifts := newShiftStub()
	h := ShiftHandler{Service: shifts}

	rec, _ := serve(t, h, manager, http.MethodPost, "/shifts/"+shiftID+"/movements", `{"movementType":"cash_out","amount":20000}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{managerID + ":" + shiftID}, shifts.moved)

	rec, env := serve(t, h, kasir, http.MethodGet, "/shifts/"+shiftID+"/movements", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var items []domain.CashMovement
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)
}

func TestHandlersWithoutUser(t *testing.T) {
	rec, env := serve(t, TransactionHandler{Service: &stubSales{}}, nil, http.MethodPost, "/transactions", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, api.ReasonUnauthorized, env.Error.Reason)

	rec, _ = serve(t, ShiftHandler{Service: newShiftStub()}, nil, http.MethodGet, "/shifts/current", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShiftRoutesRejectMalformedIDs(t *testing.T) {
	shifts := newShiftStub()
	h := ShiftHandler{Service: shifts}

	rec, env := serve(t, h, kasir, http.MethodGet, "/shifts/not-a-uuid/movements", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, api.ReasonNotFound, env.Error.Reason)

	rec, _ = serve(t, h, kasir, http.MethodPost, "/shifts/not-a-uuid/close", `{"actualCash":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, shifts.looked)
	assert.Empty(t, shifts.closed)
}

func TestUnexpectedErrorsAreLoggedNotEchoed(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	cause := errors.New(`ERROR: relation "cash_shifts" does not exist (SQLSTATE 42P01)`)

	req := httptest.NewRequest(http.MethodGet, "/shifts/current", nil)
	req = req.WithContext(logctx.WithLogger(req.Context(), logger))
	rec := httptest.NewRecorder()
	writeDomainError(rec, req, cause)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cash_shifts")
	var env api.Envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, internalErrorMessage, env.Message)
	assert.Contains(t, logs.String(), "request failed")
	assert.Contains(t, logs.String(), "cash_shifts")

	logs.Reset()
	rec = httptest.NewRecorder()
	writeDomainError(rec, req, domain.ErrShiftClosed)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrShiftClosed.Error())
	assert.Empty(t, logs.String())
}

type downDB struct{ err error }

func (d downDB) Health(context.Context) error { return d.err }

func TestHealthHidesDatabaseError(t *testing.T) {
	var logs bytes.Buffer
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			next.ServeHTTP(w, req.WithContext(logctx.WithLogger(req.Context(), logger)))
		})
	})
	HealthHandler{DB: downDB{err: errors.New("dial tcp 10.0.0.5:5432: connection refused")}}.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, logs.String(), "10.0.0.5")
}
