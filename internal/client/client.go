// Package client calls the till backend over HTTP. Every method validates its
// request before sending it and returns apperr errors: Connection when the
// backend could not be reached, Backend when it rejected the call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/apperr"
	"tillpos-backend/internal/domain"
)

var (
	ErrConnection       = errors.New("cannot reach backend")
	ErrUnexpectedStatus = errors.New("unexpected backend response")
	ErrNotConfigured    = errors.New("client not configured")
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token sent with every request. An empty token
// sends none.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) AuthenticateUser(ctx context.Context, req api.AuthenticateUserRequest) (*api.AuthenticateUserResponse, error) {
	const op = "client.AuthenticateUser"
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(op, err, "")
	}
	var out api.AuthenticateUserResponse
	if err := c.do(ctx, op, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, "client.GetProducts", http.MethodGet, "/products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProductByBarcode returns nil without error when no product matches.
func (c *Client) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	const op = "client.GetProductByBarcode"
	if strings.TrimSpace(barcode) == "" {
		return nil, apperr.Invalid(op, api.ErrInvalidRequest, "barcode is required")
	}
	var out *domain.Product
	if err := c.do(ctx, op, http.MethodGet, "/products/barcode/"+url.PathEscape(barcode), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateProductStock(ctx context.Context, req api.UpdateProductStockRequest) error {
	const op = "client.UpdateProductStock"
	if err := req.Validate(); err != nil {
		return apperr.Invalid(op, err, "")
	}
	return c.do(ctx, op, http.MethodPut, "/products/"+url.PathEscape(req.ProductID)+"/stock", nil, req, nil)
}

func (c *Client) SaveProduct(ctx context.Context, req api.SaveProductRequest) (*domain.Product, error) {
	const op = "client.SaveProduct"
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(op, err, "")
	}
	var out domain.Product
	if err := c.do(ctx, op, http.MethodPost, "/products", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, "client.DeleteProduct", http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, req api.CreateTransactionRequest) (*api.CreateTransactionResponse, error) {
	const op = "client.CreateTransaction"
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(op, err, "")
	}
	var out api.CreateTransactionResponse
	if err := c.do(ctx, op, http.MethodPost, "/transactions", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var out []domain.Transaction
	if err := c.do(ctx, "client.GetTransactions", http.MethodGet, "/transactions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportTransactions downloads the transaction export in format ("csv" or
// "xlsx") as raw file bytes.
func (c *Client) ExportTransactions(ctx context.Context, format string) ([]byte, error) {
	const op = "client.ExportTransactions"
	resp, err := c.send(ctx, op, http.MethodGet, "/transactions/export", url.Values{"format": {format}}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(op, resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Connection, Op: op, Err: errors.Join(ErrConnection, err)}
	}
	return body, nil
}

func (c *Client) PrintReceipt(ctx context.Context, req api.PrintReceiptRequest) error {
	const op = "client.PrintReceipt"
	if err := req.Validate(); err != nil {
		return apperr.Invalid(op, err, "")
	}
	return c.do(ctx, op, http.MethodPost, "/receipts/print", nil, req, nil)
}

// GetCurrentShift returns nil without error when the user has no open shift.
func (c *Client) GetCurrentShift(ctx context.Context, userID string) (*domain.Shift, error) {
	var out *domain.Shift
	if err := c.do(ctx, "client.GetCurrentShift", http.MethodGet, "/shifts/current", url.Values{"userId": {userID}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) OpenCashShift(ctx context.Context, req api.OpenCashShiftRequest) (*api.OpenCashShiftResponse, error) {
	const op = "client.OpenCashShift"
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(op, err, "")
	}
	var out api.OpenCashShiftResponse
	if err := c.do(ctx, op, http.MethodPost, "/shifts", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CloseCashShift(ctx context.Context, req api.CloseCashShiftRequest) (*api.CloseCashShiftResponse, error) {
	const op = "client.CloseCashShift"
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(op, err, "")
	}
	var out api.CloseCashShiftResponse
	if err := c.do(ctx, op, http.MethodPost, "/shifts/"+url.PathEscape(req.ShiftID)+"/close", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddCashMovement(ctx context.Context, req api.AddCashMovementRequest) (*api.AddCashMovementResponse, error) {
	const op = "client.AddCashMovement"
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(op, err, "")
	}
	var out api.AddCashMovementResponse
	if err := c.do(ctx, op, http.MethodPost, "/shifts/"+url.PathEscape(req.ShiftID)+"/movements", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCashMovements(ctx context.Context, shiftID string) ([]domain.CashMovement, error) {
	var out []domain.CashMovement
	if err := c.do(ctx, "client.GetCashMovements", http.MethodGet, "/shifts/"+url.PathEscape(shiftID)+"/movements", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PrintShiftReport(ctx context.Context, req api.PrintShiftReportRequest) error {
	const op = "client.PrintShiftReport"
	if err := req.Validate(); err != nil {
		return apperr.Invalid(op, err, "")
	}
	return c.do(ctx, op, http.MethodPost, "/shifts/"+url.PathEscape(req.ShiftID)+"/report/print", nil, req, nil)
}

func (c *Client) GetShiftReports(ctx context.Context) ([]domain.ShiftReport, error) {
	var out []domain.ShiftReport
	if err := c.do(ctx, "client.GetShiftReports", http.MethodGet, "/shift-reports", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := c.do(ctx, "client.GetUsers", http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, req api.CreateUserRequest) (*domain.User, error) {
	const op = "client.CreateUser"
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(op, err, "")
	}
	var out domain.User
	if err := c.do(ctx, op, http.MethodPost, "/users", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends body as JSON and decodes the envelope's data into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(op, resp)
	}

	var env api.Envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &apperr.Error{Kind: apperr.Unexpected, Op: op, Message: "decode response", Err: err}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &apperr.Error{Kind: apperr.Unexpected, Op: op, Message: "decode data", Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body any) (*http.Response, error) {
	if c == nil || c.baseURL == "" {
		return nil, &apperr.Error{Kind: apperr.Connection, Op: op, Err: errors.Join(ErrConnection, ErrNotConfigured)}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &apperr.Error{Kind: apperr.Unexpected, Op: op, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Unexpected, Op: op, Message: "create request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Connection, Op: op, Err: errors.Join(ErrConnection, err)}
	}
	return resp, nil
}

func decodeError(op string, resp *http.Response) error {
	var env api.Envelope[json.RawMessage]
	_ = json.NewDecoder(resp.Body).Decode(&env)

	var sentinel error
	if env.Error != nil {
		sentinel = api.ErrorForReason(env.Error.Reason)
	}
	if sentinel == nil {
		sentinel = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &apperr.Error{Kind: apperr.Backend, Op: op, Message: msg, Err: sentinel}
}
