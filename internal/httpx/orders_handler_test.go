package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/goodluckbakery/shop/internal/orders"
	"github.com/goodluckbakery/shop/internal/redisx"
)

type fakeOrderReader struct {
	byUser map[string]*orders.Order
	gets   int
}

func (f *fakeOrderReader) ListByUser(ctx context.Context, userID string) ([]orders.Order, error) {
	if o := f.byUser[userID]; o != nil {
		return []orders.Order{*o}, nil
	}
	return nil, nil
}

func (f *fakeOrderReader) GetByNumber(ctx context.Context, userID, orderNumber string) (*orders.Order, error) {
	f.gets++
	o := f.byUser[userID]
	if o == nil || o.OrderNumber != orderNumber {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

func statusRouter(t *testing.T) (http.Handler, *fakeOrderReader, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := &fakeOrderReader{byUser: map[string]*orders.Order{
		"alice": {
			OrderNumber:   "GLB-20240131154502-1234",
			UserID:        "alice",
			Status:        orders.StatusPending,
			PaymentStatus: orders.PaymentPending,
			Total:         decimal.NewFromInt(100),
			CreatedAt:     time.Now(),
		},
	}}
	r := NewRouter(zerolog.Nop())
	(&OrdersHandler{Repo: store, Redis: redisx.New(mr.Addr())}).Register(r)
	return r, store, mr
}

func getStatus(r http.Handler, user, number string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/orders/"+number+"/status", nil)
	req.Header.Set("X-User-ID", user)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// A cached status entry belongs to one user. Another user asking about the
// same order number must go through the ownership check, not the cache.
func TestOrderStatusCacheScopedToOwner(t *testing.T) {
	r, store, mr := statusRouter(t)

	key := fmt.Sprintf(redisx.KeyOrderStatus, "alice", "GLB-20240131154502-1234")
	_ = mr.Set(key, `{"status":"confirmed","payment_status":"paid"}`)

	rec := getStatus(r, "alice", "GLB-20240131154502-1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "confirmed")
	assert.Equal(t, 0, store.gets, "cache hit must not consult the store")

	rec = getStatus(r, "bob", "GLB-20240131154502-1234")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "confirmed")
}

func TestOrderStatusFallsBackToStoreAndRecaches(t *testing.T) {
	r, store, mr := statusRouter(t)

	rec := getStatus(r, "alice", "GLB-20240131154502-1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending")
	assert.Equal(t, 1, store.gets)

	cached, err := mr.Get(fmt.Sprintf(redisx.KeyOrderStatus, "alice", "GLB-20240131154502-1234"))
	assert.NoError(t, err)
	assert.Contains(t, cached, "pending")

	// second poll is served from the cache
	rec = getStatus(r, "alice", "GLB-20240131154502-1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.gets)
}
