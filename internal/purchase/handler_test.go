package purchase

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/premiumrays/digital-goods-backend/internal/event"
)

func newTestApp(t *testing.T) (*fiber.App, *event.Recorder) {
	t.Helper()
	svc, rec := newTestService(true)
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app.Group("/api"))
	return app, rec
}

func call(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func TestHandler_CryptoPurchaseLifecycle(t *testing.T) {
	app, rec := newTestApp(t)

	var created Purchase
	status := call(t, app, "POST", "/api/purchases",
		`{"method":"crypto","amount":40,"userId":"u1","productId":"p1","cryptoCurrency":"BTC"}`, &created)
	if status != fiber.StatusCreated || created.Status != StatusPending {
		t.Fatalf("expected pending purchase, got %d %+v", status, created)
	}

	var listed []Purchase
	call(t, app, "GET", "/api/purchases?userId=u1&status=completed", "", &listed)
	if len(listed) != 0 {
		t.Fatalf("pending purchase listed as completed: %+v", listed)
	}

	var approved Purchase
	if status := call(t, app, "PATCH", "/api/purchases/"+created.ID, `{"status":"completed"}`, &approved); status != fiber.StatusOK {
		t.Fatalf("approve returned %d", status)
	}

	call(t, app, "GET", "/api/purchases?userId=u1&status=completed", "", &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected completed purchase in listing, got %+v", listed)
	}
	if len(listed[0].Files) != 1 || listed[0].Files[0].Name != "presets.zip" {
		t.Fatalf("expected files on completed purchase, got %+v", listed[0].Files)
	}
	if got := strings.Join(rec.Names(), ","); got != "purchase-added,purchase-updated" {
		t.Fatalf("unexpected events %s", got)
	}
}

func TestHandler_ConcurrentPatchApprovals(t *testing.T) {
	app, rec := newTestApp(t)
	var created Purchase
	call(t, app, "POST", "/api/purchases",
		`{"paymentMethod":"crypto","amount":40,"userId":"u1","productId":"p1","cryptoCurrency":"BTC"}`, &created)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = call(t, app, "PATCH", "/api/purchases/"+created.ID, `{"status":"completed"}`, nil)
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		if code != fiber.StatusOK {
			t.Fatalf("expected both approvals to succeed, got %v", codes)
		}
	}
	if n := rec.Count("purchase-updated"); n != 1 {
		t.Fatalf("expected exactly one purchase-updated, got %d", n)
	}
}

func TestHandler_AdminEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	var crypto, paypal Purchase
	call(t, app, "POST", "/api/purchases",
		`{"paymentMethod":"crypto","amount":40,"userId":"u1","productId":"p1","cryptoCurrency":"BTC"}`, &crypto)
	call(t, app, "POST", "/api/purchases",
		`{"paymentMethod":"paypal","amount":40,"userId":"u1","productId":"p1"}`, &paypal)

	var pending struct {
		PendingPayments []Purchase `json:"pendingPayments"`
		TotalPending    int        `json:"totalPending"`
	}
	call(t, app, "GET", "/api/admin/payments", "", &pending)
	if pending.TotalPending != 1 || pending.PendingPayments[0].ID != crypto.ID {
		t.Fatalf("unexpected pending payments %+v", pending)
	}

	var msg map[string]any
	if status := call(t, app, "PATCH", "/api/admin/approve-payment/"+paypal.ID, "", &msg); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for paypal approval, got %d", status)
	}
	if msg["message"] != "validation failed: only crypto payments can be manually approved" {
		t.Fatalf("unexpected message %v", msg)
	}

	var approved struct {
		Success  bool     `json:"success"`
		Purchase Purchase `json:"purchase"`
	}
	if status := call(t, app, "PATCH", "/api/admin/approve-payment/"+crypto.ID, `{"approvedBy":"ops"}`, &approved); status != fiber.StatusOK {
		t.Fatalf("approve returned %d", status)
	}
	if !approved.Success || approved.Purchase.Status != StatusCompleted || approved.Purchase.ApprovedBy != "ops" {
		t.Fatalf("unexpected approval %+v", approved)
	}

	if status := call(t, app, "PATCH", "/api/admin/approve-payment/missing", "", nil); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestHandler_BadStatusFilter(t *testing.T) {
	app, _ := newTestApp(t)
	if status := call(t, app, "GET", "/api/purchases?status=pending,shipped", "", nil); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
