package billing

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lawoffice/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Client{}, &models.Invoice{}, &models.InvoiceItem{},
		&models.RecentActivity{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	recent_activities,
	invoice_items,
	invoices,
	clients,
	users
RESTART IDENTITY CASCADE`
		if err := db.Exec(sql).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})

	return db
}

func withTx(t *testing.T, db *gorm.DB, fn func(tx *gorm.DB)) {
	t.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	fn(tx)
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit tx: %v", err)
	}
}

func injectAuth(userID uuid.UUID) fiber.Handler {
	id := userID.String()
	return func(c *fiber.Ctx) error {
		c.Locals("userID", id)
		c.Locals("userType", "lawyer")
		return c.Next()
	}
}

func newTestApp(h *Handler, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(injectAuth(userID))

	app.Post("/api/billing/invoices", h.Create)
	app.Get("/api/billing/invoices", h.List)
	app.Get("/api/billing/invoices/:id", h.Get)
	app.Patch("/api/billing/invoices/:id", h.Update)
	app.Delete("/api/billing/invoices/:id", h.Delete)
	app.Post("/api/billing/invoices/:id/mark_paid", h.MarkPaid)
	app.Post("/api/billing/invoices/:id/send", h.Send)

	return app
}

func seedUser(t *testing.T, tx *gorm.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := tx.Create(&models.User{
		ID:           id,
		Email:        "u_" + id.String()[:8] + "@x.com",
		PasswordHash: "x",
		UserType:     models.UserLawyer,
		IsActive:     true,
	}).Error; err != nil {
		t.Fatal(err)
	}
	return id
}

func seedClient(t *testing.T, tx *gorm.DB, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := tx.Create(&models.Client{
		ID:          id,
		FirstName:   "Billed",
		LastName:    "Client",
		Email:       "bc_" + id.String()[:8] + "@x.com",
		IsActive:    true,
		CreatedByID: ownerID,
	}).Error; err != nil {
		t.Fatal(err)
	}
	return id
}

func postJSON(app *fiber.App, path, body string) (int, []byte) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	buf := make([]byte, 0)
	if resp.Body != nil {
		var out json.RawMessage
		_ = json.NewDecoder(resp.Body).Decode(&out)
		buf = out
	}
	return resp.StatusCode, buf
}

/* ============================================================================
   Tests — item math, transactional create, lifecycle actions
   ============================================================================ */

// Create computes totals server-side and stores every line; Get returns the
// same lines in order.
func Test_Create_ComputesTotals_And_RoundTrips(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		app := newTestApp(NewHandler(tx), me)

		body := `{
			"client_id": "` + clientID.String() + `",
			"issue_date": "2026-08-01",
			"due_date": "2026-08-31",
			"items": [
				{"description": "Consultation", "quantity": 2, "unit_price": 150.00, "tax_rate": 23},
				{"description": "Court filing", "quantity": 1, "unit_price": 80.50},
				{"description": "Research hours", "quantity": 3.5, "unit_price": 90.00, "tax_rate": 23}
			],
			"subtotal": 1, "tax_amount": 1, "total": 1
		}`
		code, raw := postJSON(app, "/api/billing/invoices", body)
		if code != 201 {
			t.Fatalf("want 201, got %d: %s", code, raw)
		}

		var created models.Invoice
		_ = json.Unmarshal(raw, &created)

		// 2*150 + 80.50 + 3.5*90 = 695.50; tax = 23% of (300 + 315) = 141.45
		if created.Subtotal != 695.50 {
			t.Fatalf("subtotal want 695.50, got %v", created.Subtotal)
		}
		if created.TaxAmount != 141.45 {
			t.Fatalf("tax want 141.45, got %v", created.TaxAmount)
		}
		if created.Total != 836.95 {
			t.Fatalf("total want 836.95, got %v", created.Total)
		}
		if created.Status != models.InvoiceDraft {
			t.Fatalf("new invoice should be draft, got %s", created.Status)
		}
		if created.InvoiceNumber == "" || !strings.HasPrefix(created.InvoiceNumber, "INV-") {
			t.Fatalf("invoice number should be generated, got %q", created.InvoiceNumber)
		}

		// Round trip with items.
		req := httptest.NewRequest("GET", "/api/billing/invoices/"+created.ID.String(), nil)
		resp, _ := app.Test(req)
		var fetched models.Invoice
		_ = json.NewDecoder(resp.Body).Decode(&fetched)
		if len(fetched.Items) != 3 {
			t.Fatalf("want 3 items back, got %d", len(fetched.Items))
		}
		found := false
		for _, it := range fetched.Items {
			if it.Description == "Consultation" && it.Amount == 369.00 {
				found = true
			}
		}
		if !found {
			t.Fatalf("consultation line should carry amount 369.00, got %+v", fetched.Items)
		}
	})
}

// No items means a validation error, not a zero-total invoice.
func Test_Create_RequiresItems(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		app := newTestApp(NewHandler(tx), me)

		code, raw := postJSON(app, "/api/billing/invoices", `{
			"client_id": "`+clientID.String()+`",
			"issue_date": "2026-08-01", "due_date": "2026-08-31", "items": []
		}`)
		if code != 400 {
			t.Fatalf("want 400, got %d: %s", code, raw)
		}
	})
}

// due_date before issue_date is a field-level error.
func Test_Create_DueBeforeIssue(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		app := newTestApp(NewHandler(tx), me)

		code, raw := postJSON(app, "/api/billing/invoices", `{
			"client_id": "`+clientID.String()+`",
			"issue_date": "2026-08-31", "due_date": "2026-08-01",
			"items": [{"description": "x", "quantity": 1, "unit_price": 1}]
		}`)
		if code != 400 {
			t.Fatalf("want 400, got %d", code)
		}
		var out struct {
			Errors map[string][]string `json:"errors"`
		}
		_ = json.Unmarshal(raw, &out)
		if len(out.Errors["due_date"]) == 0 {
			t.Fatalf("want due_date error, got %s", raw)
		}
	})
}

// Billing someone else's client reads as 404.
func Test_Create_ForeignClient_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		other := seedUser(t, tx)
		foreign := seedClient(t, tx, other)
		app := newTestApp(NewHandler(tx), me)

		code, _ := postJSON(app, "/api/billing/invoices", `{
			"client_id": "`+foreign.String()+`",
			"issue_date": "2026-08-01", "due_date": "2026-08-31",
			"items": [{"description": "x", "quantity": 1, "unit_price": 1}]
		}`)
		if code != 404 {
			t.Fatalf("want 404, got %d", code)
		}
	})
}

// A duplicate explicit invoice number is 409 and must not leave orphan items.
func Test_Create_DuplicateNumber_Conflict(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		app := newTestApp(NewHandler(tx), me)

		body := `{
			"invoice_number": "INV-FIXED-1",
			"client_id": "` + clientID.String() + `",
			"issue_date": "2026-08-01", "due_date": "2026-08-31",
			"items": [{"description": "x", "quantity": 1, "unit_price": 10}]
		}`
		code, _ := postJSON(app, "/api/billing/invoices", body)
		if code != 201 {
			t.Fatalf("first create got %d", code)
		}
		code, _ = postJSON(app, "/api/billing/invoices", body)
		if code != 409 {
			t.Fatalf("duplicate number want 409, got %d", code)
		}

		var items int64
		if err := tx.Model(&models.InvoiceItem{}).Count(&items).Error; err != nil {
			t.Fatal(err)
		}
		if items != 1 {
			t.Fatalf("want 1 stored item, got %d", items)
		}
	})
}

// Send only works from draft; mark_paid stamps paid_at exactly once.
func Test_Send_And_MarkPaid_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		app := newTestApp(NewHandler(tx), me)

		code, raw := postJSON(app, "/api/billing/invoices", `{
			"client_id": "`+clientID.String()+`",
			"issue_date": "2026-08-01", "due_date": "2026-08-31",
			"items": [{"description": "x", "quantity": 1, "unit_price": 100}]
		}`)
		if code != 201 {
			t.Fatalf("create got %d", code)
		}
		var inv models.Invoice
		_ = json.Unmarshal(raw, &inv)
		id := inv.ID.String()

		code, raw = postJSON(app, "/api/billing/invoices/"+id+"/send", "")
		if code != 200 {
			t.Fatalf("send got %d", code)
		}
		var sent models.Invoice
		_ = json.Unmarshal(raw, &sent)
		if sent.Status != models.InvoiceSent {
			t.Fatalf("want sent, got %s", sent.Status)
		}

		// Sending twice conflicts.
		code, _ = postJSON(app, "/api/billing/invoices/"+id+"/send", "")
		if code != 409 {
			t.Fatalf("second send want 409, got %d", code)
		}

		code, raw = postJSON(app, "/api/billing/invoices/"+id+"/mark_paid", "")
		if code != 200 {
			t.Fatalf("mark_paid got %d", code)
		}
		var paid models.Invoice
		_ = json.Unmarshal(raw, &paid)
		if paid.Status != models.InvoicePaid || paid.PaidAt == nil {
			t.Fatalf("want paid with timestamp, got %+v", paid)
		}

		code, raw = postJSON(app, "/api/billing/invoices/"+id+"/mark_paid", "")
		if code != 200 {
			t.Fatalf("second mark_paid got %d", code)
		}
		var again models.Invoice
		_ = json.Unmarshal(raw, &again)
		if again.PaidAt == nil || !again.PaidAt.Equal(*paid.PaidAt) {
			t.Fatalf("paid_at moved on repeat mark_paid: %v vs %v", again.PaidAt, paid.PaidAt)
		}
	})
}

// Deleting an invoice removes its items.
func Test_Delete_RemovesItems(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		app := newTestApp(NewHandler(tx), me)

		code, raw := postJSON(app, "/api/billing/invoices", `{
			"client_id": "`+clientID.String()+`",
			"issue_date": "2026-08-01", "due_date": "2026-08-31",
			"items": [{"description": "a", "quantity": 1, "unit_price": 1},
			          {"description": "b", "quantity": 1, "unit_price": 2}]
		}`)
		if code != 201 {
			t.Fatalf("create got %d", code)
		}
		var inv models.Invoice
		_ = json.Unmarshal(raw, &inv)

		req := httptest.NewRequest("DELETE", "/api/billing/invoices/"+inv.ID.String(), nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != 204 {
			t.Fatalf("delete got %d", resp.StatusCode)
		}

		var cnt int64
		if err := tx.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&cnt).Error; err != nil {
			t.Fatal(err)
		}
		if cnt != 0 {
			t.Fatalf("items should be gone, got %d", cnt)
		}
	})
}
