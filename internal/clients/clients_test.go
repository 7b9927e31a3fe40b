package clients

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

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
		&models.User{}, &models.Client{}, &models.ClientNote{},
		&models.ClientDocument{}, &models.Appointment{}, &models.RecentActivity{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	recent_activities,
	appointments,
	client_documents,
	client_notes,
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

// newTestApp registers client routes; sb stays nil so no storage calls leave
// the test process.
func newTestApp(h *Handler, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(injectAuth(userID))

	app.Post("/api/clients", h.Create)
	app.Get("/api/clients", h.List)
	app.Get("/api/clients/stats", h.Stats)
	app.Get("/api/clients/:id", h.Get)
	app.Patch("/api/clients/:id", h.Update)
	app.Delete("/api/clients/:id", h.Delete)
	app.Post("/api/clients/:id/activate", h.Activate)
	app.Post("/api/clients/:id/deactivate", h.Deactivate)
	app.Get("/api/clients/:id/notes_summary", h.NotesSummary)
	app.Get("/api/clients/:id/notes", h.ListNotes)
	app.Post("/api/clients/:id/notes", h.CreateNote)
	app.Patch("/api/clients/:id/notes/:noteID", h.UpdateNote)
	app.Delete("/api/clients/:id/notes/:noteID", h.DeleteNote)

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

func makeClient(t *testing.T, tx *gorm.DB, ownerID uuid.UUID, first, last, city string, active bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := tx.Create(&models.Client{
		ID:          id,
		FirstName:   first,
		LastName:    last,
		Email:       strings.ToLower(first) + "_" + id.String()[:8] + "@x.com",
		City:        city,
		IsActive:    active,
		CreatedByID: ownerID,
	}).Error; err != nil {
		t.Fatal(err)
	}
	return id
}

/* ============================================================================
   Tests — CRUD, search, isolation, lifecycle, stats, notes
   ============================================================================ */

// Create returns 201 with the computed full name; a duplicate email is 409.
func Test_Create_And_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		app := newTestApp(NewHandler(tx, nil), me)

		body := `{"first_name":"Ana","last_name":"Silva","email":"ana@example.com"}`
		req := httptest.NewRequest("POST", "/api/clients", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != 201 {
			t.Fatalf("want 201, got %d", resp.StatusCode)
		}
		var out ClientResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.FullName != "Ana Silva" {
			t.Fatalf("want full name, got %q", out.FullName)
		}

		req2 := httptest.NewRequest("POST", "/api/clients", strings.NewReader(body))
		req2.Header.Set("Content-Type", "application/json")
		resp2, _ := app.Test(req2)
		if resp2.StatusCode != 409 {
			t.Fatalf("duplicate email want 409, got %d", resp2.StatusCode)
		}
	})
}

// Validation failures use the field-map envelope.
func Test_Create_ValidationEnvelope(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		app := newTestApp(NewHandler(tx, nil), me)

		req := httptest.NewRequest("POST", "/api/clients",
			strings.NewReader(`{"first_name":"Ana","last_name":"Silva","email":"not-an-email"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != 400 {
			t.Fatalf("want 400, got %d", resp.StatusCode)
		}
		var out struct {
			Message string              `json:"message"`
			Errors  map[string][]string `json:"errors"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if len(out.Errors["email"]) == 0 {
			t.Fatalf("want email field error, got %#v", out)
		}
	})
}

// Search matches name substrings; other users' clients never leak in.
func Test_List_Search_And_Isolation(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		other := seedUser(t, tx)

		hit := makeClient(t, tx, me, "Gabriela", "Mendes", "Lisbon", true)
		makeClient(t, tx, me, "Tomas", "Pera", "Porto", true)
		makeClient(t, tx, other, "Gabriela", "Costa", "Lisbon", true)

		app := newTestApp(NewHandler(tx, nil), me)
		resp, _ := app.Test(httptest.NewRequest("GET", "/api/clients?search=gabri", nil))
		var out struct {
			Total   int64 `json:"total"`
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Total != 1 || len(out.Results) != 1 || out.Results[0].ID != hit.String() {
			t.Fatalf("search should return only my Gabriela, got %+v", out)
		}
	})
}

// Foreign client detail reads as 404.
func Test_Get_ForeignClient_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		owner := seedUser(t, tx)
		stranger := seedUser(t, tx)
		id := makeClient(t, tx, owner, "Ana", "Silva", "", true)

		app := newTestApp(NewHandler(tx, nil), stranger)
		resp, _ := app.Test(httptest.NewRequest("GET", "/api/clients/"+id.String(), nil))
		if resp.StatusCode != 404 {
			t.Fatalf("want 404, got %d", resp.StatusCode)
		}
	})
}

// Deactivate flips the flag; activate restores it; the is_active filter tracks.
func Test_Deactivate_Activate_Cycle(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		id := makeClient(t, tx, me, "Rui", "Alves", "", true)

		app := newTestApp(NewHandler(tx, nil), me)

		resp, _ := app.Test(httptest.NewRequest("POST", "/api/clients/"+id.String()+"/deactivate", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("deactivate got %d", resp.StatusCode)
		}
		var out ClientResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.IsActive {
			t.Fatal("client should be inactive")
		}

		resp2, _ := app.Test(httptest.NewRequest("GET", "/api/clients?is_active=false", nil))
		var list struct {
			Total int64 `json:"total"`
		}
		_ = json.NewDecoder(resp2.Body).Decode(&list)
		if list.Total != 1 {
			t.Fatalf("inactive filter want 1, got %d", list.Total)
		}

		resp3, _ := app.Test(httptest.NewRequest("POST", "/api/clients/"+id.String()+"/activate", nil))
		if resp3.StatusCode != 200 {
			t.Fatalf("activate got %d", resp3.StatusCode)
		}
		var back ClientResponse
		_ = json.NewDecoder(resp3.Body).Decode(&back)
		if !back.IsActive {
			t.Fatal("client should be active again")
		}
	})
}

// Stats: totals, active/inactive split, new-this-month and city breakdown.
func Test_Stats_Numbers(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)

		makeClient(t, tx, me, "A", "A", "Lisbon", true)
		makeClient(t, tx, me, "B", "B", "Lisbon", true)
		makeClient(t, tx, me, "C", "C", "Porto", false)

		// One client created well before this month.
		old := makeClient(t, tx, me, "D", "D", "", true)
		if err := tx.Model(&models.Client{}).Where("id = ?", old).
			Update("created_at", time.Now().AddDate(0, -2, 0)).Error; err != nil {
			t.Fatal(err)
		}

		app := newTestApp(NewHandler(tx, nil), me)
		resp, _ := app.Test(httptest.NewRequest("GET", "/api/clients/stats", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("got %d", resp.StatusCode)
		}

		var out ClientStatsResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.TotalClients != 4 || out.ActiveClients != 3 || out.InactiveClients != 1 {
			t.Fatalf("bad split: %+v", out)
		}
		if out.NewClientsThisMonth != 3 {
			t.Fatalf("want 3 new this month, got %d", out.NewClientsThisMonth)
		}
		if len(out.TopCities) == 0 || out.TopCities[0].City != "Lisbon" || out.TopCities[0].Count != 2 {
			t.Fatalf("top city should be Lisbon x2, got %+v", out.TopCities)
		}
	})
}

// Notes CRUD under a client, plus the summary endpoint.
func Test_Notes_CRUD_And_Summary(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		id := makeClient(t, tx, me, "Eva", "Costa", "", true)

		app := newTestApp(NewHandler(tx, nil), me)

		var noteID string
		for i, title := range []string{"first", "second", "third", "fourth"} {
			req := httptest.NewRequest("POST", "/api/clients/"+id.String()+"/notes",
				strings.NewReader(`{"title":"`+title+`","content":"c"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req)
			if resp.StatusCode != 201 {
				t.Fatalf("note %d got %d", i, resp.StatusCode)
			}
			var n models.ClientNote
			_ = json.NewDecoder(resp.Body).Decode(&n)
			noteID = n.ID.String()
		}

		resp, _ := app.Test(httptest.NewRequest("GET", "/api/clients/"+id.String()+"/notes_summary", nil))
		var sum struct {
			Count  int64               `json:"count"`
			Latest []models.ClientNote `json:"latest"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&sum)
		if sum.Count != 4 || len(sum.Latest) != 3 {
			t.Fatalf("summary want count=4 latest=3, got %+v", sum)
		}

		req := httptest.NewRequest("PATCH", "/api/clients/"+id.String()+"/notes/"+noteID,
			strings.NewReader(`{"title":"renamed"}`))
		req.Header.Set("Content-Type", "application/json")
		resp2, _ := app.Test(req)
		if resp2.StatusCode != 200 {
			t.Fatalf("update note got %d", resp2.StatusCode)
		}

		resp3, _ := app.Test(httptest.NewRequest("DELETE", "/api/clients/"+id.String()+"/notes/"+noteID, nil))
		if resp3.StatusCode != 204 {
			t.Fatalf("delete note got %d", resp3.StatusCode)
		}
	})
}

// Deleting a client removes its notes through the cascade.
func Test_Delete_CascadesNotes(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		id := makeClient(t, tx, me, "Ze", "Nunes", "", true)
		if err := tx.Create(&models.ClientNote{ClientID: id, Title: "t", Content: "c"}).Error; err != nil {
			t.Fatal(err)
		}

		app := newTestApp(NewHandler(tx, nil), me)
		resp, _ := app.Test(httptest.NewRequest("DELETE", "/api/clients/"+id.String(), nil))
		if resp.StatusCode != 204 {
			t.Fatalf("want 204, got %d", resp.StatusCode)
		}

		var cnt int64
		if err := tx.Model(&models.ClientNote{}).Where("client_id = ?", id).Count(&cnt).Error; err != nil {
			t.Fatal(err)
		}
		if cnt != 0 {
			t.Fatalf("notes should be gone, got %d", cnt)
		}
	})
}
