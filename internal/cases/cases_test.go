package cases

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

// openTestDB loads TEST_DATABASE_URL, opens a real Postgres connection,
// runs migrations, and registers a cleanup that truncates test tables after run.
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
		&models.User{}, &models.Client{}, &models.Case{}, &models.CaseNote{},
		&models.RecentActivity{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Truncate AFTER each test (data survives within a single test).
	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	recent_activities,
	case_notes,
	case_assignees,
	cases,
	clients,
	users
RESTART IDENTITY CASCADE`
		if err := db.Exec(sql).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})

	return db
}

// withTx wraps a function in a DB transaction and commits it at the end.
// If the function panics, the transaction is rolled back and the panic is rethrown.
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

// injectAuth puts auth locals into Fiber context so MustUserID works
// without a real JWT.
func injectAuth(userID uuid.UUID, userType string) fiber.Handler {
	id := userID.String()
	return func(c *fiber.Ctx) error {
		c.Locals("userID", id)
		c.Locals("userType", userType)
		return c.Next()
	}
}

// newTestApp registers routes in a safe order; static paths go before :id.
func newTestApp(h *Handler, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(injectAuth(userID, "lawyer"))

	app.Post("/api/cases", h.Create)
	app.Get("/api/cases", h.List)
	app.Get("/api/cases/:id", h.Get)
	app.Patch("/api/cases/:id", h.Update)
	app.Post("/api/cases/:id/add_note", h.AddNote)
	app.Post("/api/cases/:id/assign_to_me", h.AssignToMe)
	app.Post("/api/cases/:id/close", h.Close)

	return app
}

// seedUser inserts a lawyer account.
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

// seedClient inserts a client owned by the given user.
func seedClient(t *testing.T, tx *gorm.DB, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if err := tx.Create(&models.Client{
		ID:          id,
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "cl_" + id.String()[:8] + "@x.com",
		IsActive:    true,
		CreatedByID: ownerID,
	}).Error; err != nil {
		t.Fatal(err)
	}
	return id
}

// makeCase inserts a case with the given status and a fixed CreatedAt.
func makeCase(t *testing.T, tx *gorm.DB, ownerID, clientID uuid.UUID, status models.CaseStatus, createdAt time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	cs := models.Case{
		ID:          id,
		Title:       "Case " + id.String()[:6],
		ClientID:    clientID,
		Status:      status,
		CreatedByID: &ownerID,
		CreatedAt:   createdAt,
	}
	if err := tx.Create(&cs).Error; err != nil {
		t.Fatal(err)
	}
	return id
}

/* ============================================================================
   Tests — ownership, close semantics, assignment, pagination
   ============================================================================ */

// Create should reject a client id the caller does not own with 404.
func Test_Create_ForeignClient_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		other := seedUser(t, tx)
		foreignClient := seedClient(t, tx, other)

		app := newTestApp(NewHandler(tx), me)

		body := `{"title":"Contract dispute","client_id":"` + foreignClient.String() + `"}`
		req := httptest.NewRequest("POST", "/api/cases", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != 404 {
			t.Fatalf("want 404, got %d", resp.StatusCode)
		}
	})
}

// Another user's case should read as 404, not 403.
func Test_Get_ForeignCase_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		owner := seedUser(t, tx)
		stranger := seedUser(t, tx)
		clientID := seedClient(t, tx, owner)
		caseID := makeCase(t, tx, owner, clientID, models.CaseOpen, time.Now())

		app := newTestApp(NewHandler(tx), stranger)

		req := httptest.NewRequest("GET", "/api/cases/"+caseID.String(), nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != 404 {
			t.Fatalf("want 404, got %d", resp.StatusCode)
		}
	})
}

// Close should stamp closed_at; closing again must not move the stamp.
func Test_Close_StampsClosedAt_Once(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		caseID := makeCase(t, tx, me, clientID, models.CaseOpen, time.Now())

		app := newTestApp(NewHandler(tx), me)

		req := httptest.NewRequest("POST", "/api/cases/"+caseID.String()+"/close", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != 200 {
			t.Fatalf("close got %d", resp.StatusCode)
		}
		var first models.Case
		_ = json.NewDecoder(resp.Body).Decode(&first)
		if first.Status != models.CaseClosed || first.ClosedAt == nil {
			t.Fatalf("case should be closed with a timestamp, got %+v", first)
		}

		time.Sleep(10 * time.Millisecond)

		resp2, _ := app.Test(httptest.NewRequest("POST", "/api/cases/"+caseID.String()+"/close", nil))
		if resp2.StatusCode != 200 {
			t.Fatalf("second close got %d", resp2.StatusCode)
		}
		var second models.Case
		_ = json.NewDecoder(resp2.Body).Decode(&second)
		if second.ClosedAt == nil || !second.ClosedAt.Equal(*first.ClosedAt) {
			t.Fatalf("closed_at moved on repeat close: %v vs %v", second.ClosedAt, first.ClosedAt)
		}
	})
}

// Patching status to closed must also stamp closed_at.
func Test_Update_StatusClosed_StampsClosedAt(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		caseID := makeCase(t, tx, me, clientID, models.CaseInProgress, time.Now())

		app := newTestApp(NewHandler(tx), me)

		req := httptest.NewRequest("PATCH", "/api/cases/"+caseID.String(),
			strings.NewReader(`{"status":"closed"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != 200 {
			t.Fatalf("patch got %d", resp.StatusCode)
		}
		var out models.Case
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Status != models.CaseClosed || out.ClosedAt == nil {
			t.Fatalf("patch to closed should stamp closed_at, got %+v", out)
		}
	})
}

// assign_to_me twice should leave exactly one assignee row and make the
// case visible to the assignee.
func Test_AssignToMe_Idempotent(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		owner := seedUser(t, tx)
		colleague := seedUser(t, tx)
		clientID := seedClient(t, tx, owner)
		caseID := makeCase(t, tx, owner, clientID, models.CaseOpen, time.Now())

		// Seed the assignment row directly so the case is already visible
		// to the colleague; the action must then stay a no-op.
		if err := tx.Exec("INSERT INTO case_assignees (case_id, user_id) VALUES (?, ?)",
			caseID, colleague).Error; err != nil {
			t.Fatal(err)
		}

		app := newTestApp(NewHandler(tx), colleague)

		for i := 0; i < 2; i++ {
			resp, _ := app.Test(httptest.NewRequest("POST", "/api/cases/"+caseID.String()+"/assign_to_me", nil))
			if resp.StatusCode != 200 {
				t.Fatalf("assign %d got %d", i, resp.StatusCode)
			}
		}

		var cnt int64
		if err := tx.Table("case_assignees").
			Where("case_id = ? AND user_id = ?", caseID, colleague).
			Count(&cnt).Error; err != nil {
			t.Fatal(err)
		}
		if cnt != 1 {
			t.Fatalf("want exactly 1 assignment row, got %d", cnt)
		}

		// And the case shows up in the colleague's list exactly once.
		resp, _ := app.Test(httptest.NewRequest("GET", "/api/cases", nil))
		var out struct {
			Total   int64 `json:"total"`
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Total != 1 || len(out.Results) != 1 || out.Results[0].ID != caseID.String() {
			t.Fatalf("assignee should see the case once, got %+v", out)
		}
	})
}

// List should paginate DESC by created_at and carry notes counts.
func Test_List_Pagination_And_NoteCounts(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)

		now := time.Now()
		c1 := makeCase(t, tx, me, clientID, models.CaseOpen, now.Add(-3*time.Minute))
		c2 := makeCase(t, tx, me, clientID, models.CaseOpen, now.Add(-2*time.Minute))
		c3 := makeCase(t, tx, me, clientID, models.CaseOpen, now.Add(-1*time.Minute))

		for i := 0; i < 2; i++ {
			if err := tx.Create(&models.CaseNote{CaseID: c1, Content: "n"}).Error; err != nil {
				t.Fatal(err)
			}
		}
		if err := tx.Create(&models.CaseNote{CaseID: c2, Content: "n"}).Error; err != nil {
			t.Fatal(err)
		}

		app := newTestApp(NewHandler(tx), me)

		req := httptest.NewRequest("GET", "/api/cases?page=1&pageSize=2", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != 200 {
			t.Fatalf("got %d", resp.StatusCode)
		}

		var out struct {
			Total   int64 `json:"total"`
			Pages   int   `json:"pages"`
			Results []struct {
				ID         string `json:"id"`
				NotesCount int64  `json:"notes_count"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)

		if out.Total != 3 || out.Pages != 2 {
			t.Fatalf("want total=3 pages=2, got %+v", out)
		}
		if len(out.Results) != 2 {
			t.Fatalf("want 2 rows, got %d", len(out.Results))
		}
		if out.Results[0].ID != c3.String() || out.Results[0].NotesCount != 0 {
			t.Fatalf("row[0] should be newest with 0 notes, got %+v", out.Results[0])
		}
		if out.Results[1].ID != c2.String() || out.Results[1].NotesCount != 1 {
			t.Fatalf("row[1] should be c2 with 1 note, got %+v", out.Results[1])
		}
	})
}

// Status filter should reject garbage and narrow results.
func Test_List_StatusFilter(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		makeCase(t, tx, me, clientID, models.CaseOpen, time.Now())
		closed := makeCase(t, tx, me, clientID, models.CaseClosed, time.Now())

		app := newTestApp(NewHandler(tx), me)

		resp, _ := app.Test(httptest.NewRequest("GET", "/api/cases?status=closed", nil))
		var out struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if len(out.Results) != 1 || out.Results[0].ID != closed.String() {
			t.Fatalf("want only the closed case, got %+v", out.Results)
		}

		resp2, _ := app.Test(httptest.NewRequest("GET", "/api/cases?status=bogus", nil))
		if resp2.StatusCode != 400 {
			t.Fatalf("bogus status filter want 400, got %d", resp2.StatusCode)
		}
	})
}

// AddNote should attribute the note to the caller.
func Test_AddNote_AttributesAuthor(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		clientID := seedClient(t, tx, me)
		caseID := makeCase(t, tx, me, clientID, models.CaseOpen, time.Now())

		app := newTestApp(NewHandler(tx), me)

		req := httptest.NewRequest("POST", "/api/cases/"+caseID.String()+"/add_note",
			strings.NewReader(`{"content":"met the client today"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != 201 {
			t.Fatalf("want 201, got %d", resp.StatusCode)
		}
		var note models.CaseNote
		_ = json.NewDecoder(resp.Body).Decode(&note)
		if note.AuthorID == nil || *note.AuthorID != me {
			t.Fatalf("note should carry the author, got %+v", note)
		}
	})
}
