package appointments

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
		&models.User{}, &models.Client{}, &models.Appointment{},
		&models.RecentActivity{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		sql := `
TRUNCATE TABLE
	recent_activities,
	appointments,
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

	app.Post("/api/appointments", h.Create)
	app.Get("/api/appointments", h.List)
	app.Get("/api/appointments/upcoming", h.Upcoming)
	app.Get("/api/appointments/today", h.Today)
	app.Get("/api/appointments/stats", h.Stats)
	app.Get("/api/appointments/calendar", h.Calendar)
	app.Get("/api/appointments/:id", h.Get)
	app.Post("/api/appointments/:id/confirm", h.Confirm)
	app.Post("/api/appointments/:id/cancel", h.Cancel)
	app.Post("/api/appointments/:id/complete", h.Complete)

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

func makeAppointment(t *testing.T, tx *gorm.DB, userID uuid.UUID, status models.AppointmentStatus, start, end time.Time) uuid.UUID {
	t.Helper()
	a := models.Appointment{
		UserID:    userID,
		Title:     "Meeting",
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
	if err := tx.Create(&a).Error; err != nil {
		t.Fatal(err)
	}
	return a.ID
}

func postJSON(app *fiber.App, path, body string) (int, map[string]any) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

/* ============================================================================
   Tests — time ordering, overlap tolerance, status actions, derived listings
   ============================================================================ */

// start >= end must come back as a field-level validation error.
func Test_Create_RejectsBadTimeOrder(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		app := newTestApp(NewHandler(tx), me)

		code, out := postJSON(app, "/api/appointments",
			`{"title":"Backwards","start_time":"2026-09-01T11:00:00Z","end_time":"2026-09-01T10:00:00Z"}`)
		if code != 400 {
			t.Fatalf("want 400, got %d", code)
		}
		errs, _ := out["errors"].(map[string]any)
		if _, ok := errs["end_time"]; !ok {
			t.Fatalf("want an end_time error, got %#v", out)
		}

		// Equal start and end is also rejected.
		code, _ = postJSON(app, "/api/appointments",
			`{"title":"Zero length","start_time":"2026-09-01T10:00:00Z","end_time":"2026-09-01T10:00:00Z"}`)
		if code != 400 {
			t.Fatalf("equal times want 400, got %d", code)
		}
	})
}

// Two identical time ranges must both be accepted; there is no conflict check.
func Test_Create_AllowsOverlap(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		app := newTestApp(NewHandler(tx), me)

		body := `{"title":"Slot","start_time":"2026-09-01T10:00:00Z","end_time":"2026-09-01T11:00:00Z"}`
		for i := 0; i < 2; i++ {
			code, _ := postJSON(app, "/api/appointments", body)
			if code != 201 {
				t.Fatalf("create %d want 201, got %d", i, code)
			}
		}

		var cnt int64
		if err := tx.Model(&models.Appointment{}).Where("user_id = ?", me).Count(&cnt).Error; err != nil {
			t.Fatal(err)
		}
		if cnt != 2 {
			t.Fatalf("want 2 overlapping appointments, got %d", cnt)
		}
	})
}

// Confirm, cancel and complete should each move the status.
func Test_StatusActions(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		app := newTestApp(NewHandler(tx), me)

		now := time.Now()
		id := makeAppointment(t, tx, me, models.AppointmentScheduled, now.Add(time.Hour), now.Add(2*time.Hour))

		for _, step := range []struct {
			action string
			want   models.AppointmentStatus
		}{
			{"confirm", models.AppointmentConfirmed},
			{"complete", models.AppointmentCompleted},
			{"cancel", models.AppointmentCancelled},
		} {
			code, out := postJSON(app, "/api/appointments/"+id.String()+"/"+step.action, "")
			if code != 200 {
				t.Fatalf("%s got %d", step.action, code)
			}
			if got := out["status"]; got != string(step.want) {
				t.Fatalf("%s: want status %q, got %v", step.action, step.want, got)
			}
		}
	})
}

// Another user's appointment must read as 404 for every action.
func Test_Actions_ForeignAppointment_NotFound(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		owner := seedUser(t, tx)
		stranger := seedUser(t, tx)
		now := time.Now()
		id := makeAppointment(t, tx, owner, models.AppointmentScheduled, now.Add(time.Hour), now.Add(2*time.Hour))

		app := newTestApp(NewHandler(tx), stranger)

		for _, path := range []string{
			"/api/appointments/" + id.String(),
			"/api/appointments/" + id.String() + "/confirm",
		} {
			method := "POST"
			if !strings.HasSuffix(path, "/confirm") {
				method = "GET"
			}
			req := httptest.NewRequest(method, path, nil)
			resp, _ := app.Test(req)
			if resp.StatusCode != 404 {
				t.Fatalf("%s %s want 404, got %d", method, path, resp.StatusCode)
			}
		}
	})
}

// Upcoming excludes past, cancelled and completed entries; today is bounded
// to the current day.
func Test_Upcoming_And_Today(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		now := time.Now()

		future := makeAppointment(t, tx, me, models.AppointmentScheduled, now.Add(48*time.Hour), now.Add(49*time.Hour))
		makeAppointment(t, tx, me, models.AppointmentCancelled, now.Add(50*time.Hour), now.Add(51*time.Hour))
		makeAppointment(t, tx, me, models.AppointmentCompleted, now.Add(-2*time.Hour), now.Add(-time.Hour))
		today := makeAppointment(t, tx, me, models.AppointmentScheduled, now.Add(time.Minute), now.Add(time.Hour))

		app := newTestApp(NewHandler(tx), me)

		resp, _ := app.Test(httptest.NewRequest("GET", "/api/appointments/upcoming", nil))
		var up struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&up)
		if len(up.Results) != 2 {
			t.Fatalf("want 2 upcoming, got %d", len(up.Results))
		}
		// Soonest first.
		if up.Results[0].ID != today.String() || up.Results[1].ID != future.String() {
			t.Fatalf("upcoming order wrong: %+v", up.Results)
		}

		resp2, _ := app.Test(httptest.NewRequest("GET", "/api/appointments/today", nil))
		var td struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp2.Body).Decode(&td)
		found := false
		for _, r := range td.Results {
			if r.ID == future.String() {
				t.Fatalf("today should not include an appointment two days out")
			}
			if r.ID == today.String() {
				found = true
			}
		}
		if !found {
			t.Fatalf("today should include today's appointment, got %+v", td.Results)
		}
	})
}

// Stats endpoint counts per bucket.
func Test_Stats_Counts(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)
		now := time.Now()

		makeAppointment(t, tx, me, models.AppointmentScheduled, now.Add(24*time.Hour), now.Add(25*time.Hour))
		makeAppointment(t, tx, me, models.AppointmentCompleted, now.Add(-24*time.Hour), now.Add(-23*time.Hour))
		makeAppointment(t, tx, me, models.AppointmentCancelled, now.Add(-48*time.Hour), now.Add(-47*time.Hour))

		app := newTestApp(NewHandler(tx), me)
		resp, _ := app.Test(httptest.NewRequest("GET", "/api/appointments/stats", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("got %d", resp.StatusCode)
		}

		var out statsResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Total != 3 || out.Upcoming != 1 || out.Completed != 1 || out.Cancelled != 1 {
			t.Fatalf("unexpected stats: %+v", out)
		}
	})
}

// Date range filters narrow the listing on start_time.
func Test_List_DateRangeFilter(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)

		inRange := makeAppointment(t, tx, me, models.AppointmentScheduled,
			time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC))
		makeAppointment(t, tx, me, models.AppointmentScheduled,
			time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 1, 11, 0, 0, 0, time.UTC))

		app := newTestApp(NewHandler(tx), me)
		resp, _ := app.Test(httptest.NewRequest("GET",
			"/api/appointments?start_date=2026-09-01&end_date=2026-09-30", nil))
		var out struct {
			Total   int64 `json:"total"`
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Total != 1 || len(out.Results) != 1 || out.Results[0].ID != inRange.String() {
			t.Fatalf("want only the September appointment, got %+v", out)
		}
	})
}

// Calendar flattens the window into renderable entries with the client name
// joined in, and requires both window bounds.
func Test_Calendar_WindowAndClientNames(t *testing.T) {
	db := openTestDB(t)
	withTx(t, db, func(tx *gorm.DB) {
		me := seedUser(t, tx)

		cl := models.Client{
			FirstName:   "Ana",
			LastName:    "Silva",
			Email:       "ana_" + uuid.NewString()[:8] + "@x.com",
			CreatedByID: me,
		}
		if err := tx.Create(&cl).Error; err != nil {
			t.Fatal(err)
		}

		withClient := models.Appointment{
			UserID:    me,
			ClientID:  &cl.ID,
			Title:     "Consultation",
			StartTime: time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2026, 9, 10, 11, 0, 0, 0, time.UTC),
			Status:    models.AppointmentScheduled,
		}
		if err := tx.Create(&withClient).Error; err != nil {
			t.Fatal(err)
		}
		makeAppointment(t, tx, me, models.AppointmentScheduled,
			time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 12, 11, 0, 0, 0, time.UTC))
		// Outside the window.
		makeAppointment(t, tx, me, models.AppointmentScheduled,
			time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 1, 11, 0, 0, 0, time.UTC))

		app := newTestApp(NewHandler(tx), me)

		resp, _ := app.Test(httptest.NewRequest("GET", "/api/appointments/calendar", nil))
		if resp.StatusCode != 400 {
			t.Fatalf("missing bounds want 400, got %d", resp.StatusCode)
		}

		resp, _ = app.Test(httptest.NewRequest("GET",
			"/api/appointments/calendar?start=2026-09-01&end=2026-09-30", nil))
		if resp.StatusCode != 200 {
			t.Fatalf("got %d", resp.StatusCode)
		}
		var out struct {
			Results []struct {
				Title      string    `json:"title"`
				Start      time.Time `json:"start"`
				ClientName string    `json:"client_name"`
			} `json:"results"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if len(out.Results) != 2 {
			t.Fatalf("want the two September entries, got %+v", out.Results)
		}
		if out.Results[0].ClientName != "Ana Silva" {
			t.Fatalf("joined client name missing: %+v", out.Results[0])
		}
		if out.Results[1].ClientName != "No Client" {
			t.Fatalf("fallback name missing: %+v", out.Results[1])
		}
		if !out.Results[0].Start.Before(out.Results[1].Start) {
			t.Fatalf("entries should be ordered by start time")
		}
	})
}
