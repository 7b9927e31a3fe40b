// @title           Law Office API
// @version         1.0
// @description     Backend for a small law office: clients, cases, appointments, billing and a per-user dashboard.
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"lawoffice/pkg/database"
	"lawoffice/pkg/models"

	"lawoffice/internal/appointments"
	"lawoffice/internal/auth"
	"lawoffice/internal/billing"
	"lawoffice/internal/cases"
	"lawoffice/internal/clients"
	"lawoffice/internal/dashboard"
	"lawoffice/internal/storage"
)

func main() {
	_ = godotenv.Load()

	db := database.Init()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Client{}, &models.ClientNote{}, &models.ClientDocument{},
		&models.Case{}, &models.CaseNote{},
		&models.Appointment{},
		&models.Invoice{}, &models.InvoiceItem{},
		&models.DashboardStat{}, &models.RecentActivity{},
	); err != nil {
		log.Fatal("migration failed:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
	})

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/api")

	// Auth
	authH := auth.NewHandler(db)
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/refresh", authH.Refresh)
	api.Get("/auth/me", auth.RequireAuth(), authH.Me)
	api.Post("/auth/change-password", auth.RequireAuth(), authH.ChangePassword)
	api.Get("/auth/profile", auth.RequireAuth(), authH.Profile)
	api.Patch("/auth/profile", auth.RequireAuth(), authH.UpdateProfile)

	// User management (list/create are admin only)
	api.Get("/auth/users", auth.RequireAuth(), auth.RequireUserType("admin"), authH.ListUsers)
	api.Post("/auth/users", auth.RequireAuth(), auth.RequireUserType("admin"), authH.CreateUser)
	api.Get("/auth/users/:id", auth.RequireAuth(), authH.GetUser)
	api.Patch("/auth/users/:id", auth.RequireAuth(), authH.UpdateUser)
	api.Delete("/auth/users/:id", auth.RequireAuth(), authH.DeleteUser)

	// Storage helper
	sb := storage.NewSupabase() // uses SUPABASE_URL / SUPABASE_SECRET_KEY / SUPABASE_BUCKET

	// Clients (static routes before :id)
	clientH := clients.NewHandler(db, sb)
	api.Post("/clients", auth.RequireAuth(), clientH.Create)
	api.Get("/clients", auth.RequireAuth(), clientH.List)
	api.Get("/clients/stats", auth.RequireAuth(), clientH.Stats)
	api.Get("/clients/:id", auth.RequireAuth(), clientH.Get)
	api.Patch("/clients/:id", auth.RequireAuth(), clientH.Update)
	api.Delete("/clients/:id", auth.RequireAuth(), clientH.Delete)
	api.Post("/clients/:id/activate", auth.RequireAuth(), clientH.Activate)
	api.Post("/clients/:id/deactivate", auth.RequireAuth(), clientH.Deactivate)
	api.Get("/clients/:id/appointments", auth.RequireAuth(), clientH.Appointments)
	api.Get("/clients/:id/notes_summary", auth.RequireAuth(), clientH.NotesSummary)
	api.Get("/clients/:id/notes", auth.RequireAuth(), clientH.ListNotes)
	api.Post("/clients/:id/notes", auth.RequireAuth(), clientH.CreateNote)
	api.Patch("/clients/:id/notes/:noteID", auth.RequireAuth(), clientH.UpdateNote)
	api.Delete("/clients/:id/notes/:noteID", auth.RequireAuth(), clientH.DeleteNote)
	api.Post("/clients/:id/documents", auth.RequireAuth(), clientH.UploadDocuments)
	api.Get("/clients/:id/documents", auth.RequireAuth(), clientH.ListDocuments)
	api.Get("/clients/:id/documents/:docID/signed-url", auth.RequireAuth(), clientH.SignedDocumentURL)
	api.Delete("/clients/:id/documents/:docID", auth.RequireAuth(), clientH.DeleteDocument)

	// Cases
	caseH := cases.NewHandler(db)
	api.Post("/cases", auth.RequireAuth(), caseH.Create)
	api.Get("/cases", auth.RequireAuth(), caseH.List)
	api.Get("/cases/:id", auth.RequireAuth(), caseH.Get)
	api.Patch("/cases/:id", auth.RequireAuth(), caseH.Update)
	api.Delete("/cases/:id", auth.RequireAuth(), caseH.Delete)
	api.Post("/cases/:id/add_note", auth.RequireAuth(), caseH.AddNote)
	api.Post("/cases/:id/assign_to_me", auth.RequireAuth(), caseH.AssignToMe)
	api.Post("/cases/:id/close", auth.RequireAuth(), caseH.Close)

	// Appointments
	apptH := appointments.NewHandler(db)
	api.Post("/appointments", auth.RequireAuth(), apptH.Create)
	api.Get("/appointments", auth.RequireAuth(), apptH.List)
	api.Get("/appointments/upcoming", auth.RequireAuth(), apptH.Upcoming)
	api.Get("/appointments/today", auth.RequireAuth(), apptH.Today)
	api.Get("/appointments/stats", auth.RequireAuth(), apptH.Stats)
	api.Get("/appointments/calendar", auth.RequireAuth(), apptH.Calendar)
	api.Get("/appointments/:id", auth.RequireAuth(), apptH.Get)
	api.Patch("/appointments/:id", auth.RequireAuth(), apptH.Update)
	api.Delete("/appointments/:id", auth.RequireAuth(), apptH.Delete)
	api.Post("/appointments/:id/confirm", auth.RequireAuth(), apptH.Confirm)
	api.Post("/appointments/:id/cancel", auth.RequireAuth(), apptH.Cancel)
	api.Post("/appointments/:id/complete", auth.RequireAuth(), apptH.Complete)

	// Billing
	billH := billing.NewHandler(db)
	api.Post("/billing/invoices", auth.RequireAuth(), billH.Create)
	api.Get("/billing/invoices", auth.RequireAuth(), billH.List)
	api.Get("/billing/invoices/:id", auth.RequireAuth(), billH.Get)
	api.Patch("/billing/invoices/:id", auth.RequireAuth(), billH.Update)
	api.Delete("/billing/invoices/:id", auth.RequireAuth(), billH.Delete)
	api.Post("/billing/invoices/:id/mark_paid", auth.RequireAuth(), billH.MarkPaid)
	api.Post("/billing/invoices/:id/send", auth.RequireAuth(), billH.Send)

	// Dashboard
	dashH := dashboard.NewHandler(db)
	api.Get("/dashboard", auth.RequireAuth(), dashH.Overview)
	api.Get("/dashboard/stats", auth.RequireAuth(), dashH.StatsHistory)
	api.Post("/dashboard/stats/snapshot", auth.RequireAuth(), dashH.Snapshot)
	api.Get("/dashboard/activity-chart", auth.RequireAuth(), dashH.ActivityChart)
	api.Get("/dashboard/client-growth", auth.RequireAuth(), dashH.ClientGrowth)
	api.Get("/dashboard/activities", auth.RequireAuth(), dashH.Activities)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Println("Server running on :" + port)
	log.Fatal(app.Listen(":" + port))
}
