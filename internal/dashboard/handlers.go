package dashboard

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lawoffice/internal/auth"
	"lawoffice/pkg/models"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

// rollup holds the per-user counters shared by the overview endpoint and the
// snapshot writer. Everything is computed fresh from the live tables.
type rollup struct {
	TotalClients          int64   `json:"total_clients"`
	NewClientsThisMonth   int64   `json:"new_clients_this_month"`
	TotalAppointments     int64   `json:"total_appointments"`
	UpcomingAppointments  int64   `json:"upcoming_appointments"`
	CompletedAppointments int64   `json:"completed_appointments"`
	CancelledAppointments int64   `json:"cancelled_appointments"`
	RevenueThisMonth      float64 `json:"revenue_this_month"`
}

func (h *Handler) computeRollup(userID string, now time.Time) (rollup, error) {
	var r rollup
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	clients := func() *gorm.DB {
		return h.db.Model(&models.Client{}).Where("created_by_id = ?", userID)
	}
	appts := func() *gorm.DB {
		return h.db.Model(&models.Appointment{}).Where("user_id = ?", userID)
	}

	if err := clients().Count(&r.TotalClients).Error; err != nil {
		return r, err
	}
	if err := clients().Where("created_at >= ?", startOfMonth).
		Count(&r.NewClientsThisMonth).Error; err != nil {
		return r, err
	}
	if err := appts().Count(&r.TotalAppointments).Error; err != nil {
		return r, err
	}
	if err := appts().Where("start_time > ? AND status IN ?", now,
		[]models.AppointmentStatus{models.AppointmentScheduled, models.AppointmentConfirmed}).
		Count(&r.UpcomingAppointments).Error; err != nil {
		return r, err
	}
	if err := appts().Where("status = ?", models.AppointmentCompleted).
		Count(&r.CompletedAppointments).Error; err != nil {
		return r, err
	}
	if err := appts().Where("status = ?", models.AppointmentCancelled).
		Count(&r.CancelledAppointments).Error; err != nil {
		return r, err
	}
	if err := h.db.Model(&models.Invoice{}).
		Where("created_by_id = ? AND status = ? AND paid_at >= ?", userID, models.InvoicePaid, startOfMonth).
		Select("COALESCE(SUM(total), 0)").
		Scan(&r.RevenueThisMonth).Error; err != nil {
		return r, err
	}
	return r, nil
}

/* =============================== Overview =============================== */

type clientSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type overviewResponse struct {
	rollup
	RecentClients        []clientSummary         `json:"recent_clients"`
	UpcomingAppointments []models.Appointment    `json:"upcoming_appointments_list"`
	RecentActivities     []models.RecentActivity `json:"recent_activities"`
	UserInfo             fiber.Map               `json:"user_info"`
}

// @Summary      Dashboard overview
// @Description  Live counts, five recent clients, five soonest appointments and
// @Description  the ten latest activities for the caller
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  overviewResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /dashboard [get]
func (h *Handler) Overview(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	now := time.Now()

	r, err := h.computeRollup(userID, now)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	out := overviewResponse{
		rollup:               r,
		RecentClients:        []clientSummary{},
		UpcomingAppointments: []models.Appointment{},
		RecentActivities:     []models.RecentActivity{},
	}

	if err := h.db.Model(&models.Client{}).
		Where("created_by_id = ?", userID).
		Order("created_at DESC").
		Limit(5).
		Scan(&out.RecentClients).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	if err := h.db.
		Where("user_id = ? AND start_time > ? AND status IN ?", userID, now,
			[]models.AppointmentStatus{models.AppointmentScheduled, models.AppointmentConfirmed}).
		Order("start_time ASC").
		Limit(5).
		Find(&out.UpcomingAppointments).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	if err := h.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(10).
		Find(&out.RecentActivities).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	var u models.User
	if err := h.db.First(&u, "id = ?", userID).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	out.UserInfo = fiber.Map{
		"id":        u.ID,
		"email":     u.Email,
		"full_name": u.FullName(),
		"user_type": u.UserType,
	}

	return c.JSON(out)
}

/* =========================== Historical stats =========================== */

// @Summary      Historical dashboard stats
// @Description  Last 30 daily snapshots for the caller
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /dashboard/stats [get]
func (h *Handler) StatsHistory(c *fiber.Ctx) error {
	stats := []models.DashboardStat{}
	if err := h.db.
		Where("user_id = ?", auth.MustUserID(c)).
		Order("stat_date DESC").
		Limit(30).
		Find(&stats).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": stats})
}

// @Summary      Snapshot today's stats
// @Description  Computes the caller's rollup and upserts the (user, date) row
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.DashboardStat
// @Router       /dashboard/stats/snapshot [post]
func (h *Handler) Snapshot(c *fiber.Ctx) error {
	userID, _ := uuid.Parse(auth.MustUserID(c))
	now := time.Now()

	r, err := h.computeRollup(userID.String(), now)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	stat := models.DashboardStat{
		UserID:                userID,
		StatDate:              time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		TotalClients:          r.TotalClients,
		NewClientsThisMonth:   r.NewClientsThisMonth,
		TotalAppointments:     r.TotalAppointments,
		UpcomingAppointments:  r.UpcomingAppointments,
		CompletedAppointments: r.CompletedAppointments,
		CancelledAppointments: r.CancelledAppointments,
		RevenueThisMonth:      r.RevenueThisMonth,
	}
	if err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "stat_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_clients", "new_clients_this_month", "total_appointments",
			"upcoming_appointments", "completed_appointments",
			"cancelled_appointments", "revenue_this_month",
		}),
	}).Create(&stat).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(stat)
}

/* ================================ Charts ================================ */

func chartWindow(c *fiber.Ctx, now time.Time) time.Time {
	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	return now.AddDate(0, 0, -days)
}

type activityChartRow struct {
	Day       time.Time `json:"day"`
	Total     int64     `json:"total"`
	Completed int64     `json:"completed"`
	Cancelled int64     `json:"cancelled"`
}

// @Summary      Appointment activity chart
// @Description  Per-day appointment counts over the window (default 30 days)
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        days  query int false "window size in days"
// @Success      200  {object}  map[string]any
// @Router       /dashboard/activity-chart [get]
func (h *Handler) ActivityChart(c *fiber.Ctx) error {
	rows := []activityChartRow{}
	if err := h.db.Model(&models.Appointment{}).
		Select(`date(start_time) AS day,
	        COUNT(*) AS total,
	        COUNT(*) FILTER (WHERE status = 'completed') AS completed,
	        COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled`).
		Where("user_id = ? AND start_time >= ?", auth.MustUserID(c), chartWindow(c, time.Now())).
		Group("date(start_time)").
		Order("day ASC").
		Scan(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": rows})
}

type clientGrowthRow struct {
	Day        time.Time `json:"day"`
	NewClients int64     `json:"new_clients"`
}

// @Summary      Client growth chart
// @Description  Per-day new client counts over the window (default 30 days)
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        days  query int false "window size in days"
// @Success      200  {object}  map[string]any
// @Router       /dashboard/client-growth [get]
func (h *Handler) ClientGrowth(c *fiber.Ctx) error {
	rows := []clientGrowthRow{}
	if err := h.db.Model(&models.Client{}).
		Select("date(created_at) AS day, COUNT(*) AS new_clients").
		Where("created_by_id = ? AND created_at >= ?", auth.MustUserID(c), chartWindow(c, time.Now())).
		Group("date(created_at)").
		Order("day ASC").
		Scan(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": rows})
}

/* ============================== Activities ============================== */

// @Summary      Recent activities
// @Description  Latest 50 logged mutations for the caller
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /dashboard/activities [get]
func (h *Handler) Activities(c *fiber.Ctx) error {
	activities := []models.RecentActivity{}
	if err := h.db.
		Where("user_id = ?", auth.MustUserID(c)).
		Order("created_at DESC").
		Limit(50).
		Find(&activities).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": activities})
}
