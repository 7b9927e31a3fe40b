package utils

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lawoffice/pkg/models"
)

// LogActivity inserts a recent-activity record for the dashboard feed.
// Used to track mutations (client created, appointment cancelled, ...).
// Errors are ignored on purpose (best-effort logging).
func LogActivity(
	ctx context.Context,
	db *gorm.DB,
	userID uuid.UUID,
	actionType, description string,
	relatedID *uuid.UUID,
) {
	_ = db.WithContext(ctx).Create(&models.RecentActivity{
		UserID:          userID,
		ActionType:      actionType,
		Description:     description,
		RelatedObjectID: relatedID,
		CreatedAt:       time.Now(),
	}).Error
}

const invoiceNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateInvoiceNumber builds a unique-enough invoice number like
// INV-20250115-K3QX7N. Uniqueness is still enforced by the DB index.
func GenerateInvoiceNumber(now time.Time) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = invoiceNumberAlphabet[int(buf[i])%len(invoiceNumberAlphabet)]
	}
	return "INV-" + now.Format("20060102") + "-" + string(buf)
}
