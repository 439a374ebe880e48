package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/logger"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

// auditService records write actions. Audit failures are logged and
// swallowed so an audit outage never blocks the write it describes.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an action performed by a user.
func (s *auditService) Log(userID, action, objectType, objectID, ipAddress string, metadata map[string]any) {
	entry := models.AuditLog{
		UserID:     userID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		IPAddress:  ipAddress,
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			logger.Get().Warnw("failed to marshal audit metadata", "action", action, "error", err)
		} else {
			entry.Metadata = string(raw)
		}
	}

	if err := s.db.Create(&entry).Error; err != nil {
		logger.Get().Warnw("failed to write audit log", "action", action, "object_type", objectType, "error", err)
	}
}

// Recent returns a page of audit log entries, newest first.
func (s *auditService) Recent(page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.AuditLog{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := s.db.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
