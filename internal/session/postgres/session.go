package postgres

import (
	"context"
	"time"

	sessionDatamodel "github.com/frahmantamala/expense-console/internal/core/datamodel/session"
	"github.com/frahmantamala/expense-console/internal/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionRepository(db *gorm.DB) session.RepositoryAPI {
	return &SessionRepository{db: db, now: time.Now}
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (map[string]string, error) {
	var rows []sessionDatamodel.Entry
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND expires_at > ?", sessionID, r.now()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make(map[string]string, len(rows))
	for _, row := range rows {
		entries[row.Key] = row.Value
	}
	return entries, nil
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, entries map[string]string, expiresAt time.Time) error {
	now := r.now()
	rows := make([]sessionDatamodel.Entry, 0, len(entries))
	for k, v := range entries {
		rows = append(rows, sessionDatamodel.Entry{
			SessionID: sessionID,
			Key:       k,
			Value:     v,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&rows).Error
	})
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("session_id = ?", sessionID).Delete(&sessionDatamodel.Entry{}).Error
	})
}

func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionDatamodel.Entry{})
	return res.RowsAffected, res.Error
}
