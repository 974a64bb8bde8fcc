package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/payflow-checkout/pkg/db/models"
)

// SQLSnapshotStore persists cart snapshots through GORM.
type SQLSnapshotStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLSnapshotStore(db *gorm.DB) (*SQLSnapshotStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &SQLSnapshotStore{db: db, now: time.Now}, nil
}

func (s *SQLSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var row models.CartSnapshot
	err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}
	return []byte(row.Payload), nil
}

func (s *SQLSnapshotStore) Save(ctx context.Context, key string, payload []byte) error {
	row := models.CartSnapshot{
		Key:       key,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "snapshot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}

func (s *SQLSnapshotStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("snapshot_key = ?", key).Delete(&models.CartSnapshot{}).Error; err != nil {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	return nil
}
