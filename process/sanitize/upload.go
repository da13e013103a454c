package sanitize

import (
	"context"
	"fmt"

	"acquittals/models"

	"gorm.io/gorm"
)

// UploadPlan loads one upload batch and counts the records it produced.
func UploadPlan(ctx context.Context, db *gorm.DB, id uint) (models.Upload, Plan, error) {
	var up models.Upload
	if err := db.WithContext(ctx).First(&up, id).Error; err != nil {
		return up, Plan{}, fmt.Errorf("upload %d: %w", id, err)
	}
	p := Plan{Tables: map[string]int64{}}
	for _, t := range targets[:3] {
		var n int64
		if err := db.WithContext(ctx).Model(t.model).Where("upload_id = ?", id).Count(&n).Error; err != nil {
			return up, p, fmt.Errorf("count %s: %w", t.table, err)
		}
		p.Tables[t.table] = n
	}
	p.Tables["uploads"] = 1
	if up.StorePath != "" {
		p.Files = []string{up.StorePath}
	}
	return up, p, nil
}

// DeleteUpload removes an upload batch together with its records.
func DeleteUpload(ctx context.Context, db *gorm.DB, id uint) (Plan, error) {
	_, p, err := UploadPlan(ctx, db, id)
	if err != nil {
		return p, err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range targets[:3] {
			res := tx.Where("upload_id = ?", id).Delete(t.model)
			if res.Error != nil {
				return fmt.Errorf("delete %s: %w", t.table, res.Error)
			}
			p.Tables[t.table] = res.RowsAffected
		}
		return tx.Delete(&models.Upload{}, id).Error
	})
	return p, err
}
