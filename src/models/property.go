package models

import (
	"hbs/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Property is the thin resource-catalog surface the coordinator needs: a
// display name and the availability flag of record.
type Property struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	OwnerID   uint   `json:"owner_id"`
	Title     string `json:"title"`
	Slug      string `json:"slug,omitempty"`
	Available bool   `gorm:"default:true" json:"available"`

	Owner User `json:"owner,omitempty"`

	types.Timestamps
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	return nil
}
