package common

import (
	"errors"
	"fmt"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"log"

	"gorm.io/gorm"
)

func CreateProperty(params *types.CreatePropertyRequestBody, ownerID uint) (*models.Property, error) {
	conn := db.GetDb()
	property := models.Property{
		OwnerID: ownerID,
		Title:   params.Title,
	}
	if params.Available != nil {
		property.Available = *params.Available
	} else {
		property.Available = true
	}
	if err := conn.Create(&property).Error; err != nil {
		log.Printf("Error creating property: %s\n", err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return &property, nil
}

func GetProperty(id uint) (*models.Property, error) {
	conn := db.GetDb()
	var property models.Property
	if err := conn.Preload("Owner").First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return &property, nil
}

func ListOwnProperties(ownerID uint) ([]models.Property, error) {
	conn := db.GetDb()
	var properties []models.Property
	err := conn.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return properties, nil
}

func UpdateProperty(id uint, ownerID uint, params *types.UpdatePropertyRequestBody) (*models.Property, error) {
	conn := db.GetDb()
	var property models.Property
	if err := conn.First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if property.OwnerID != ownerID {
		return nil, types.ErrForbidden
	}
	values := map[string]any{}
	if params.Title != nil {
		values["title"] = *params.Title
	}
	if params.Available != nil {
		values["available"] = *params.Available
	}
	if len(values) > 0 {
		if err := conn.Model(&property).Updates(values).Error; err != nil {
			return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
		}
	}
	return &property, nil
}
