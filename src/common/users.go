package common

import (
	"errors"
	"fmt"
	"hbs/src/db"
	"hbs/src/models"
	"hbs/src/types"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func RegisterUser(params *types.RegisterRequestBody) (*models.User, error) {
	conn := db.GetDb()
	var existing models.User
	err := conn.Where("email = ?", params.Email).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: email already registered", types.ErrForbidden)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:     params.Name,
		Email:    params.Email,
		Password: string(hash),
		UID:      uuid.NewString(),
	}
	if err := conn.Create(&user).Error; err != nil {
		log.Printf("Error creating user: %s\n", err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	return &user, nil
}

func LoginUser(params *types.LoginRequestBody) (*models.User, error) {
	conn := db.GetDb()
	var user models.User
	if err := conn.Where("email = ?", params.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %s", types.ErrTransient, err.Error())
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(params.Password)); err != nil {
		return nil, types.ErrUnauthenticated
	}
	return &user, nil
}
