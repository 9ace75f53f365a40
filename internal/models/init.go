package models

import (
	"github.com/poshpearl/poshpearl/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultStaff 初始化默认员工账号
func InitDefaultStaff(email, password string) error {
	var count int64
	DB.Model(&User{}).Where("is_staff = ?", true).Count(&count)
	if count > 0 {
		return nil
	}

	if email == "" {
		email = "admin@poshpearl.local"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	staff := User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Store",
		LastName:     "Admin",
		IsStaff:      true,
	}

	if err := DB.Create(&staff).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_staff_created_with_default_password", "email", email)
		logger.Warnw("default_staff_password_change_required", "email", email)
	} else {
		logger.Warnw("default_staff_created", "email", email, "password_hidden", true)
	}

	return nil
}
