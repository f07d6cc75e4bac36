package validation

import (
	"fmt"
	"regexp"
)

// PhonePattern определяет допустимый формат номера телефона
// Начинается с 0 или +84, затем код оператора (3, 5, 7, 8, 9) и 8 цифр
var PhonePattern = regexp.MustCompile(`^(0|\+84)[35789]\d{8}$`)

// MinPasswordLen минимальная длина пароля
const MinPasswordLen = 6

// ValidatePhoneNumber проверяет, что номер телефона соответствует формату
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number cannot be empty")
	}

	if !PhonePattern.MatchString(phone) {
		return fmt.Errorf("phone number must start with 0 or +84 followed by 9 digits")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}
