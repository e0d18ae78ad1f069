package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators добавляет кастомные правила в валидатор gin binding.
// Вызывается один раз при сборке роутера.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// emoji: короткая непустая строка, без управляющих символов.
	// Конкретный набор emoji не форсируем - клиенты шлют разные.
	v.RegisterValidation("emoji", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.TrimSpace(s) == "" {
			return false
		}
		return utf8.RuneCountInString(s) <= 16
	})
}
