package validator

import (
	"log"
	"mime"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var categoryNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// registerCustomRules регистрирует кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка регистрации - ошибка конфигурации, сервер не должен стартовать.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'mimetype': "type/subtype" without parameters.
	mustRegister("mimetype", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		mediaType, params, err := mime.ParseMediaType(value)
		if err != nil || len(params) > 0 {
			return false
		}
		return strings.Count(mediaType, "/") == 1
	})

	// 'category_name': используется как имя подкаталога хранилища.
	mustRegister("category_name", func(fl validator.FieldLevel) bool {
		return categoryNamePattern.MatchString(fl.Field().String())
	})
}
