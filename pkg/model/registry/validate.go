package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Montasar-Dridi/job-recommender-system/pkg/llm"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
			return llm.IsRegistered(fl.Field().String())
		})
	})
	return validate
}

// Validate checks a model entry: a name without spaces or slashes, a
// two-letter lowercase language code, a registered provider (if any) and a
// well-formed base URL (if any).
func Validate(m ModelInfo) error {
	err := getValidator().Struct(m)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid model %q: %s", m.Name, strings.Join(msgs, "; "))
}
