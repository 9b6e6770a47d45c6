package annotator

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("entitylabel", func(fl validator.FieldLevel) bool {
			return IsEntityLabel(fl.Field().String())
		})
	})
	return validate
}

// response is the JSON document the model returns.
type response struct {
	Tokens   []Token  `json:"tokens" validate:"dive"`
	Entities []Entity `json:"entities" validate:"dive"`
}

// decodeResponse parses a model response. A JSON error is returned as is;
// a document that parses but violates the annotation rules yields a
// *validationError.
func decodeResponse(raw string) (*response, error) {
	var r response
	if err := json.Unmarshal([]byte(StripMarkdownCodeBlock(raw)), &r); err != nil {
		return nil, err
	}

	for i := range r.Tokens {
		if r.Tokens[i].Lemma == "" {
			r.Tokens[i].Lemma = r.Tokens[i].Text
		}
	}
	for i := range r.Entities {
		r.Entities[i].Label = normalizeLabel(r.Entities[i].Label)
	}

	if err := getValidator().Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, err
		}
		return nil, &validationError{errors: verrs}
	}
	return &r, nil
}

// validationError wraps validation errors for retry context.
type validationError struct {
	errors validator.ValidationErrors
}

func (e *validationError) Error() string {
	var sb strings.Builder
	for _, fe := range e.errors {
		switch fe.Tag() {
		case "entitylabel":
			fmt.Fprintf(&sb, "- %s: %q is not one of %s\n", fe.Namespace(), fe.Value(), strings.Join(EntityLabels, ", "))
		default:
			fmt.Fprintf(&sb, "- %s: failed %q\n", fe.Namespace(), fe.Tag())
		}
	}
	return sb.String()
}
