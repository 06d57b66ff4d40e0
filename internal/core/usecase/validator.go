package usecase

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/heliumapi/helium/internal/core/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	domain.TypeActor: "schemas/actor.json",
	domain.TypeMovie: "schemas/movie.json",
	domain.TypeGenre: "schemas/genre.json",
}

// PayloadValidator checks request bodies in two passes: the resource's JSON
// schema for structure and types, then field rules on the decoded model.
type PayloadValidator struct {
	schemas map[string]*santhosh.Schema
	rules   *validator.Validate
}

func NewPayloadValidator() (*PayloadValidator, error) {
	schemas := make(map[string]*santhosh.Schema, len(schemaFiles))
	for resourceType, file := range schemaFiles {
		raw, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		compiled, err := compileSchema(file, raw)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", file, err)
		}
		schemas[resourceType] = compiled
	}
	return &PayloadValidator{schemas: schemas, rules: newRules()}, nil
}

// Decode validates raw as a document of resourceType and decodes it into
// out. Failures are *domain.ValidationError with one message per field
// constraint.
func (v *PayloadValidator) Decode(resourceType string, raw json.RawMessage, out any) error {
	sch, ok := v.schemas[resourceType]
	if !ok {
		return fmt.Errorf("no schema for resource type %q", resourceType)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &domain.ValidationError{Messages: []string{"invalid json body"}}
	}
	if err := runValidation(sch, doc); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ValidationError{Messages: []string{err.Error()}}
	}
	if err := v.rules.Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, ruleMessage(fe))
			}
			return &domain.ValidationError{Messages: msgs}
		}
		return fmt.Errorf("validate %s: %w", resourceType, err)
	}
	return nil
}

func compileSchema(name string, schemaJSON []byte) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource(name, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

func runValidation(sch *santhosh.Schema, doc any) error {
	if err := sch.Validate(doc); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ValidationError{Messages: collectValidationErrors(ve)}
		}
		return &domain.ValidationError{Messages: []string{err.Error()}}
	}
	return nil
}

func collectValidationErrors(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		field := strings.ReplaceAll(strings.TrimPrefix(ve.InstanceLocation, "/"), "/", ".")
		if field == "" {
			field = "body"
		}
		msgs = append(msgs, fmt.Sprintf("%q %s", field, ve.Message))
	}
	return msgs
}

func newRules() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		a := sl.Current().Interface().(domain.Actor)
		checkTextSearch(sl, a.Name, a.TextSearch)
	}, domain.Actor{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		m := sl.Current().Interface().(domain.Movie)
		checkTextSearch(sl, m.Title, m.TextSearch)
	}, domain.Movie{})
	return v
}

// checkTextSearch enforces textSearch == lowercase(primary). Without a
// usable primary field only the lowercase requirement can be checked.
func checkTextSearch(sl validator.StructLevel, primary, textSearch string) {
	if textSearch == "" {
		return
	}
	if strings.TrimSpace(primary) != "" {
		if want := strings.ToLower(primary); textSearch != want {
			sl.ReportError(textSearch, "textSearch", "TextSearch", "textsearch", want)
		}
		return
	}
	if textSearch != strings.ToLower(textSearch) {
		sl.ReportError(textSearch, "textSearch", "TextSearch", "lowercase", "")
	}
}

func ruleMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "alphanum":
		return fmt.Sprintf("%q must only contain alpha-numeric characters", field)
	case "notblank":
		return fmt.Sprintf("%q must not be blank", field)
	case "eq":
		return fmt.Sprintf("%q must be %q", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "lowercase":
		return fmt.Sprintf("%q must be lowercase", field)
	case "textsearch":
		return fmt.Sprintf("%q must be equal to %q", field, fe.Param())
	default:
		return fmt.Sprintf("%q failed the %s rule", field, fe.Tag())
	}
}
