// Package validation проверяет входные данные через go-playground/validator
// и возвращает нарушения в виде *problem.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"ecomshop/pkg/problem"
)

const errRegisterTag = "failed to register validation tag"

// Validator - обертка над validator.Validate с именами полей из json-тегов.
type Validator struct {
	v *validator.Validate
}

// Param описывает параметр метода для проверки через Params.
type Param struct {
	Name  string
	Value any
	Tag   string
}

// New создает Validator.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "notblank", validators.NotBlank)
	return &Validator{v: v}
}

// mustRegister паникует: ошибка регистрации тега - ошибка программиста.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Errorf("%s %q: %w", errRegisterTag, tag, err))
	}
}

// Struct проверяет структуру запроса. Нарушения возвращаются как
// *problem.ValidationError с заполненным Fields.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate struct: %w", err)
	}

	out := &problem.ValidationError{Fields: make([]problem.FieldViolation, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, problem.FieldViolation{
			Field:   fieldPath(fe),
			Message: Message(fe.Tag(), fe.Param(), fe.Kind()),
		})
	}
	return out
}

// Params проверяет параметры операции operation. Путь нарушения имеет вид
// "operation.name".
func (v *Validator) Params(operation string, params ...Param) error {
	out := &problem.ValidationError{}
	for _, p := range params {
		err := v.v.Var(p.Value, p.Tag)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate param %s: %w", p.Name, err)
		}
		fe := verrs[0]
		out.Params = append(out.Params, problem.ParamViolation{
			PropertyPath: operation + "." + p.Name,
			Message:      Message(fe.Tag(), fe.Param(), fe.Kind()),
		})
	}
	if len(out.Params) == 0 {
		return nil
	}
	return out
}

// fieldPath отбрасывает имя корневой структуры из пространства имен.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Message возвращает человекочитаемое описание нарушения тега.
func Message(tag, param string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4", "uuid_rfc4122":
		return "must be a valid UUID"
	case "boolean":
		return "must be a boolean value"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "len":
		return "must be exactly " + param + " characters long"
	case "min":
		if isNumberKind(kind) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(kind) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "iso3166_1_alpha2":
		return "must be a valid ISO 3166-1 alpha-2 country code"
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
