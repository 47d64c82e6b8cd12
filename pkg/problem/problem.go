// Package problem переводит нарушения валидации в тело ответа application/problem+json.
package problem

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Параметры ответа о нарушениях валидации.
const (
	ContentType      = "application/problem+json"
	TypeBlank        = "about:blank"
	ValidationTitle  = "Bean validation error"
	ValidationDetail = "One or more fields were invalid. See 'errors' for details."
)

// ErrDuplicateField - два нарушения с одинаковым именем поля.
var ErrDuplicateField = errors.New("duplicate field in validation errors")

// Detail - тело ответа в формате RFC 9457.
type Detail struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail"`
	Instance string            `json:"instance,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// FieldViolation - нарушение ограничения поля тела запроса.
type FieldViolation struct {
	Field   string
	Message string
}

// ParamViolation - нарушение ограничения параметра метода. PropertyPath
// имеет вид "operation.param".
type ParamViolation struct {
	PropertyPath string
	Message      string
}

// FromFieldViolations строит ответ 400 по нарушениям полей тела запроса.
func FromFieldViolations(violations []FieldViolation) (*Detail, error) {
	errs := make(map[string]string, len(violations))
	for _, v := range violations {
		if err := put(errs, v.Field, v.Message); err != nil {
			return nil, err
		}
	}
	return validationDetail(errs), nil
}

// FromParamViolations строит ответ 400 по нарушениям параметров. Имя поля -
// последний сегмент PropertyPath.
func FromParamViolations(violations []ParamViolation) (*Detail, error) {
	errs := make(map[string]string, len(violations))
	for _, v := range violations {
		if err := put(errs, FieldName(v.PropertyPath), v.Message); err != nil {
			return nil, err
		}
	}
	return validationDetail(errs), nil
}

// FieldName возвращает последний сегмент пути, разделенного точками.
func FieldName(propertyPath string) string {
	return propertyPath[strings.LastIndex(propertyPath, ".")+1:]
}

func put(errs map[string]string, field, message string) error {
	if _, exists := errs[field]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateField, field)
	}
	errs[field] = message
	return nil
}

func validationDetail(errs map[string]string) *Detail {
	return &Detail{
		Type:   TypeBlank,
		Title:  ValidationTitle,
		Status: http.StatusBadRequest,
		Detail: ValidationDetail,
		Errors: errs,
	}
}

// ValidationError переносит нарушения от места проверки до транспортной границы.
type ValidationError struct {
	Fields []FieldViolation
	Params []ParamViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields)+len(e.Params))
	for _, v := range e.Fields {
		parts = append(parts, v.Field+": "+v.Message)
	}
	for _, v := range e.Params {
		parts = append(parts, v.PropertyPath+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Problem строит ответ по нарушениям. Нарушения параметров имеют приоритет.
func (e *ValidationError) Problem() (*Detail, error) {
	if len(e.Params) > 0 {
		return FromParamViolations(e.Params)
	}
	return FromFieldViolations(e.Fields)
}

// FromError возвращает ответ для ошибки валидации в цепочке err. Второй
// результат false означает, что err не относится к валидации.
func FromError(err error) (*Detail, bool, error) {
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		return nil, false, nil
	}
	detail, buildErr := validationErr.Problem()
	return detail, true, buildErr
}
