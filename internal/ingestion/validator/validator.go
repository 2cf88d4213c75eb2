// Package validator checks feed records before they reach the index. It
// enforces the required fields and that every document id resolves to a
// slot of the document table.
package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	DocumentID string
	Fields     map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	sort.Strings(parts)
	return fmt.Sprintf("document %q: %s", e.DocumentID, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	if _, ok := e.Fields["id"]; ok {
		return apperrors.ErrMalformedDocumentID
	}
	return apperrors.ErrInvalidInput
}

// Validator validates ingestion.Document records.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator whose "docid" rule accepts ids that map into a
// table of the given capacity.
func New(addressing index.Addressing, capacity int) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("docid", func(fl validator.FieldLevel) bool {
		slot, err := addressing.Slot(fl.Field().String())
		return err == nil && slot >= 0 && slot < capacity
	})
	return &Validator{validate: v}
}

// Validate returns a *ValidationError describing every failing field.
func (v *Validator) Validate(doc ingestion.Document) error {
	err := v.validate.Struct(doc)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating document %q: %w", doc.ID, err)
	}
	out := &ValidationError{DocumentID: doc.ID, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out.Fields[field] = field + " is required"
		case "docid":
			out.Fields[field] = "id must start with a decimal integer that maps into the document table"
		default:
			out.Fields[field] = fmt.Sprintf("failed %q rule", fe.Tag())
		}
	}
	return out
}
