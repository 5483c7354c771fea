// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package model defines the data structures for the application. This file,
// `validation.go`, turns raw JSON into validated records.
//
// Every Parse function follows the same flow:
//  1. Decode the bytes with encoding/json. Type mismatches and syntax errors are
//     converted into a *ValidationError that names the offending field.
//  2. Run the struct through a shared go-playground validator. The first failing
//     rule is reported as a *ValidationError using the JSON field path.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError reports the first field of an input that does not match the
// expected shape.
type ValidationError struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Message  string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Message)
	}
	return fmt.Sprintf("invalid field %q (expected %s): %s", e.Field, e.Expected, e.Message)
}

// Validator returns the shared validator. Field names in its errors are the
// JSON names rather than the Go names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateStruct runs the validator against a decoded record and converts any
// failure into a *ValidationError.
//
// Inputs:
//   - s: A pointer to a struct carrying `validate` tags.
//
// Outputs:
//   - error: nil when valid, otherwise a *ValidationError.
func ValidateStruct(s any) error {
	return toValidationError(Validator().Struct(s))
}

// ParseViewerProfile decodes and validates a single profile record. Absent
// and null lists stay nil; the profile store normalizes records when it
// writes them.
func ParseViewerProfile(data []byte) (*ViewerProfile, error) {
	out := &ViewerProfile{}
	if err := DecodeAndValidate(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseRecommendationList decodes the structured output expected from the
// agent: an object with a `recommendations` array.
func ParseRecommendationList(data []byte) (*RecommendationList, error) {
	out := &RecommendationList{}
	if err := DecodeAndValidate(data, out); err != nil {
		return nil, err
	}
	if out.Recommendations == nil {
		out.Recommendations = []Recommendation{}
	}
	return out, nil
}

// ParseRecommendations decodes a bare JSON array of recommendations, the shape
// of the generic catalog.
func ParseRecommendations(data []byte) ([]Recommendation, error) {
	var out []Recommendation
	if err := decode(data, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if err := ValidateStruct(&out[i]); err != nil {
			return nil, prefixField(err, fmt.Sprintf("[%d]", i))
		}
	}
	return out, nil
}

// DecodeAndValidate decodes data into out and validates the result. It is the
// generic form of the Parse functions for callers that choose the target type.
//
// Inputs:
//   - data: Raw JSON.
//   - out: A pointer to the destination record.
//
// Outputs:
//   - error: nil, or a *ValidationError describing the first problem.
func DecodeAndValidate(data []byte, out any) error {
	if err := decode(data, out); err != nil {
		return err
	}
	return ValidateStruct(out)
}

func decode(data []byte, out any) error {
	err := json.Unmarshal(data, out)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return &ValidationError{
			Field:    typeErr.Field,
			Expected: typeErr.Type.String(),
			Message:  fmt.Sprintf("got JSON %s", typeErr.Value),
		}
	case errors.As(err, &syntaxErr):
		return &ValidationError{
			Expected: "valid JSON",
			Message:  fmt.Sprintf("syntax error at offset %d: %v", syntaxErr.Offset, syntaxErr),
		}
	default:
		return &ValidationError{Expected: "valid JSON", Message: err.Error()}
	}
}

// toValidationError maps the first validator failure onto a ValidationError.
// The root struct name is dropped from the namespace so the field reads as a
// JSON path, e.g. `registration_information.first_name`.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Expected: "valid record", Message: err.Error()}
	}
	fe := fieldErrs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	expected := fe.Tag()
	message := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	if fe.Tag() == "required" {
		expected = "non-empty " + fe.Kind().String()
		message = "required"
	}
	return &ValidationError{Field: field, Expected: expected, Message: message}
}

func prefixField(err error, prefix string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		joined := prefix
		if ve.Field != "" {
			joined = prefix + "." + ve.Field
		}
		return &ValidationError{Field: joined, Expected: ve.Expected, Message: ve.Message}
	}
	return err
}
