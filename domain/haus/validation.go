package haus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/Yukasama/haus/pkg/apperror"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
			_, ok := parseISODate(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("uniquefeatures", func(fl validator.FieldLevel) bool {
			tags, ok := fl.Field().Interface().([]string)
			if !ok {
				return false
			}
			normalized := Features(tags).Normalize()
			seen := make(map[string]struct{}, len(normalized))
			for _, tag := range normalized {
				if _, dup := seen[tag]; dup {
					return false
				}
				seen[tag] = struct{}{}
			}
			return true
		})
		validate = v
	})
	return validate
}

// DecodeHaus parses and validates the body of a create request
func DecodeHaus(body []byte) (*HausDTO, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	dto := &HausDTO{}
	tc := newTypeChecker()
	tc.updateFields(raw, &dto.HausUpdateDTO)
	tc.adresse(raw, dto)
	tc.personen(raw, dto)

	return dto, tc.validate(dto)
}

// DecodeHausUpdate parses and validates the body of an update request
func DecodeHausUpdate(body []byte) (*HausUpdateDTO, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	dto := &HausUpdateDTO{}
	tc := newTypeChecker()
	tc.updateFields(raw, dto)

	return dto, tc.validate(dto)
}

// Validate checks an already typed request, e.g. a GraphQL input
func Validate(dto any) error {
	return newTypeChecker().validate(dto)
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperror.NewBadRequest("Request body must be a JSON object")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, apperror.NewBadRequest("Malformed JSON").WithInternal(err)
	}
	return raw, nil
}

// typeChecker decodes one field at a time so that every wrongly typed field is reported
type typeChecker struct {
	messages []string
	failed   map[string]bool
}

func newTypeChecker() *typeChecker {
	return &typeChecker{failed: map[string]bool{}}
}

func (tc *typeChecker) field(raw map[string]json.RawMessage, path, key, kind string, dst any) bool {
	value, ok := raw[key]
	if !ok || string(value) == "null" {
		return false
	}
	if err := json.Unmarshal(value, dst); err != nil {
		tc.fail(path+key, kind)
		return false
	}
	return true
}

func (tc *typeChecker) fail(path, kind string) {
	tc.messages = append(tc.messages, fmt.Sprintf("%s must be %s", path, kind))
	tc.failed[path] = true
}

func (tc *typeChecker) updateFields(raw map[string]json.RawMessage, dto *HausUpdateDTO) {
	tc.field(raw, "", "art", "a string", &dto.Art)
	tc.field(raw, "", "preis", "a number", &dto.Preis)
	tc.field(raw, "", "hausflaeche", "an integer number", &dto.Hausflaeche)
	tc.field(raw, "", "verkaeuflich", "a boolean value", &dto.Verkaeuflich)
	tc.field(raw, "", "baudatum", "a string", &dto.Baudatum)
	tc.field(raw, "", "katalog", "a string", &dto.Katalog)
	tc.field(raw, "", "features", "an array of strings", &dto.Features)
}

func (tc *typeChecker) adresse(raw map[string]json.RawMessage, dto *HausDTO) {
	var obj map[string]json.RawMessage
	if !tc.field(raw, "", "adresse", "an object", &obj) {
		return
	}

	dto.Adresse = &AdresseDTO{}
	tc.field(obj, "adresse.", "strasse", "a string", &dto.Adresse.Strasse)
	tc.field(obj, "adresse.", "hausnummer", "a string", &dto.Adresse.Hausnummer)
	tc.field(obj, "adresse.", "plz", "a string", &dto.Adresse.Plz)
}

func (tc *typeChecker) personen(raw map[string]json.RawMessage, dto *HausDTO) {
	var list []json.RawMessage
	if !tc.field(raw, "", "personen", "an array", &list) {
		return
	}

	dto.Personen = make([]PersonDTO, len(list))
	for i, item := range list {
		path := fmt.Sprintf("personen.%d", i)
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			tc.fail(path, "an object")
			continue
		}
		p := &dto.Personen[i]
		tc.field(obj, path+".", "vorname", "a string", &p.Vorname)
		tc.field(obj, path+".", "nachname", "a string", &p.Nachname)
		tc.field(obj, path+".", "eigentuemer", "a boolean value", &p.Eigentuemer)
	}
}

// validate runs the struct rules and merges their messages with the type errors
func (tc *typeChecker) validate(dto any) error {
	messages := tc.messages

	err := getValidator().Struct(dto)
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			path := fieldPath(fe.Namespace())
			if tc.failed[path] {
				continue
			}
			messages = append(messages, message(path, fe))
		}
	default:
		return apperror.ErrInternal.WithInternal(err)
	}

	if len(messages) > 0 {
		return apperror.NewValidation(messages)
	}
	return nil
}

// fieldPath turns "HausDTO.HausUpdateDTO.personen[0].vorname" into "personen.0.vorname"
func fieldPath(namespace string) string {
	namespace = strings.NewReplacer("[", ".", "]", "").Replace(namespace)
	var parts []string
	for _, part := range strings.Split(namespace, ".") {
		if part == "" || unicode.IsUpper(rune(part[0])) {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ".")
}

func message(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return path + " should not be empty"
	case "gt":
		return path + " must be a positive number"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", path, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", path, fe.Param())
	case "iso8601":
		return path + " must be a valid ISO 8601 date string"
	case "url":
		return path + " must be a URL address"
	case "uniquefeatures":
		return path + " elements must be unique"
	default:
		return fmt.Sprintf("%s failed on the %s rule", path, fe.Tag())
	}
}
