/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"encoding/json"
	"reflect"
	"strings"
)

// SkippedFieldsError lists document fields whose values did not fit their
// type. Those fields keep their previous values; the rest of the document is
// still applied.
type SkippedFieldsError struct {
	Fields []string
}

func (e *SkippedFieldsError) Error() string {
	return "unreadable fields kept their defaults: " + strings.Join(e.Fields, ", ")
}

var unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// decodeLenient decodes the JSON object data into the struct dst one field
// at a time. Nested structs are retried field by field, so a single bad leaf
// only costs that leaf. It fails only when data is not an object.
func decodeLenient(data []byte, dst reflect.Value, prefix string, skipped *[]string) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	fields := jsonFields(dst)

	for name, raw := range doc {
		field, ok := fields[strings.ToLower(name)]
		if !ok {
			continue
		}

		next := reflect.New(field.Type())
		next.Elem().Set(field)

		if err := json.Unmarshal(raw, next.Interface()); err == nil {
			field.Set(next.Elem())
			continue
		}

		if field.Kind() == reflect.Struct && !reflect.PointerTo(field.Type()).Implements(unmarshalerType) {
			if decodeLenient(raw, field, prefix+name+".", skipped) == nil {
				continue
			}
		}

		*skipped = append(*skipped, prefix+name)
	}

	return nil
}

// jsonFields maps the lower-cased JSON names of v's settable fields to the
// fields, flattening embedded structs the way encoding/json does.
func jsonFields(v reflect.Value) map[string]reflect.Value {
	out := make(map[string]reflect.Value)
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")

		if name == "-" {
			continue
		}

		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
			for k, f := range jsonFields(v.Field(i)) {
				if _, taken := out[k]; !taken {
					out[k] = f
				}
			}

			continue
		}

		if name == "" {
			name = sf.Name
		}

		out[strings.ToLower(name)] = v.Field(i)
	}

	return out
}
