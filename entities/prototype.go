// Copyright © 2025 M Varma Group

// This file is part of Qrgate <https://github.com/m-varma-group/qrgate>.

// Qrgate is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License
// as published by the Free Software Foundation,
// either version 3 of the License, or (at your option)
// any later version.

// Qrgate is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with Qrgate.  If not, see <http://www.gnu.org/licenses/>.

package entities

import (
	"encoding/json"
	"errors"
	"reflect"

	"github.com/iancoleman/strcase"
	"go.mongodb.org/mongo-driver/bson"
)

// Prototype is embedded in partial-document types. A prototype struct
// declares its fields as Definable and only the defined ones are
// emitted when the prototype is marshaled to JSON or BSON.
//
// Prototypes must be initialized with MakePrototype before use.
type Prototype interface {
	json.Marshaler
	json.Unmarshaler
	isPrototype()
}

type prototypeImpl struct {
	// pointer to the struct embedding this Prototype
	self reflect.Value
}

func (p *prototypeImpl) isPrototype() {}

// MakePrototype wires up the embedded Prototype of proto so that
// JSON marshaling honors Definable semantics. proto must be a pointer.
func MakePrototype[T Prototype](proto T) T {
	v := reflect.ValueOf(proto)
	if v.Kind() != reflect.Pointer {
		panic(errors.New("MakePrototype must be called with pointer value"))
	}
	field := v.Elem().FieldByName("Prototype")
	field.Set(reflect.ValueOf(&prototypeImpl{self: v}))
	return proto
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("bson"); tag != "" {
		return tag
	}
	return strcase.ToLowerCamel(field.Name)
}

func (p *prototypeImpl) MarshalJSON() ([]byte, error) {
	t := p.self.Elem().Type()
	v := p.self.Elem()

	m := make(map[string]any)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}

		fieldValue := v.Field(i)
		if def, ok := fieldValue.Interface().(definableGetter); ok {
			if val, defined := def.getInternal(); defined {
				m[fieldName(field)] = val
			}
		} else {
			m[fieldName(field)] = fieldValue.Interface()
		}
	}

	return json.Marshal(m)
}

func (p *prototypeImpl) UnmarshalJSON(b []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	t := p.self.Elem().Type()
	v := p.self.Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}

		data, ok := raw[fieldName(field)]
		if !ok {
			continue
		}

		fieldValue := v.Field(i)
		if getter, ok := fieldValue.Interface().(definableGetter); ok {
			value := reflect.New(getter.getType())
			if err := json.Unmarshal(data, value.Interface()); err != nil {
				return err
			}
			fieldValue.Addr().Interface().(definableSetter).setInternal(value.Elem().Interface(), true)
		} else {
			if err := json.Unmarshal(data, fieldValue.Addr().Interface()); err != nil {
				return err
			}
		}
	}

	return nil
}

// ToBson converts a prototype to a bson.M containing only the defined
// fields, suitable for use in "$set" updates and query filters.
func ToBson(p Prototype) bson.M {
	t := reflect.TypeOf(p)
	v := reflect.ValueOf(p)

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		v = v.Elem()
	}

	ret := bson.M{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}

		fieldValue := v.Field(i)
		if def, ok := fieldValue.Interface().(definableGetter); ok {
			if val, defined := def.getInternal(); defined {
				ret[fieldName(field)] = val
			}
		} else {
			ret[fieldName(field)] = fieldValue.Interface()
		}
	}

	return ret
}
