package entities

import (
	"errors"
	"reflect"

	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// PrototypeEncoder encodes Prototype structs to BSON documents,
// emitting only the defined fields.
type PrototypeEncoder struct{}

func (e *PrototypeEncoder) EncodeValue(ctx bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	typ := val.Type()

	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
		val = val.Elem()
	}

	docWriter, err := vw.WriteDocument()
	if err != nil {
		return err
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}

		fieldValue := val.Field(i)
		fieldIsNil := safeIsNil(fieldValue)
		fieldValueInterface := fieldValue.Interface()

		if def, ok := fieldValueInterface.(definableGetter); ok {
			if fieldIsNil {
				// Definables are always "omitempty"
				continue
			}
			value, defined := def.getInternal()
			if !defined {
				continue
			}
			fieldValue = reflect.ValueOf(value)
		}

		valWriter, err := docWriter.WriteDocumentElement(fieldName(field))
		if err != nil {
			return err
		}
		enc, err := ctx.LookupEncoder(fieldValue.Type())
		if err != nil {
			return err
		}
		if err := enc.EncodeValue(ctx, valWriter, fieldValue); err != nil {
			return err
		}
	}

	return docWriter.WriteDocumentEnd()
}

// DefinableEncoder encodes a lone Definable as its inner value.
type DefinableEncoder struct{}

func (e *DefinableEncoder) EncodeValue(ctx bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	valDefinable, ok := val.Interface().(definableGetter)
	if !ok {
		return errors.New("value is not Definable")
	}
	value, _ := valDefinable.getInternal()

	encoder, err := ctx.LookupEncoder(reflect.TypeOf(value))
	if err != nil {
		return err
	}

	return encoder.EncodeValue(ctx, vw, reflect.ValueOf(value))
}

func RegisterEncoders(r *bsoncodec.Registry) {
	var d definableGetter
	definableType := reflect.TypeOf(&d).Elem()
	r.RegisterInterfaceEncoder(definableType, &DefinableEncoder{})

	var p Prototype
	prototypeType := reflect.TypeOf(&p).Elem()
	r.RegisterInterfaceEncoder(prototypeType, &PrototypeEncoder{})
}

func safeIsNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Pointer, reflect.UnsafePointer, reflect.Interface, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
