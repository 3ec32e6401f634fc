package service

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/genproto/googleapis/type/latlng"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
	"firestore-client/internal/shared/errors"
)

// valueCodec maps wire values to Go values:
//
//	null      -> nil
//	boolean   -> bool
//	integer   -> int64
//	double    -> float64
//	timestamp -> time.Time
//	string    -> string
//	bytes     -> []byte
//	reference -> *model.DocumentRef
//	geo point -> model.GeoPoint
//	array     -> []interface{}
//	map       -> map[string]interface{}
type valueCodec struct{}

// NewValueCodec returns the default field codec.
func NewValueCodec() repository.FieldCodec {
	return valueCodec{}
}

func (c valueCodec) DecodeFields(fields map[string]*firestorepb.Value) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for name, v := range fields {
		decoded, err := c.decode(v)
		if err != nil {
			return nil, fieldError(err, name)
		}
		out[name] = decoded
	}
	return out, nil
}

func (c valueCodec) EncodeFields(data map[string]interface{}) (map[string]*firestorepb.Value, error) {
	out := make(map[string]*firestorepb.Value, len(data))
	for name, v := range data {
		encoded, err := c.encode(v)
		if err != nil {
			return nil, fieldError(err, name)
		}
		out[name] = encoded
	}
	return out, nil
}

func fieldError(err error, name string) error {
	return errors.WrapError(err, "field conversion failed").WithDetail("field", name)
}

func (c valueCodec) decode(v *firestorepb.Value) (interface{}, error) {
	switch t := v.GetValueType().(type) {
	case *firestorepb.Value_NullValue:
		return nil, nil
	case *firestorepb.Value_BooleanValue:
		return t.BooleanValue, nil
	case *firestorepb.Value_IntegerValue:
		return t.IntegerValue, nil
	case *firestorepb.Value_DoubleValue:
		return t.DoubleValue, nil
	case *firestorepb.Value_TimestampValue:
		if err := t.TimestampValue.CheckValid(); err != nil {
			return nil, errors.NewDataIntegrityError("invalid timestamp value").WithCause(err)
		}
		return t.TimestampValue.AsTime(), nil
	case *firestorepb.Value_StringValue:
		return t.StringValue, nil
	case *firestorepb.Value_BytesValue:
		return t.BytesValue, nil
	case *firestorepb.Value_ReferenceValue:
		ref, err := model.ParseDocumentName(t.ReferenceValue)
		if err != nil {
			return nil, errors.NewDataIntegrityError("invalid reference value").
				WithDetail("reference", t.ReferenceValue).
				WithCause(err)
		}
		return ref, nil
	case *firestorepb.Value_GeoPointValue:
		return model.GeoPoint{
			Latitude:  t.GeoPointValue.GetLatitude(),
			Longitude: t.GeoPointValue.GetLongitude(),
		}, nil
	case *firestorepb.Value_ArrayValue:
		values := t.ArrayValue.GetValues()
		out := make([]interface{}, len(values))
		for i, elem := range values {
			d, err := c.decode(elem)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case *firestorepb.Value_MapValue:
		return c.DecodeFields(t.MapValue.GetFields())
	default:
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("unknown value type %T", t))
	}
}

func (c valueCodec) encode(v interface{}) (*firestorepb.Value, error) {
	switch t := v.(type) {
	case nil:
		return &firestorepb.Value{ValueType: &firestorepb.Value_NullValue{NullValue: structpb.NullValue_NULL_VALUE}}, nil
	case *firestorepb.Value:
		return t, nil
	case bool:
		return &firestorepb.Value{ValueType: &firestorepb.Value_BooleanValue{BooleanValue: t}}, nil
	case string:
		return &firestorepb.Value{ValueType: &firestorepb.Value_StringValue{StringValue: t}}, nil
	case []byte:
		return &firestorepb.Value{ValueType: &firestorepb.Value_BytesValue{BytesValue: t}}, nil
	case time.Time:
		return &firestorepb.Value{ValueType: &firestorepb.Value_TimestampValue{TimestampValue: timestamppb.New(t)}}, nil
	case *timestamppb.Timestamp:
		return &firestorepb.Value{ValueType: &firestorepb.Value_TimestampValue{TimestampValue: t}}, nil
	case *model.DocumentRef:
		if t == nil {
			return c.encode(nil)
		}
		return &firestorepb.Value{ValueType: &firestorepb.Value_ReferenceValue{ReferenceValue: t.Path()}}, nil
	case model.GeoPoint:
		return &firestorepb.Value{ValueType: &firestorepb.Value_GeoPointValue{
			GeoPointValue: &latlng.LatLng{Latitude: t.Latitude, Longitude: t.Longitude},
		}}, nil
	case map[string]interface{}:
		fields, err := c.EncodeFields(t)
		if err != nil {
			return nil, err
		}
		return &firestorepb.Value{ValueType: &firestorepb.Value_MapValue{MapValue: &firestorepb.MapValue{Fields: fields}}}, nil
	case []interface{}:
		values := make([]*firestorepb.Value, len(t))
		for i, elem := range t {
			e, err := c.encode(elem)
			if err != nil {
				return nil, err
			}
			values[i] = e
		}
		return &firestorepb.Value{ValueType: &firestorepb.Value_ArrayValue{ArrayValue: &firestorepb.ArrayValue{Values: values}}}, nil
	}
	return c.encodeReflect(v)
}

// encodeReflect handles the remaining numeric kinds and typed slices.
func (c valueCodec) encodeReflect(v interface{}) (*firestorepb.Value, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &firestorepb.Value{ValueType: &firestorepb.Value_IntegerValue{IntegerValue: rv.Int()}}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, errors.NewUsageError(fmt.Sprintf("unsigned value %d overflows int64", u))
		}
		return &firestorepb.Value{ValueType: &firestorepb.Value_IntegerValue{IntegerValue: int64(u)}}, nil
	case reflect.Float32, reflect.Float64:
		return &firestorepb.Value{ValueType: &firestorepb.Value_DoubleValue{DoubleValue: rv.Float()}}, nil
	case reflect.Slice, reflect.Array:
		elems := make([]interface{}, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return c.encode(elems)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return c.encode(m)
	}
	return nil, errors.NewUsageError(fmt.Sprintf("cannot encode value of type %T", v))
}
