package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/shared/errors"
)

// Values with no native BSON form are stored as single-key marker documents.
const (
	referenceMarker = "__ref__"
	geoPointMarker  = "__geo__"
)

// toStored converts decoded field values into BSON-friendly values. Map keys
// equal to a marker are reserved and rejected.
func toStored(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case *model.DocumentRef:
		if t == nil {
			return nil, nil
		}
		return bson.M{referenceMarker: t.Path()}, nil
	case model.GeoPoint:
		return bson.M{geoPointMarker: bson.A{t.Latitude, t.Longitude}}, nil
	case time.Time:
		return t.UTC(), nil
	case map[string]interface{}:
		out := make(bson.M, len(t))
		for k, elem := range t {
			if k == referenceMarker || k == geoPointMarker {
				return nil, errors.NewUsageError(fmt.Sprintf("field name %q is reserved", k)).WithDetail("field", k)
			}
			stored, err := toStored(elem)
			if err != nil {
				return nil, err
			}
			out[k] = stored
		}
		return out, nil
	case []interface{}:
		out := make(bson.A, len(t))
		for i, elem := range t {
			stored, err := toStored(elem)
			if err != nil {
				return nil, err
			}
			out[i] = stored
		}
		return out, nil
	default:
		return v, nil
	}
}

func toStoredFields(data map[string]interface{}) (bson.M, error) {
	stored, err := toStored(data)
	if err != nil {
		return nil, err
	}
	return stored.(bson.M), nil
}

// fromStored reverses toStored for whatever the driver decoded.
func fromStored(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil, bool, string, int64, float64, []byte:
		return t, nil
	case int32:
		return int64(t), nil
	case time.Time:
		return t.UTC(), nil
	case primitive.DateTime:
		return t.Time().UTC(), nil
	case primitive.Binary:
		return t.Data, nil
	case primitive.D:
		return fromStoredMap(t.Map())
	case primitive.M:
		return fromStoredMap(t)
	case map[string]interface{}:
		return fromStoredMap(t)
	case primitive.A:
		return fromStoredSlice(t)
	case []interface{}:
		return fromStoredSlice(t)
	default:
		return nil, errors.NewDataIntegrityError(fmt.Sprintf("unsupported stored value of type %T", v))
	}
}

func fromStoredMap(m map[string]interface{}) (interface{}, error) {
	if len(m) == 1 {
		if raw, ok := m[referenceMarker]; ok {
			name, _ := raw.(string)
			ref, err := model.ParseDocumentName(name)
			if err != nil {
				return nil, errors.NewDataIntegrityError("invalid stored reference").WithCause(err)
			}
			return ref, nil
		}
		if raw, ok := m[geoPointMarker]; ok {
			return storedGeoPoint(raw)
		}
	}
	return fromStoredFields(m)
}

func fromStoredFields(m map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, elem := range m {
		v, err := fromStored(elem)
		if err != nil {
			return nil, errors.WrapError(err, "stored field conversion failed").WithDetail("field", k)
		}
		out[k] = v
	}
	return out, nil
}

func fromStoredSlice(s []interface{}) (interface{}, error) {
	out := make([]interface{}, len(s))
	for i, elem := range s {
		v, err := fromStored(elem)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func storedGeoPoint(raw interface{}) (interface{}, error) {
	var pair []interface{}
	switch t := raw.(type) {
	case primitive.A:
		pair = t
	case []interface{}:
		pair = t
	}
	if len(pair) != 2 {
		return nil, errors.NewDataIntegrityError("stored geo point must hold two coordinates")
	}
	lat, latOK := pair[0].(float64)
	lng, lngOK := pair[1].(float64)
	if !latOK || !lngOK {
		return nil, errors.NewDataIntegrityError("stored geo point coordinates must be doubles")
	}
	return model.GeoPoint{Latitude: lat, Longitude: lng}, nil
}
