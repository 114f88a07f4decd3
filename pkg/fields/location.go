package fields

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/goliatone/go-pulpoforms/internal/values"
	"github.com/goliatone/go-pulpoforms/pkg/formerrors"
	"github.com/goliatone/go-pulpoforms/pkg/validators"
)

// Shapes a location field can require.
var Shapes = []string{"Polygon", "Point", "LineString"}

func checkShape(descriptor map[string]any) []formerrors.Message {
	shape := values.String(descriptor["shape"])
	for _, candidate := range Shapes {
		if candidate == shape {
			return nil
		}
	}
	return []formerrors.Message{formerrors.Textf(
		"Type '%s' is not a valid shape option. Must be one of: 'Polygon', 'Point' or 'LineString'", shape)}
}

var geometryTypes = map[string]bool{
	"Point": true, "MultiPoint": true,
	"LineString": true, "MultiLineString": true,
	"Polygon": true, "MultiPolygon": true,
	"GeometryCollection": true,
}

// LocationField accepts a GeoJSON geometry of its configured shape.
type LocationField struct {
	*Base
	shape string
}

func newLocation(base *Base, descriptor map[string]any) (Field, error) {
	return &LocationField{Base: base, shape: values.String(descriptor["shape"])}, nil
}

// Shape returns the required geometry type.
func (f *LocationField) Shape() string { return f.shape }

func (f *LocationField) ValidateValue(answer any) error {
	object, ok := values.Map(answer)
	if !ok {
		return formerrors.NewFieldError(formerrors.Textf("value must be an object"))
	}

	payload, err := json.Marshal(object)
	if err != nil {
		return formerrors.NewFieldError(formerrors.Textf("malformed geoJSON"))
	}
	geometry, err := geojson.UnmarshalGeometry(payload)
	if err != nil || !geometryTypes[geometry.Type] {
		return formerrors.NewFieldError(formerrors.Textf("malformed geoJSON"))
	}
	if !validGeometry(geometry.Geometry()) {
		return formerrors.NewFieldError(formerrors.Textf("geoJSON geometry is not valid"))
	}
	if geometry.Type != f.shape {
		return formerrors.NewFieldError(formerrors.Textf("geoJSON must be of type '%s'", f.shape))
	}
	return validators.Run(f.validators, answer)
}

// validGeometry applies the simple feature rules: line strings need two
// points and polygon rings must be closed with at least four points.
func validGeometry(geometry orb.Geometry) bool {
	switch g := geometry.(type) {
	case orb.LineString:
		return len(g) >= 2
	case orb.Polygon:
		if len(g) == 0 {
			return false
		}
		for _, ring := range g {
			if len(ring) < 4 || !ring.Closed() {
				return false
			}
		}
		return true
	case orb.MultiLineString:
		for _, line := range g {
			if !validGeometry(line) {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, polygon := range g {
			if !validGeometry(polygon) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, member := range g {
			if !validGeometry(member) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
