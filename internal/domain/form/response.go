package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ValueKind tags the variant held by a ResponseValue.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindStringArray
	KindInteger
	KindFloat
	KindRepeater
	KindCloseout
	KindCamera
	KindCameraArray
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindStringArray:
		return "string_array"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindRepeater:
		return "repeater"
	case KindCloseout:
		return "closeout"
	case KindCamera:
		return "camera"
	case KindCameraArray:
		return "camera_array"
	default:
		return "unknown"
	}
}

// Location is where a camera capture was taken.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// CameraCapture is a photo taken in the field with its position.
type CameraCapture struct {
	Image     string   `json:"image"`
	Location  Location `json:"location"`
	Timestamp string   `json:"timestamp,omitempty"`
	Caption   string   `json:"caption,omitempty"`
}

// Closeout is the sign-off payload of a closeout field. Notes is always
// written so an empty closeout still reads back as one.
type Closeout struct {
	Photos      []CameraCapture `json:"photos,omitempty"`
	Signature   string          `json:"signature,omitempty"`
	Notes       string          `json:"notes"`
	CompletedBy string          `json:"completedBy,omitempty"`
	CompletedAt string          `json:"completedAt,omitempty"`
}

// Row is one entry of a repeater table, column name to cell text.
type Row map[string]string

// ResponseValue is the answer to one form field. Exactly the member that
// matches Kind is meaningful.
type ResponseValue struct {
	Kind     ValueKind
	Text     string
	Texts    []string
	Int      int64
	Float    float64
	Rows     []Row
	Closeout *Closeout
	Camera   *CameraCapture
	Cameras  []CameraCapture
}

// Constructors for each variant.

func NullValue() ResponseValue {
	return ResponseValue{Kind: KindNull}
}

func StringValue(s string) ResponseValue {
	return ResponseValue{Kind: KindString, Text: s}
}

func StringArrayValue(s ...string) ResponseValue {
	return ResponseValue{Kind: KindStringArray, Texts: s}
}

func IntValue(n int64) ResponseValue {
	return ResponseValue{Kind: KindInteger, Int: n}
}

func FloatValue(f float64) ResponseValue {
	return ResponseValue{Kind: KindFloat, Float: f}
}

func RepeaterValue(rows ...Row) ResponseValue {
	return ResponseValue{Kind: KindRepeater, Rows: rows}
}

func CloseoutValue(c Closeout) ResponseValue {
	return ResponseValue{Kind: KindCloseout, Closeout: &c}
}

func CameraValue(c CameraCapture) ResponseValue {
	return ResponseValue{Kind: KindCamera, Camera: &c}
}

func CameraArrayValue(cs ...CameraCapture) ResponseValue {
	return ResponseValue{Kind: KindCameraArray, Cameras: cs}
}

// shapeRule recognises one variant. Rules are tried in order; a rule whose
// shape matches but whose parse fails falls through to the next one.
type shapeRule struct {
	kind  ValueKind
	match func(gjson.Result) bool
	parse func(gjson.Result) (ResponseValue, bool)
}

// shapeRules is the priority order. The wire format doesn't name its
// variant, so order decides ambiguous shapes.
var shapeRules = []shapeRule{
	{KindCameraArray, isCameraArray, parseCameraArray},
	{KindCamera, isCamera, parseCamera},
	{KindRepeater, isObjectArray, parseRepeater},
	{KindCloseout, isCloseout, parseCloseout},
	{KindRepeater, isEncodedRepeater, parseEncodedRepeater},
	{KindStringArray, isStringArray, parseStringArray},
	{KindString, isString, parseString},
	{KindInteger, isInteger, parseInteger},
	{KindFloat, isNumber, parseFloat},
	{KindNull, isNull, func(gjson.Result) (ResponseValue, bool) { return NullValue(), true }},
}

var closeoutKeys = []string{"photos", "signature", "notes", "completedBy", "completedAt"}

// ParseResponseValue classifies raw by shape. It reports false for shapes
// no variant accepts (booleans, mixed arrays, unrelated objects).
func ParseResponseValue(raw []byte) (ResponseValue, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return NullValue(), true
	}
	if !gjson.Valid(trimmed) {
		return ResponseValue{}, false
	}
	result := gjson.Parse(trimmed)
	for _, rule := range shapeRules {
		if !rule.match(result) {
			continue
		}
		if v, ok := rule.parse(result); ok {
			return v, true
		}
	}
	return ResponseValue{}, false
}

func isCameraShape(r gjson.Result) bool {
	return r.IsObject() && r.Get("image").Exists() && r.Get("location").Exists()
}

func isCameraArray(r gjson.Result) bool {
	if !r.IsArray() {
		return false
	}
	elems := r.Array()
	if len(elems) == 0 {
		return false
	}
	for _, e := range elems {
		if !isCameraShape(e) {
			return false
		}
	}
	return true
}

func isCamera(r gjson.Result) bool { return isCameraShape(r) }

func isObjectArray(r gjson.Result) bool {
	if !r.IsArray() {
		return false
	}
	elems := r.Array()
	if len(elems) == 0 {
		return false
	}
	for _, e := range elems {
		if !e.IsObject() {
			return false
		}
	}
	return true
}

func isCloseout(r gjson.Result) bool {
	if !r.IsObject() {
		return false
	}
	for _, key := range closeoutKeys {
		if r.Get(key).Exists() {
			return true
		}
	}
	return false
}

func isEncodedRepeater(r gjson.Result) bool {
	if r.Type != gjson.String {
		return false
	}
	text := strings.TrimSpace(r.String())
	if !strings.HasPrefix(text, "[") || !gjson.Valid(text) {
		return false
	}
	return isObjectArray(gjson.Parse(text))
}

func isStringArray(r gjson.Result) bool {
	if !r.IsArray() {
		return false
	}
	for _, e := range r.Array() {
		if e.Type != gjson.String {
			return false
		}
	}
	return true
}

func isString(r gjson.Result) bool { return r.Type == gjson.String }

func isNumber(r gjson.Result) bool { return r.Type == gjson.Number }

func isInteger(r gjson.Result) bool {
	return r.Type == gjson.Number && !strings.ContainsAny(r.Raw, ".eE")
}

func isNull(r gjson.Result) bool { return r.Type == gjson.Null }

func parseCameraArray(r gjson.Result) (ResponseValue, bool) {
	var cs []CameraCapture
	if err := json.Unmarshal([]byte(r.Raw), &cs); err != nil {
		return ResponseValue{}, false
	}
	return CameraArrayValue(cs...), true
}

func parseCamera(r gjson.Result) (ResponseValue, bool) {
	var c CameraCapture
	if err := json.Unmarshal([]byte(r.Raw), &c); err != nil {
		return ResponseValue{}, false
	}
	return CameraValue(c), true
}

func parseRepeater(r gjson.Result) (ResponseValue, bool) {
	elems := r.Array()
	rows := make([]Row, 0, len(elems))
	for _, e := range elems {
		row := Row{}
		e.ForEach(func(key, value gjson.Result) bool {
			if value.Type == gjson.String {
				row[key.String()] = value.String()
			} else {
				row[key.String()] = value.Raw
			}
			return true
		})
		rows = append(rows, row)
	}
	return RepeaterValue(rows...), true
}

func parseEncodedRepeater(r gjson.Result) (ResponseValue, bool) {
	return parseRepeater(gjson.Parse(strings.TrimSpace(r.String())))
}

func parseCloseout(r gjson.Result) (ResponseValue, bool) {
	var c Closeout
	if err := json.Unmarshal([]byte(r.Raw), &c); err != nil {
		return ResponseValue{}, false
	}
	return CloseoutValue(c), true
}

func parseStringArray(r gjson.Result) (ResponseValue, bool) {
	elems := r.Array()
	texts := make([]string, 0, len(elems))
	for _, e := range elems {
		texts = append(texts, e.String())
	}
	return StringArrayValue(texts...), true
}

func parseString(r gjson.Result) (ResponseValue, bool) {
	return StringValue(r.String()), true
}

func parseInteger(r gjson.Result) (ResponseValue, bool) {
	n, err := strconv.ParseInt(r.Raw, 10, 64)
	if err != nil {
		return ResponseValue{}, false
	}
	return IntValue(n), true
}

func parseFloat(r gjson.Result) (ResponseValue, bool) {
	f, err := strconv.ParseFloat(r.Raw, 64)
	if err != nil {
		return ResponseValue{}, false
	}
	return FloatValue(f), true
}

// MarshalJSON writes the variant in the shape ParseResponseValue reads
// back as the same variant.
func (v ResponseValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Text)
	case KindStringArray:
		if v.Texts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Texts)
	case KindInteger:
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	case KindFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return nil, fmt.Errorf("form response: unsupported float %v", v.Float)
		}
		text := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return []byte(text), nil
	case KindRepeater:
		if v.Rows == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Rows)
	case KindCloseout:
		if v.Closeout == nil {
			return json.Marshal(Closeout{})
		}
		return json.Marshal(v.Closeout)
	case KindCamera:
		if v.Camera == nil {
			return json.Marshal(CameraCapture{})
		}
		return json.Marshal(v.Camera)
	case KindCameraArray:
		if v.Cameras == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Cameras)
	default:
		return nil, fmt.Errorf("form response: unknown kind %d", v.Kind)
	}
}

func (v *ResponseValue) UnmarshalJSON(data []byte) error {
	parsed, ok := ParseResponseValue(data)
	if !ok {
		return fmt.Errorf("form response: unrecognised shape %s", truncate(string(data), 64))
	}
	*v = parsed
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
