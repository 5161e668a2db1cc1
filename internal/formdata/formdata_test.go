package formdata

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLengthOfObjectArrays(t *testing.T) {
	cases := []struct {
		name string
		body Body
		want bool
	}{
		{"no fields", Body{"createdBy": {"1"}}, true},
		{"single scalars", Body{"POI_description": {"a"}, "POI_latitude": {"30.1"}}, true},
		{"matching arrays", Body{"TrailCoords_latitude": {"1", "2", "3"}, "TrailCoords_longitude": {"4", "5", "6"}}, true},
		{"mismatch", Body{"POI_description": {"a", "b"}, "POI_latitude": {"30.1"}}, false},
		{"other prefix ignored", Body{"POI_description": {"a", "b"}, "TrailCoords_latitude": {"1"}}, true},
		{"empty array", Body{"POI_description": {}, "POI_latitude": {"1"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckLengthOfObjectArrays(tc.body, "POI") && CheckLengthOfObjectArrays(tc.body, "TrailCoords"))
		})
	}
}

func TestMakeObjectArrayDistributesByIndex(t *testing.T) {
	body := Body{
		"TrailCoords_longitude": {"-95.1", "-95.2"},
		"TrailCoords_latitude":  {"30.1", "30.2"},
		"TrailCoords_speed":     {"1.5", "2"},
		"POI_description":       {"ignored"},
		"difficulty":            {"easy"},
	}

	objects := MakeObjectArray(body, "TrailCoords")
	require.Len(t, objects, 2)
	assert.Equal(t, Object{"latitude": "30.1", "longitude": "-95.1", "speed": "1.5"}, objects[0])
	assert.Equal(t, Object{"latitude": "30.2", "longitude": "-95.2", "speed": "2"}, objects[1])
}

func TestMakeObjectArrayScalarAndEmpty(t *testing.T) {
	objects := MakeObjectArray(Body{"POI_description": {"falls"}}, "POI")
	require.Len(t, objects, 1)
	assert.Equal(t, "falls", objects[0]["description"])

	assert.Empty(t, MakeObjectArray(Body{"difficulty": {"easy"}}, "POI"))
}

func TestFlattenRoundTrip(t *testing.T) {
	original := []Object{
		{"description": "overlook", "isActive": "true", "latitude": "30.1", "longitude": "-95.1"},
		{"description": "bridge", "isActive": "false", "latitude": "30.2", "longitude": "-95.2"},
		{"description": "creek", "isActive": "true", "latitude": "30.3", "longitude": "-95.3"},
	}

	body := Flatten("POI", original)
	require.True(t, CheckLengthOfObjectArrays(body, "POI"))

	// rebuild the map in a different insertion order
	shuffled := Body{}
	for _, key := range []string{"POI_longitude", "POI_isActive", "POI_latitude", "POI_description"} {
		shuffled[key] = body[key]
	}
	assert.Equal(t, original, MakeObjectArray(shuffled, "POI"))
}

func TestScalarsAndHas(t *testing.T) {
	body := Body{"createdBy": {"1"}, "name": {"Ridge"}, "POI_description": {"a"}}
	assert.Equal(t, Object{"createdBy": "1", "name": "Ridge"}, body.Scalars())
	assert.True(t, body.Has("POI"))
	assert.False(t, body.Has("TrailCoords"))

	v, ok := body.Scalar("name")
	assert.True(t, ok)
	assert.Equal(t, "Ridge", v)
	_, ok = body.Scalar("missing")
	assert.False(t, ok)
}

type sample struct {
	Name     string   `form:"name"`
	Note     *string  `form:"note"`
	Lat      float64  `form:"latitude"`
	Speed    *float64 `form:"speed"`
	Active   *bool    `form:"isActive"`
	Closed   bool     `form:"isClosed"`
	Owner    *int64   `form:"createdBy"`
	Count    int64    `form:"count"`
	Internal string
}

func TestDecode(t *testing.T) {
	var s sample
	errs := Decode(Object{
		"name":      "Ridge",
		"latitude":  "30.25",
		"speed":     "null",
		"isActive":  "true",
		"isClosed":  "false",
		"createdBy": "7",
		"count":     " 3 ",
	}, &s)
	require.Empty(t, errs)
	assert.Equal(t, "Ridge", s.Name)
	assert.Nil(t, s.Note)
	assert.Equal(t, 30.25, s.Lat)
	assert.Nil(t, s.Speed)
	require.NotNil(t, s.Active)
	assert.True(t, *s.Active)
	require.NotNil(t, s.Owner)
	assert.Equal(t, int64(7), *s.Owner)
	assert.Equal(t, int64(3), s.Count)
}

func TestDecodeCollectsEveryError(t *testing.T) {
	var s sample
	errs := Decode(Object{"latitude": "north", "isActive": "maybe", "createdBy": "1.5"}, &s)
	require.Len(t, errs, 3)
	assert.Equal(t, FieldError{Field: "latitude", Message: "must be a number"}, errs[0])
	assert.Equal(t, FieldError{Field: "isActive", Message: "must be a boolean"}, errs[1])
	assert.Equal(t, FieldError{Field: "createdBy", Message: "must be an integer"}, errs[2])
}

func TestDecodeRejectsNonFiniteFloats(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "+Inf", "-inf"} {
		var s sample
		errs := Decode(Object{"latitude": raw, "speed": raw}, &s)
		require.Len(t, errs, 2, raw)
		assert.Equal(t, FieldError{Field: "latitude", Message: "must be a finite number"}, errs[0])
		assert.Equal(t, FieldError{Field: "speed", Message: "must be a finite number"}, errs[1])
		assert.Nil(t, s.Speed)
	}
}

func TestFromMultipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("TrailCoords_latitude[]", "30.1")
	_ = w.WriteField("TrailCoords_latitude[]", "30.2")
	_ = w.WriteField("difficulty", "easy")
	fw, _ := w.CreateFormFile("POI_image", "falls.png")
	_, _ = fw.Write([]byte("png"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	body := FromMultipart(req.MultipartForm)
	assert.Equal(t, []string{"30.1", "30.2"}, body["TrailCoords_latitude"])
	assert.Equal(t, []string{"easy"}, body["difficulty"])

	files := Files(req.MultipartForm, "POI_image")
	require.Len(t, files, 1)
	assert.Equal(t, "falls.png", files[0].Filename)

	assert.Empty(t, FromMultipart(nil))
	assert.Nil(t, Files(nil, "POI_image"))
}
