package poi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-trailhub/internal/auth"
	"backend-trailhub/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"
)

const testSecret = "secret"

func newApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(zap.NewNop())})
	RegisterRoutes(app.Group("/pois"), svc, auth.JWTMiddleware(testSecret), auth.RequireAdmin())
	RegisterTrailRoutes(app.Group("/trails"), svc)
	return app
}

func bearer(t *testing.T, userID int64, admin bool) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:  userID,
		IsAdmin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

type filePart struct {
	field, filename string
	data            []byte
}

func multipartRequest(t *testing.T, method, target string, values map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		_ = w.WriteField(k, v)
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(f.data)
	}
	_ = w.Close()

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestCreateRoute(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)
	now := time.Now()

	f.mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM trails`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectQuery(`WHERE image = \$1`).
		WithArgs(trailID+"/POI/falls.jpg", "").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectQuery(`INSERT INTO points_of_interest`).
		WithArgs(insertArgs(pgxmock.AnyArg())...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	req := multipartRequest(t, http.MethodPost, "/pois", map[string]string{
		"trailId":     trailID,
		"description": "Falls overlook",
		"isActive":    "true",
		"latitude":    "30.1",
		"longitude":   "-95.1",
	}, filePart{field: "image", filename: "falls.png", data: pngUpload(t, "falls.png").Data})
	req.Header.Set("Authorization", bearer(t, 1, false))

	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v %d", err, resp.StatusCode)
	}
	var created PointOfInterest
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.CreatedBy == nil || *created.CreatedBy != 1 || created.Image == nil {
		t.Fatalf("unexpected body %+v", created)
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRouteRequiresAuthAndMultipart(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)

	req := multipartRequest(t, http.MethodPost, "/pois", map[string]string{"trailId": trailID})
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodPost, "/pois", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, 1, false))
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
}

func TestCreateRouteValidationBody(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)

	req := multipartRequest(t, http.MethodPost, "/pois", map[string]string{"trailId": trailID, "isActive": "true", "latitude": "1", "longitude": "2"})
	req.Header.Set("Authorization", bearer(t, 1, false))
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}
	var body apperr.Body
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != "VALIDATION_ERROR" || len(body.Errors) != 1 || body.Errors[0] != "description is required" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestGetRoute(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)

	f.mock.ExpectQuery(`FROM points_of_interest WHERE id=\$1`).
		WithArgs(poiID).
		WillReturnRows(poiRow(nil))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pois/"+poiID, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v", err)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/pois/missing", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", resp.StatusCode)
	}
}

func TestPatchRoute(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)

	req := multipartRequest(t, http.MethodPatch, "/pois/"+poiID, map[string]string{"isActive": "false"})
	req.Header.Set("Authorization", bearer(t, 2, false))
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden for non-admin, got %d", resp.StatusCode)
	}

	f.mock.ExpectQuery(`FROM points_of_interest WHERE id=\$1`).
		WithArgs(poiID).
		WillReturnRows(poiRow(nil))
	f.mock.ExpectQuery(`UPDATE points_of_interest`).
		WithArgs(poiID, "Falls overlook", (*string)(nil), false).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	req = multipartRequest(t, http.MethodPatch, "/pois/"+poiID, map[string]string{"isActive": "false"})
	req.Header.Set("Authorization", bearer(t, 1, true))
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status: %v %d", err, resp.StatusCode)
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRoute(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)

	f.mock.ExpectQuery(`FROM points_of_interest WHERE id=\$1`).
		WithArgs(poiID).
		WillReturnRows(poiRow(nil))
	f.mock.ExpectExec(`DELETE FROM points_of_interest`).
		WithArgs(poiID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	req := httptest.NewRequest(http.MethodDelete, "/pois/"+poiID, nil)
	req.Header.Set("Authorization", bearer(t, 1, true))
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTrailPOIsRoute(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)

	f.mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM trails`).
		WithArgs(trailID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectQuery(`WHERE trail_id = ANY\(\$1\)`).
		WithArgs([]string{trailID}).
		WillReturnRows(pgxmock.NewRows(poiCols))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/trails/"+trailID+"/pois", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var pois []PointOfInterest
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil || pois == nil || len(pois) != 0 {
		t.Fatalf("expected empty array, got %v %v", pois, err)
	}
}

func TestNearbyRoute(t *testing.T) {
	f := newFixture(t)
	app := newApp(f.svc)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/pois/nearby?lat=abc", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}

	f.mock.ExpectQuery(`ST_DWithin`).
		WithArgs(-95.1, 30.1, 1*metersPerMile).
		WillReturnRows(poiRow(nil))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pois/nearby?lat=30.1&lng=-95.1", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("nearby status: %v", err)
	}
}
