package storage

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestServeImage(t *testing.T) {
	store := NewImageStore(t.TempDir(), 1500, 75, nil)
	rel, err := store.Store("trail-1", pngBytes(t, 8, 8), "falls.png", CategoryPOI)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app.Group("/images"), store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/images/"+rel, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("serve status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/images/trail-1/POI/missing.jpg", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}
}
