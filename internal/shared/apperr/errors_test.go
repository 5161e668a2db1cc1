package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var errDisk = errors.New("disk full")

func TestRenderStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{Validation("a", "b"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("wrapped: %w", NotFound("trail", "t-1")), http.StatusNotFound, "NOT_FOUND"},
		{Ingestion(errDisk), http.StatusInternalServerError, "INGESTION_ERROR"},
		{Persistence(errDisk), http.StatusInternalServerError, "PERSISTENCE_ERROR"},
		{fiber.NewError(fiber.StatusUnauthorized, "nope"), http.StatusUnauthorized, "HTTP_ERROR"},
		{errDisk, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tc := range cases {
		status, body := Render(tc.err)
		if status != tc.status || body.Code != tc.code {
			t.Fatalf("render %v: got %d %s", tc.err, status, body.Code)
		}
	}
}

func TestValidationKeepsOrder(t *testing.T) {
	_, body := Render(Validation("first", "second"))
	if len(body.Errors) != 2 || body.Errors[0] != "first" || body.Errors[1] != "second" {
		t.Fatalf("unexpected errors: %v", body.Errors)
	}
}

func TestUnwrap(t *testing.T) {
	if !errors.Is(Ingestion(errDisk), errDisk) {
		t.Fatalf("ingestion should unwrap")
	}
	if !errors.Is(Persistence(errDisk), errDisk) {
		t.Fatalf("persistence should unwrap")
	}
	if !IsNotFound(NotFound("user", 3)) || IsNotFound(errDisk) {
		t.Fatalf("not found detection")
	}
	if NotFound("user", 3).Error() != "user 3 not found" {
		t.Fatalf("unexpected message")
	}
}

func TestHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler(zap.NewNop())})
	app.Get("/bad", func(c *fiber.Ctx) error { return Validation("name must be unique") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/bad", nil))
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "name must be unique") {
		t.Fatalf("unexpected body: %s", raw)
	}
}
