package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	app := fiber.New()
	app.Post("/login", NewRateLimiter(60, 2).Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger())
	app.Get("/ping", func(c *fiber.Ctx) error {
		id, _ := c.Locals(CtxRequestIDKey).(string)
		return c.SendString(id)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
	assert.Equal(t, resp.Header.Get(HeaderRequestID), string(body))

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))
}

func TestMetricsEndpointExposesRouteLabels(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/metrics", MetricsHandler())
	app.Get("/sales/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "no")
	})

	_, err := app.Test(httptest.NewRequest("GET", "/sales/42", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	assert.True(t, strings.Contains(text, `taller_http_requests_total{method="GET",route="/sales/:id",status="404"} 1`), text)
}
