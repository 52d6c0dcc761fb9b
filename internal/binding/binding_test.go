package binding

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ContentID string `json:"content_id" validate:"required,uuid"`
	Kind      string `json:"kind" validate:"required,oneof=chapter comic"`
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var s sample
		if err := Body(c, &s); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestBody(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"valid", `{"content_id":"8d1f0c3e-7b8a-4c55-9a65-2a1f7c7d1e11","kind":"chapter"}`, http.StatusNoContent, ""},
		{"malformed", `{"content_id":`, http.StatusBadRequest, "invalid request body"},
		{"bad kind", `{"content_id":"8d1f0c3e-7b8a-4c55-9a65-2a1f7c7d1e11","kind":"novel"}`, http.StatusBadRequest, "kind failed on 'oneof'"},
		{"missing id", `{"kind":"comic"}`, http.StatusBadRequest, "contentid failed on 'required'"},
	}
	app := newApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.msg != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Contains(t, string(body), tc.msg)
			}
		})
	}
}
