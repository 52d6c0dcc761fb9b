package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WebhookSignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const WebhookSignatureHeader = "X-Webhook-Signature"

// SignWebhook computes the signature a provider sends for body.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookSignature rejects callbacks whose signature does not match the body.
// An empty secret disables the check.
func WebhookSignature(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		got := strings.TrimPrefix(strings.TrimSpace(c.Get(WebhookSignatureHeader)), "sha256=")
		sig, err := hex.DecodeString(got)
		if err != nil || len(sig) == 0 {
			return fiber.NewError(http.StatusUnauthorized, "missing or malformed webhook signature")
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(c.Body())
		if !hmac.Equal(sig, mac.Sum(nil)) {
			return fiber.NewError(http.StatusUnauthorized, "webhook signature mismatch")
		}
		return c.Next()
	}
}
