package internal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

/* ===================== PAYMENT WEBHOOK ===================== */

const signatureHeader = "X-Webhook-Signature"

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body against
// the shared secret in constant time.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		SessionID  string `json:"session_id"`
		Email      string `json:"email"`
		AmountCent int    `json:"amount_cents"`
		Currency   string `json:"currency"`
	} `json:"data"`
}

// Notifier is a pluggable side effect; webhook acceptance never depends on
// delivery.
type Notifier interface {
	DonationReceived(ctx context.Context, d Donation)
}

type NopNotifier struct{}

func (NopNotifier) DonationReceived(context.Context, Donation) {}

// PaymentWebhook verifies the signature before parsing anything, then
// upserts the donation keyed by the provider session id. Redelivery of the
// same event is a no-op.
func PaymentWebhook(db *pgxpool.Pool, secret string, notifier Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(400, gin.H{"error": "bad request"})
			return
		}
		if !VerifyWebhookSignature(secret, body, c.GetHeader(signatureHeader)) {
			logError("webhook_verify", errInvalidSignature)
			c.JSON(401, gin.H{"error": "not authorized"})
			return
		}

		var ev webhookEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		if ev.Type != "checkout.session.completed" {
			c.JSON(200, gin.H{"received": true})
			return
		}
		if ev.Data.SessionID == "" || ev.Data.AmountCent <= 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": []Violation{
				{Field: "data", Reason: "session_id and positive amount_cents required"},
			}})
			return
		}

		ctx := context.Background()
		tag, err := db.Exec(ctx, `
			INSERT INTO donations(session_id, identity_id, email, amount_cents, currency)
			VALUES ($1, (SELECT id FROM identities WHERE email=$2), $2, $3, $4)
			ON CONFLICT (session_id) DO NOTHING`,
			ev.Data.SessionID, ev.Data.Email, ev.Data.AmountCent, ev.Data.Currency,
		)
		if err != nil {
			logError("webhook_upsert", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		if tag.RowsAffected() > 0 {
			notifier.DonationReceived(ctx, Donation{
				SessionID:  ev.Data.SessionID,
				Email:      ev.Data.Email,
				AmountCent: ev.Data.AmountCent,
				Currency:   ev.Data.Currency,
			})
		}
		c.JSON(200, gin.H{"received": true})
	}
}
