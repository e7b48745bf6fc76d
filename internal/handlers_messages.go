package internal

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ------------------- Messages -------------------

var messageShape = Shape{
	"receiver_id": {Kind: KindInt, Required: true, Min: intp(1)},
	"listing_id":  {Kind: KindInt, AllowNull: true, Min: intp(1)},
	"body":        {Kind: KindString, Required: true, MinLen: 1, MaxLen: 4000},
}

func SendMessage(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		senderID := uid(c)

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := messageShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}

		receiverID := clean["receiver_id"].(int)
		ctx := context.Background()

		var exists bool
		_ = db.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM identities WHERE id=$1 AND status=$2)",
			receiverID, IdentityActive,
		).Scan(&exists)
		if !exists {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}

		// weak listing reference, association only
		var listingID *int
		if v, ok := clean["listing_id"]; ok && v != nil {
			id := v.(int)
			var found bool
			_ = db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM listings WHERE id=$1)", id).Scan(&found)
			if !found {
				c.JSON(404, gin.H{"error": "not found"})
				return
			}
			listingID = &id
		}

		var msgID int
		err := db.QueryRow(ctx,
			"INSERT INTO messages(sender_id, receiver_id, listing_id, body) VALUES ($1,$2,$3,$4) RETURNING id",
			senderID, receiverID, listingID, clean["body"],
		).Scan(&msgID)
		if err != nil {
			logError("send_message", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &senderID, "send_message", "receiver_id="+strconv.Itoa(receiverID))
		c.JSON(200, gin.H{"ok": true, "message_id": msgID})
	}
}

// GET /api/messages?with=<identity id> returns both directions of one conversation.
func ListMessages(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		me := uid(c)
		other, err := strconv.Atoi(c.Query("with"))
		if err != nil || other < 1 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": []Violation{{Field: "with", Reason: "must be an integer"}}})
			return
		}
		ctx := context.Background()
		page, limit := ParsePage(c)

		var total int
		if err := db.QueryRow(ctx, `
			SELECT COUNT(*) FROM messages
			WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)`,
			me, other,
		).Scan(&total); err != nil {
			logError("list_messages", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		rows, err := db.Query(ctx, `
			SELECT id, sender_id, receiver_id, listing_id, body, created_at
			FROM messages
			WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
			ORDER BY id DESC
			LIMIT $3 OFFSET $4`, me, other, limit, (page-1)*limit)
		if err != nil {
			logError("list_messages", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		type row struct {
			Message
			SentAt string `json:"sentAt"`
		}
		out := []row{}
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.ListingID, &r.Body, &r.CreatedAt); err != nil {
				logError("list_messages", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			r.SentAt = displayTime(r.CreatedAt)
			out = append(out, r)
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}
