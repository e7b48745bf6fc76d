package internal

import (
	"context"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ------------------- Applications (athlete) -------------------

// POST /api/listings/:id/apply
func ApplyToListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		athleteID := uid(c)
		listingID, _ := strconv.Atoi(c.Param("id"))

		var req struct {
			Note string `json:"note"`
		}
		_ = c.BindJSON(&req)
		if len(req.Note) > 2000 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": []Violation{{Field: "note", Reason: "must be at most 2000 characters"}}})
			return
		}

		appID, err := CreateApplication(context.Background(), db, athleteID, listingID, req.Note)
		switch err {
		case nil:
		case ErrNotFound:
			c.JSON(404, gin.H{"error": "not found"})
			return
		case ErrListingNotOpen:
			c.JSON(400, gin.H{"error": "listing is not open"})
			return
		case ErrDuplicateApplication:
			c.JSON(409, gin.H{"error": "already applied"})
			return
		default:
			logError("apply", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &athleteID, "apply_listing", "listing_id="+strconv.Itoa(listingID))
		c.JSON(200, gin.H{"ok": true, "application_id": appID})
	}
}

// GET /api/my/applications
func MyApplications(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		athleteID := uid(c)
		ctx := context.Background()
		page, limit := ParsePage(c)

		var total int
		if err := qRow(ctx, db, psql.Select("COUNT(*)").From("applications").Where(sq.Eq{"athlete_id": athleteID})).Scan(&total); err != nil {
			logError("my_applications", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		rows, err := db.Query(ctx, `
			SELECT a.id, a.listing_id, a.athlete_id, a.status, a.note, a.created_at,
			       l.title, l.status
			FROM applications a
			JOIN listings l ON l.id = a.listing_id
			WHERE a.athlete_id=$1
			ORDER BY a.id DESC
			LIMIT $2 OFFSET $3`, athleteID, limit, (page-1)*limit)
		if err != nil {
			logError("my_applications", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		type row struct {
			Application
			ListingTitle  string `json:"listing_title"`
			ListingStatus string `json:"listing_status"`
			AppliedAt     string `json:"appliedAt"`
		}
		out := []row{}
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.ID, &r.ListingID, &r.AthleteID, &r.Status, &r.Note, &r.CreatedAt,
				&r.ListingTitle, &r.ListingStatus); err != nil {
				logError("my_applications", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			r.AppliedAt = displayTime(r.CreatedAt)
			out = append(out, r)
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}

// POST /api/applications/:id/withdraw (athlete only, non-terminal only)
func WithdrawApplication(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		athleteID := uid(c)
		appID, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		var status string
		err := db.QueryRow(ctx,
			"SELECT status FROM applications WHERE id=$1 AND athlete_id=$2", appID, athleteID,
		).Scan(&status)
		if err != nil {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		if !CanWithdrawApplication(status) {
			c.JSON(400, gin.H{"error": "application already settled"})
			return
		}

		_, err = db.Exec(ctx, "UPDATE applications SET status=$1 WHERE id=$2", AppWithdrawn, appID)
		if err != nil {
			logError("withdraw", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &athleteID, "withdraw_application", "app_id="+strconv.Itoa(appID))
		c.JSON(200, gin.H{"ok": true})
	}
}

// ------------------- Applications (client) -------------------

// GET /api/listings/:id/applications (owning organization only)
func ListingApplications(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := uid(c)
		listingID, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		var owned bool
		_ = db.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM listings WHERE id=$1 AND org_id=$2)", listingID, orgID,
		).Scan(&owned)
		if !owned {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}

		rows, err := db.Query(ctx, `
			SELECT a.id, a.listing_id, a.athlete_id, a.status, a.note, a.created_at, u.name
			FROM applications a
			JOIN identities u ON u.id = a.athlete_id
			WHERE a.listing_id=$1
			ORDER BY a.id ASC`, listingID)
		if err != nil {
			logError("listing_applications", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		type row struct {
			Application
			AthleteName string `json:"athlete_name"`
			AppliedAt   string `json:"appliedAt"`
		}
		out := []row{}
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.ID, &r.ListingID, &r.AthleteID, &r.Status, &r.Note, &r.CreatedAt, &r.AthleteName); err != nil {
				logError("listing_applications", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			r.AppliedAt = displayTime(r.CreatedAt)
			out = append(out, r)
		}
		c.JSON(200, out)
	}
}

var appStatusShape = Shape{
	"status": {Kind: KindString, Required: true, Enum: []string{
		AppReviewing, AppShortlisted, AppInterviewed, AppAccepted, AppRejected,
	}},
}

// POST /api/applications/:id/status (organization-driven transitions)
func UpdateApplicationStatus(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := uid(c)
		appID, _ := strconv.Atoi(c.Param("id"))

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := appStatusShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}
		target := clean["status"].(string)

		ctx := context.Background()
		var status string
		err := db.QueryRow(ctx, `
			SELECT a.status
			FROM applications a
			JOIN listings l ON l.id = a.listing_id
			WHERE a.id=$1 AND l.org_id=$2`, appID, orgID,
		).Scan(&status)
		if err != nil {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		if !CanTransitionApplication(status, target) {
			c.JSON(400, gin.H{"error": "invalid transition from " + status})
			return
		}

		_, err = db.Exec(ctx, "UPDATE applications SET status=$1 WHERE id=$2", target, appID)
		if err != nil {
			logError("application_status", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &orgID, "application_status", "app_id="+strconv.Itoa(appID)+" status="+target)
		c.JSON(200, gin.H{"ok": true})
	}
}
