package internal

import (
	"context"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listingCols = "id, org_id, title, sport, description, requirements, status, application_count, deadline, created_at"

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.OrgID, &l.Title, &l.Sport, &l.Description, &l.Requirements,
		&l.Status, &l.ApplicationCount, &l.Deadline, &l.CreatedAt)
	return l, err
}

func collectListings(rows pgx.Rows) ([]Listing, error) {
	defer rows.Close()
	out := []Listing{}
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.OrgID, &l.Title, &l.Sport, &l.Description, &l.Requirements,
			&l.Status, &l.ApplicationCount, &l.Deadline, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ------------------- Listings (browse) -------------------

// GET /api/listings?sport=&q=&page=&limit=  (active only)
func ListListings(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		page, limit := ParsePage(c)

		where := sq.And{sq.Eq{"status": ListingActive}}
		if sport := c.Query("sport"); sport != "" {
			where = append(where, sq.Eq{"sport": sport})
		}
		if search := c.Query("q"); search != "" {
			where = append(where, sq.ILike{"title": "%" + search + "%"})
		}

		var total int
		if err := qRow(ctx, db, psql.Select("COUNT(*)").From("listings").Where(where)).Scan(&total); err != nil {
			logError("list_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		q := psql.Select(listingCols).From("listings").Where(where).
			OrderBy("id DESC").
			Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
		rows, err := qQuery(ctx, db, q)
		if err != nil {
			logError("list_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		out, err := collectListings(rows)
		if err != nil {
			logError("list_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}

// GET /api/listings/:id. Visible when active, owned, or caller is admin;
// anything else is indistinguishable from a missing id.
func GetListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		isAdmin := RoleAllowed(ClassAdmin, roleOf(c))

		l, err := scanListing(db.QueryRow(context.Background(),
			"SELECT "+listingCols+" FROM listings WHERE id=$1 AND (status=$2 OR org_id=$3 OR $4)",
			id, ListingActive, uid(c), isAdmin,
		))
		if err != nil {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		c.JSON(200, l)
	}
}

// ------------------- Listings (client) -------------------

var listingShape = Shape{
	"title":        {Kind: KindString, Required: true, MinLen: 1, MaxLen: 200},
	"sport":        {Kind: KindString, Required: true, MinLen: 1, MaxLen: 80},
	"description":  {Kind: KindString, AllowNull: true, MaxLen: 5000},
	"requirements": {Kind: KindStringList, Required: true, MinLen: 1},
	"deadline":     {Kind: KindString, AllowNull: true},
	"submit":       {Kind: KindBool},
}

var listingUpdateShape = Shape{
	"title":        {Kind: KindString, MinLen: 1, MaxLen: 200},
	"sport":        {Kind: KindString, MinLen: 1, MaxLen: 80},
	"description":  {Kind: KindString, AllowNull: true, MaxLen: 5000},
	"requirements": {Kind: KindStringList, MinLen: 1},
	"deadline":     {Kind: KindString, AllowNull: true},
}

func parseDeadline(clean map[string]any) (*time.Time, *Violation) {
	raw, ok := clean["deadline"]
	if !ok || raw == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw.(string))
	if err != nil {
		return nil, &Violation{Field: "deadline", Reason: "must be an RFC3339 timestamp"}
	}
	return &t, nil
}

func CreateListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := uid(c)

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := listingShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}
		deadline, v := parseDeadline(clean)
		if v != nil {
			c.JSON(400, gin.H{"error": "validation failed", "fields": []Violation{*v}})
			return
		}

		status := ListingDraft
		if submit, _ := clean["submit"].(bool); submit {
			status = ListingPending
		}
		desc, _ := clean["description"].(string)

		var id int
		err := db.QueryRow(context.Background(), `
			INSERT INTO listings(org_id, title, sport, description, requirements, status, deadline)
			VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
			orgID, clean["title"], clean["sport"], desc, clean["requirements"], status, deadline,
		).Scan(&id)
		if err != nil {
			logError("create_listing", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &orgID, "create_listing", "listing_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true, "listing_id": id, "status": status})
	}
}

func UpdateListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := listingUpdateShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}
		if len(clean) == 0 {
			c.JSON(400, gin.H{"error": "nothing to update"})
			return
		}
		deadline, v := parseDeadline(clean)
		if v != nil {
			c.JSON(400, gin.H{"error": "validation failed", "fields": []Violation{*v}})
			return
		}

		ctx := context.Background()

		// ownership folded into the lookup: wrong tenant == missing id
		var status string
		err := db.QueryRow(ctx,
			"SELECT status FROM listings WHERE id=$1 AND org_id=$2", id, orgID,
		).Scan(&status)
		if err != nil {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		if status != ListingDraft && status != ListingPending {
			c.JSON(400, gin.H{"error": "listing can no longer be edited"})
			return
		}

		q := psql.Update("listings").Where(sq.Eq{"id": id, "org_id": orgID})
		for field, val := range clean {
			switch field {
			case "deadline":
				q = q.Set("deadline", deadline)
			case "description":
				s, _ := val.(string)
				q = q.Set("description", s)
			default:
				q = q.Set(field, val)
			}
		}
		if _, err := qExec(ctx, db, q); err != nil {
			logError("update_listing", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &orgID, "update_listing", "listing_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true})
	}
}

// POST /api/listings/:id/submit sends a draft in for approval.
func SubmitListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		var status string
		err := db.QueryRow(ctx,
			"SELECT status FROM listings WHERE id=$1 AND org_id=$2", id, orgID,
		).Scan(&status)
		if err != nil {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		if !CanTransitionListing(status, ListingPending) {
			c.JSON(400, gin.H{"error": "cannot submit from status " + status})
			return
		}

		_, err = db.Exec(ctx, "UPDATE listings SET status=$1 WHERE id=$2", ListingPending, id)
		if err != nil {
			logError("submit_listing", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &orgID, "submit_listing", "listing_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true})
	}
}

// DELETE /api/listings/:id. Soft close with applications, hard remove
// without.
func DeleteListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		var res DeleteResult
		err := WithTx(ctx, db, func(tx pgx.Tx) error {
			var owned bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM listings WHERE id=$1 AND org_id=$2)", id, orgID,
			).Scan(&owned); err != nil {
				return err
			}
			if !owned {
				return ErrNotFound
			}
			var err error
			res, err = ApplyDeletePolicy(ListingDeleteTarget(ctx, tx), []int{id})
			return err
		})
		if err == ErrNotFound {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		if err != nil {
			logError("delete_listing", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		outcome := "hard"
		if res.SoftDeleted > 0 {
			outcome = "soft"
		}
		logAction(db, &orgID, "delete_listing", "listing_id="+strconv.Itoa(id)+" outcome="+outcome)
		c.JSON(200, gin.H{"ok": true, "outcome": outcome})
	}
}

// GET /api/my/listings
func MyListings(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := uid(c)
		ctx := context.Background()
		page, limit := ParsePage(c)

		var total int
		if err := qRow(ctx, db, psql.Select("COUNT(*)").From("listings").Where(sq.Eq{"org_id": orgID})).Scan(&total); err != nil {
			logError("my_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		q := psql.Select(listingCols).From("listings").Where(sq.Eq{"org_id": orgID}).
			OrderBy("id DESC").
			Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
		rows, err := qQuery(ctx, db, q)
		if err != nil {
			logError("my_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		out, err := collectListings(rows)
		if err != nil {
			logError("my_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}
