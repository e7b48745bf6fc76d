package internal

import (
	"context"
	"errors"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ------------------- Admin: users -------------------

// GET /api/admin/users?role=&status=&q=&page=&limit=
func AdminUsers(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		page, limit := ParsePage(c)

		where := sq.And{}
		if role := c.Query("role"); role != "" {
			where = append(where, sq.Eq{"u.role": role})
		}
		if status := c.Query("status"); status != "" {
			where = append(where, sq.Eq{"u.status": status})
		}
		if search := c.Query("q"); search != "" {
			where = append(where, sq.Or{
				sq.ILike{"u.email": "%" + search + "%"},
				sq.ILike{"u.name": "%" + search + "%"},
			})
		}

		countQ := psql.Select("COUNT(*)").From("identities u")
		if len(where) > 0 {
			countQ = countQ.Where(where)
		}
		var total int
		if err := qRow(ctx, db, countQ).Scan(&total); err != nil {
			logError("admin_users", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		q := psql.Select(
			"u.id", "u.email", "u.name", "u.role", "u.status", "u.email_verified_at", "u.created_at",
			"(ap.identity_id IS NOT NULL)", "(op.identity_id IS NOT NULL)",
		).
			From("identities u").
			LeftJoin("athlete_profiles ap ON ap.identity_id = u.id").
			LeftJoin("org_profiles op ON op.identity_id = u.id").
			OrderBy("u.id ASC").
			Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
		if len(where) > 0 {
			q = q.Where(where)
		}

		rows, err := qQuery(ctx, db, q)
		if err != nil {
			logError("admin_users", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		out := []IdentityView{}
		for rows.Next() {
			var u Identity
			var hasAthlete, hasOrg bool
			if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.EmailVerifiedAt, &u.CreatedAt,
				&hasAthlete, &hasOrg); err != nil {
				logError("admin_users", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			out = append(out, ShapeIdentity(u, profileType(hasAthlete, hasOrg)))
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}

var adminUserShape = Shape{
	"name":  {Kind: KindString, MinLen: 1, MaxLen: 120},
	"email": {Kind: KindString, MinLen: 3, MaxLen: 200},
}

func AdminUpdateUser(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := adminUserShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}
		if len(clean) == 0 {
			c.JSON(400, gin.H{"error": "nothing to update"})
			return
		}

		q := psql.Update("identities").Where(sq.Eq{"id": id})
		for field, val := range clean {
			q = q.Set(field, val)
		}
		tag, err := qExec(context.Background(), db, q)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				c.JSON(409, gin.H{"error": "email already registered"})
				return
			}
			logError("admin_update_user", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if tag.RowsAffected() == 0 {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}

		logAction(db, &actor, "admin_update_user", "user_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true})
	}
}

func AdminDeleteUser(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))
		if id == actor {
			c.JSON(400, gin.H{"error": "cannot delete yourself"})
			return
		}
		ctx := context.Background()

		var res DeleteResult
		err := WithTx(ctx, db, func(tx pgx.Tx) error {
			var err error
			res, err = ApplyDeletePolicy(IdentityDeleteTarget(ctx, tx), []int{id})
			return err
		})
		if err != nil {
			logError("admin_delete_user", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if res.SoftDeleted == 0 && res.HardDeleted == 0 {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}

		outcome := "hard"
		if res.SoftDeleted > 0 {
			outcome = "soft"
		}
		logAction(db, &actor, "admin_delete_user", "user_id="+strconv.Itoa(id)+" outcome="+outcome)
		c.JSON(200, gin.H{"ok": true, "outcome": outcome})
	}
}

var bulkIDShape = Shape{
	"ids": {Kind: KindIntList, Required: true, MinLen: 1},
}

// POST /api/admin/users/bulk-delete. The soft/hard split is decided per
// record from one snapshot; callers get the summary, not a verdict.
func AdminBulkDeleteUsers(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := bulkIDShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}
		ids := clean["ids"].([]int)
		for _, id := range ids {
			if id == actor {
				c.JSON(400, gin.H{"error": "cannot delete yourself"})
				return
			}
		}

		ctx := context.Background()
		var res DeleteResult
		err := WithTx(ctx, db, func(tx pgx.Tx) error {
			var err error
			res, err = ApplyDeletePolicy(IdentityDeleteTarget(ctx, tx), ids)
			return err
		})
		if err != nil {
			logError("admin_bulk_delete_users", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &actor, "admin_bulk_delete_users",
			"soft="+strconv.Itoa(res.SoftDeleted)+" hard="+strconv.Itoa(res.HardDeleted))
		c.JSON(200, res)
	}
}

var roleShape = Shape{
	"role": {Kind: KindString, Required: true, Enum: []string{RoleAthlete, RoleClient, RoleAdmin, RoleSuperAdmin}},
}

// POST /api/admin/users/:id/role (sensitive tier)
func AdminSetRole(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := roleShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}

		tag, err := db.Exec(context.Background(),
			"UPDATE identities SET role=$1 WHERE id=$2", clean["role"], id,
		)
		if err != nil {
			logError("admin_set_role", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if tag.RowsAffected() == 0 {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}

		logAction(db, &actor, "admin_set_role", "user_id="+strconv.Itoa(id)+" role="+clean["role"].(string))
		c.JSON(200, gin.H{"ok": true})
	}
}

// GET /api/admin/users/export?role=
func AdminExportUsers(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		q := psql.Select("id, email, name, role, status, email_verified_at, created_at").
			From("identities").OrderBy("id ASC")
		if role := c.Query("role"); role != "" {
			q = q.Where(sq.Eq{"role": role})
		}
		rows, err := qQuery(ctx, db, q)
		if err != nil {
			logError("admin_export_users", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		var csvRows [][]string
		for rows.Next() {
			var u Identity
			if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.EmailVerifiedAt, &u.CreatedAt); err != nil {
				logError("admin_export_users", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			csvRows = append(csvRows, identityCSVRow(u))
		}

		doc, err := BuildCSV(identityCSVHeader, csvRows)
		if err != nil {
			logError("admin_export_users", err)
			c.JSON(500, gin.H{"error": "export"})
			return
		}
		sendCSV(c, "users-"+uuid.NewString()+".csv", doc)
	}
}

// ------------------- Admin: listings -------------------

// GET /api/admin/listings?status=draft|pending|active|closed|all
func AdminListListings(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		page, limit := ParsePage(c)

		where := sq.And{}
		if status := c.Query("status"); status != "" && status != "all" {
			where = append(where, sq.Eq{"status": status})
		}

		countQ := psql.Select("COUNT(*)").From("listings")
		if len(where) > 0 {
			countQ = countQ.Where(where)
		}
		var total int
		if err := qRow(ctx, db, countQ).Scan(&total); err != nil {
			logError("admin_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		q := psql.Select(listingCols).From("listings").OrderBy("id DESC").
			Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
		if len(where) > 0 {
			q = q.Where(where)
		}
		rows, err := qQuery(ctx, db, q)
		if err != nil {
			logError("admin_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		out, err := collectListings(rows)
		if err != nil {
			logError("admin_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}

// POST /api/admin/listings/:id/approve moves a pending listing live.
func AdminApproveListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		var status string
		if err := db.QueryRow(ctx, "SELECT status FROM listings WHERE id=$1", id).Scan(&status); err != nil {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		if !CanTransitionListing(status, ListingActive) {
			c.JSON(400, gin.H{"error": "cannot approve from status " + status})
			return
		}

		_, err := db.Exec(ctx, "UPDATE listings SET status=$1 WHERE id=$2", ListingActive, id)
		if err != nil {
			logError("admin_approve_listing", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &actor, "admin_approve_listing", "listing_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true})
	}
}

// POST /api/admin/listings/:id/close (admin override, any non-terminal state)
func AdminCloseListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		var status string
		if err := db.QueryRow(ctx, "SELECT status FROM listings WHERE id=$1", id).Scan(&status); err != nil {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}
		if !CanTransitionListing(status, ListingClosed) {
			c.JSON(400, gin.H{"error": "listing already closed"})
			return
		}

		_, err := db.Exec(ctx, "UPDATE listings SET status=$1 WHERE id=$2", ListingClosed, id)
		if err != nil {
			logError("admin_close_listing", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &actor, "admin_close_listing", "listing_id="+strconv.Itoa(id))
		c.JSON(200, gin.H{"ok": true})
	}
}

func AdminDeleteListing(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)
		id, _ := strconv.Atoi(c.Param("id"))
		ctx := context.Background()

		var res DeleteResult
		err := WithTx(ctx, db, func(tx pgx.Tx) error {
			var err error
			res, err = ApplyDeletePolicy(ListingDeleteTarget(ctx, tx), []int{id})
			return err
		})
		if err != nil {
			logError("admin_delete_listing", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		if res.SoftDeleted == 0 && res.HardDeleted == 0 {
			c.JSON(404, gin.H{"error": "not found"})
			return
		}

		outcome := "hard"
		if res.SoftDeleted > 0 {
			outcome = "soft"
		}
		logAction(db, &actor, "admin_delete_listing", "listing_id="+strconv.Itoa(id)+" outcome="+outcome)
		c.JSON(200, gin.H{"ok": true, "outcome": outcome})
	}
}

func AdminBulkDeleteListings(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := uid(c)

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		clean, violations := bulkIDShape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}
		ids := clean["ids"].([]int)

		ctx := context.Background()
		var res DeleteResult
		err := WithTx(ctx, db, func(tx pgx.Tx) error {
			var err error
			res, err = ApplyDeletePolicy(ListingDeleteTarget(ctx, tx), ids)
			return err
		})
		if err != nil {
			logError("admin_bulk_delete_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &actor, "admin_bulk_delete_listings",
			"soft="+strconv.Itoa(res.SoftDeleted)+" hard="+strconv.Itoa(res.HardDeleted))
		c.JSON(200, res)
	}
}

// GET /api/admin/listings/export?status=
func AdminExportListings(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		q := psql.Select(listingCols).From("listings").OrderBy("id ASC")
		if status := c.Query("status"); status != "" && status != "all" {
			q = q.Where(sq.Eq{"status": status})
		}
		rows, err := qQuery(ctx, db, q)
		if err != nil {
			logError("admin_export_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		listings, err := collectListings(rows)
		if err != nil {
			logError("admin_export_listings", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		var csvRows [][]string
		for _, l := range listings {
			csvRows = append(csvRows, listingCSVRow(l))
		}
		doc, err := BuildCSV(listingCSVHeader, csvRows)
		if err != nil {
			logError("admin_export_listings", err)
			c.JSON(500, gin.H{"error": "export"})
			return
		}
		sendCSV(c, "listings-"+uuid.NewString()+".csv", doc)
	}
}

// ------------------- Admin: applications / donations / audit -------------------

func AdminListApplications(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		page, limit := ParsePage(c)

		where := sq.And{}
		if status := c.Query("status"); status != "" && status != "all" {
			where = append(where, sq.Eq{"status": status})
		}

		countQ := psql.Select("COUNT(*)").From("applications")
		if len(where) > 0 {
			countQ = countQ.Where(where)
		}
		var total int
		if err := qRow(ctx, db, countQ).Scan(&total); err != nil {
			logError("admin_applications", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		q := psql.Select("id, listing_id, athlete_id, status, note, created_at").
			From("applications").OrderBy("id DESC").
			Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
		if len(where) > 0 {
			q = q.Where(where)
		}
		rows, err := qQuery(ctx, db, q)
		if err != nil {
			logError("admin_applications", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		out := []Application{}
		for rows.Next() {
			var a Application
			if err := rows.Scan(&a.ID, &a.ListingID, &a.AthleteID, &a.Status, &a.Note, &a.CreatedAt); err != nil {
				logError("admin_applications", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			out = append(out, a)
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}

func AdminDonations(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		page, limit := ParsePage(c)

		var total int
		if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM donations").Scan(&total); err != nil {
			logError("admin_donations", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		rows, err := db.Query(ctx, `
			SELECT id, session_id, identity_id, email, amount_cents, currency, created_at
			FROM donations
			ORDER BY id DESC
			LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
		if err != nil {
			logError("admin_donations", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		type row struct {
			Donation
			ReceivedAt string `json:"receivedAt"`
		}
		out := []row{}
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.ID, &r.SessionID, &r.IdentityID, &r.Email, &r.AmountCent, &r.Currency, &r.CreatedAt); err != nil {
				logError("admin_donations", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			r.ReceivedAt = displayTime(r.CreatedAt)
			out = append(out, r)
		}
		c.JSON(200, Envelope(out, NewPagination(page, limit, total)))
	}
}

func AdminAudit(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := db.Query(context.Background(),
			`SELECT l.id,
			        to_char(l.created_at, 'YYYY-MM-DD HH24:MI:SS') AS created_at,
			        COALESCE(u.name,'(deleted)') AS actor,
			        l.action,
			        l.details
			 FROM logs l
			 LEFT JOIN identities u ON u.id=l.actor_id
			 ORDER BY l.id DESC LIMIT 200`)
		if err != nil {
			logError("admin_audit", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		defer rows.Close()

		type row struct {
			ID        int64  `json:"id"`
			CreatedAt string `json:"created_at"`
			Actor     string `json:"actor"`
			Action    string `json:"action"`
			Details   string `json:"details"`
		}

		out := []row{}
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Actor, &r.Action, &r.Details); err != nil {
				c.JSON(500, gin.H{"error": "scan"})
				return
			}
			out = append(out, r)
		}

		c.JSON(200, out)
	}
}
