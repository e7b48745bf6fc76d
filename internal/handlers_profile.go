package internal

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func Me(db RowQuerier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uid(c)
		var u Identity
		var hasAthlete, hasOrg bool
		err := db.QueryRow(context.Background(), `
			SELECT u.id, u.email, u.name, u.role, u.status, u.email_verified_at, u.created_at,
			       EXISTS(SELECT 1 FROM athlete_profiles ap WHERE ap.identity_id=u.id),
			       EXISTS(SELECT 1 FROM org_profiles op WHERE op.identity_id=u.id)
			FROM identities u WHERE u.id=$1`, id,
		).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.EmailVerifiedAt, &u.CreatedAt, &hasAthlete, &hasOrg)
		if errors.Is(err, pgx.ErrNoRows) {
			// a token can outlive its identity row
			c.JSON(401, gin.H{"error": "not authorized"})
			return
		}
		if err != nil {
			logError("me", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		c.JSON(200, ShapeIdentity(u, profileType(hasAthlete, hasOrg)))
	}
}

func profileType(hasAthlete, hasOrg bool) string {
	switch {
	case hasAthlete:
		return ProfileTypeAthlete
	case hasOrg:
		return ProfileTypeOrg
	default:
		return ProfileTypeNone
	}
}

// ------------------- Profile (own) -------------------

func MyProfile(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uid(c)
		ctx := context.Background()

		if roleOf(c) == RoleClient {
			var p OrgProfile
			err := db.QueryRow(ctx,
				"SELECT identity_id, org_name, title, website FROM org_profiles WHERE identity_id=$1", id,
			).Scan(&p.IdentityID, &p.OrgName, &p.Title, &p.Website)
			if err == pgx.ErrNoRows {
				c.JSON(200, gin.H{"profile": nil})
				return
			}
			if err != nil {
				logError("my_profile", err)
				c.JSON(500, gin.H{"error": "db"})
				return
			}
			c.JSON(200, gin.H{"profile": p})
			return
		}

		var p AthleteProfile
		err := db.QueryRow(ctx,
			"SELECT identity_id, sport, position, experience_years, height_cm, weight_kg, bio FROM athlete_profiles WHERE identity_id=$1", id,
		).Scan(&p.IdentityID, &p.Sport, &p.Position, &p.ExperienceYears, &p.HeightCM, &p.WeightKG, &p.Bio)
		if err == pgx.ErrNoRows {
			c.JSON(200, gin.H{"profile": nil, "completion": 0})
			return
		}
		if err != nil {
			logError("my_profile", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		c.JSON(200, gin.H{"profile": p, "completion": ProfileCompletion(p)})
	}
}

var athleteProfileShape = Shape{
	"name":             {Kind: KindString, MinLen: 1, MaxLen: 120},
	"sport":            {Kind: KindString, MinLen: 1, MaxLen: 80},
	"position":         {Kind: KindString, AllowNull: true, MaxLen: 80},
	"experience_years": {Kind: KindInt, AllowNull: true, Min: intp(0), Max: intp(60)},
	"height_cm":        {Kind: KindInt, AllowNull: true, Min: intp(50), Max: intp(260)},
	"weight_kg":        {Kind: KindInt, AllowNull: true, Min: intp(20), Max: intp(300)},
	"bio":              {Kind: KindString, AllowNull: true, MaxLen: 2000},
}

var orgProfileShape = Shape{
	"name":     {Kind: KindString, MinLen: 1, MaxLen: 120},
	"org_name": {Kind: KindString, MinLen: 1, MaxLen: 120},
	"title":    {Kind: KindString, AllowNull: true, MaxLen: 120},
	"website":  {Kind: KindString, AllowNull: true, MaxLen: 200},
}

// UpdateMyProfile applies a partial update to the caller's profile variant,
// optionally renaming the identity in the same transaction. Absent fields
// stay untouched; explicit null clears.
func UpdateMyProfile(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uid(c)
		role := roleOf(c)

		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}

		shape, table := athleteProfileShape, "athlete_profiles"
		if role == RoleClient {
			shape, table = orgProfileShape, "org_profiles"
		}
		clean, violations := shape.Validate(body)
		if len(violations) > 0 {
			c.JSON(400, gin.H{"error": "validation failed", "fields": violations})
			return
		}
		if len(clean) == 0 {
			c.JSON(400, gin.H{"error": "nothing to update"})
			return
		}

		ctx := context.Background()
		err := WithTx(ctx, db, func(tx pgx.Tx) error {
			if name, ok := clean["name"]; ok {
				q := psql.Update("identities").Set("name", name).Where(sq.Eq{"id": id})
				if _, err := qExecTx(ctx, tx, q); err != nil {
					return err
				}
				delete(clean, "name")
			}
			if len(clean) == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO "+table+"(identity_id) VALUES ($1) ON CONFLICT (identity_id) DO NOTHING", id,
			); err != nil {
				return err
			}
			q := psql.Update(table).Where(sq.Eq{"identity_id": id})
			for field, val := range clean {
				q = q.Set(field, profileColumnValue(field, val))
			}
			_, err := qExecTx(ctx, tx, q)
			return err
		})
		if err != nil {
			logError("update_profile", err)
			c.JSON(500, gin.H{"error": "db"})
			return
		}

		logAction(db, &id, "update_profile", "")
		c.JSON(200, gin.H{"ok": true})
	}
}

// Text columns clear to '', numeric columns clear to NULL.
func profileColumnValue(field string, val any) any {
	if val != nil {
		return val
	}
	switch field {
	case "experience_years", "height_cm", "weight_kg":
		return nil
	default:
		return ""
	}
}
