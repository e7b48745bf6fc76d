package internal

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

/* ===================== MUTATION COORDINATOR ===================== */

var (
	ErrNotFound             = errors.New("not found")
	ErrListingNotOpen       = errors.New("listing is not open")
	ErrDuplicateApplication = errors.New("already applied")
)

type DeleteResult struct {
	SoftDeleted int `json:"softDeleted"`
	HardDeleted int `json:"hardDeleted"`
}

// DeleteTarget binds one entity type to its dependency-count query and its
// two delete actions. DependentCounts must come from a single snapshot: one
// query for the whole batch, never re-queried per element.
type DeleteTarget struct {
	DependentCounts func(ids []int) (map[int]int, error)
	SoftClose       func(id int) error
	HardDelete      func(id int) error
}

// ApplyDeletePolicy is the one soft-vs-hard delete algorithm. Records with
// dependents get a reversible state transition, the rest are removed. Ids
// absent from the snapshot (already gone) are skipped.
func ApplyDeletePolicy(t DeleteTarget, ids []int) (DeleteResult, error) {
	var res DeleteResult

	counts, err := t.DependentCounts(ids)
	if err != nil {
		return res, err
	}

	for _, id := range ids {
		deps, ok := counts[id]
		if !ok {
			continue
		}
		if deps > 0 {
			if err := t.SoftClose(id); err != nil {
				return res, err
			}
			res.SoftDeleted++
		} else {
			if err := t.HardDelete(id); err != nil {
				return res, err
			}
			res.HardDeleted++
		}
	}
	return res, nil
}

// ListingDeleteTarget: dependents are applications; soft outcome is the
// closed state so application history survives.
func ListingDeleteTarget(ctx context.Context, tx pgx.Tx) DeleteTarget {
	return DeleteTarget{
		DependentCounts: func(ids []int) (map[int]int, error) {
			rows, err := tx.Query(ctx, `
				SELECT l.id, COUNT(a.id)
				FROM listings l
				LEFT JOIN applications a ON a.listing_id = l.id
				WHERE l.id = ANY($1)
				GROUP BY l.id`, ids)
			if err != nil {
				return nil, err
			}
			return scanCounts(rows)
		},
		SoftClose: func(id int) error {
			q := psql.Update("listings").Set("status", ListingClosed).Where(sq.Eq{"id": id})
			_, err := qExecTx(ctx, tx, q)
			return err
		},
		HardDelete: func(id int) error {
			q := psql.Delete("listings").Where(sq.Eq{"id": id})
			_, err := qExecTx(ctx, tx, q)
			return err
		},
	}
}

// IdentityDeleteTarget: dependents are the identity's own applications,
// donations and linked external accounts, plus applications sitting on
// listings the identity owns (removing the row would cascade those away).
// Soft outcome revokes the identity in place.
func IdentityDeleteTarget(ctx context.Context, tx pgx.Tx) DeleteTarget {
	return DeleteTarget{
		DependentCounts: func(ids []int) (map[int]int, error) {
			rows, err := tx.Query(ctx, `
				SELECT u.id,
				       (SELECT COUNT(*) FROM applications a WHERE a.athlete_id = u.id)
				     + (SELECT COUNT(*) FROM donations d WHERE d.identity_id = u.id)
				     + (SELECT COUNT(*) FROM linked_accounts la WHERE la.identity_id = u.id)
				     + (SELECT COUNT(*) FROM applications oa
				          JOIN listings l ON l.id = oa.listing_id
				         WHERE l.org_id = u.id)
				FROM identities u
				WHERE u.id = ANY($1)`, ids)
			if err != nil {
				return nil, err
			}
			return scanCounts(rows)
		},
		SoftClose: func(id int) error {
			q := psql.Update("identities").Set("status", IdentityRevoked).Where(sq.Eq{"id": id})
			_, err := qExecTx(ctx, tx, q)
			return err
		},
		HardDelete: func(id int) error {
			q := psql.Delete("identities").Where(sq.Eq{"id": id})
			_, err := qExecTx(ctx, tx, q)
			return err
		},
	}
}

func scanCounts(rows pgx.Rows) (map[int]int, error) {
	defer rows.Close()
	counts := map[int]int{}
	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

/* ===================== APPLICATION GUARD ===================== */

// CreateApplication inserts an application for the (athlete, listing) pair.
// The existence check runs in the same transaction as the insert so a
// duplicate surfaces as ErrDuplicateApplication, not as an opaque constraint
// violation.
func CreateApplication(ctx context.Context, db TxBeginner, athleteID, listingID int, note string) (int, error) {
	var appID int
	err := WithTx(ctx, db, func(tx pgx.Tx) error {
		var status string
		err := qRowTx(ctx, tx, psql.Select("status").From("listings").Where(sq.Eq{"id": listingID})).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if status != ListingActive {
			return ErrListingNotOpen
		}

		var exists bool
		err = tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM applications WHERE listing_id=$1 AND athlete_id=$2)",
			listingID, athleteID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateApplication
		}

		err = tx.QueryRow(ctx,
			"INSERT INTO applications(listing_id, athlete_id, status, note) VALUES ($1,$2,'pending',$3) RETURNING id",
			listingID, athleteID, note,
		).Scan(&appID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"UPDATE listings SET application_count = application_count + 1 WHERE id=$1",
			listingID,
		)
		return err
	})
	return appID, err
}
