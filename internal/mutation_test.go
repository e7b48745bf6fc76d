package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func fakeTarget(counts map[int]int, soft, hard *[]int) DeleteTarget {
	return DeleteTarget{
		DependentCounts: func(ids []int) (map[int]int, error) {
			snapshot := map[int]int{}
			for _, id := range ids {
				if n, ok := counts[id]; ok {
					snapshot[id] = n
				}
			}
			return snapshot, nil
		},
		SoftClose: func(id int) error {
			*soft = append(*soft, id)
			return nil
		},
		HardDelete: func(id int) error {
			*hard = append(*hard, id)
			return nil
		},
	}
}

func TestDeletePolicyPartition(t *testing.T) {
	var soft, hard []int
	// A has 2 dependents, B has 0
	res, err := ApplyDeletePolicy(fakeTarget(map[int]int{1: 2, 2: 0}, &soft, &hard), []int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.SoftDeleted != 1 || res.HardDeleted != 1 {
		t.Fatalf("expected {softDeleted:1 hardDeleted:1}, got %+v", res)
	}
	if len(soft) != 1 || soft[0] != 1 {
		t.Fatalf("record with dependents must be closed, not removed: %v", soft)
	}
	if len(hard) != 1 || hard[0] != 2 {
		t.Fatalf("record without dependents must be removed: %v", hard)
	}
}

func TestDeletePolicySingleHard(t *testing.T) {
	var soft, hard []int
	res, err := ApplyDeletePolicy(fakeTarget(map[int]int{7: 0}, &soft, &hard), []int{7})
	if err != nil {
		t.Fatal(err)
	}
	if res.SoftDeleted != 0 || res.HardDeleted != 1 {
		t.Fatalf("expected hard outcome, got %+v", res)
	}
}

func TestDeletePolicySkipsMissing(t *testing.T) {
	var soft, hard []int
	res, err := ApplyDeletePolicy(fakeTarget(map[int]int{1: 1}, &soft, &hard), []int{1, 99})
	if err != nil {
		t.Fatal(err)
	}
	if res.SoftDeleted != 1 || res.HardDeleted != 0 {
		t.Fatalf("missing id must be skipped, got %+v", res)
	}
	if len(hard) != 0 {
		t.Fatalf("nothing should be hard-deleted: %v", hard)
	}
}

// scriptRow answers one Scan with canned values.
type scriptRow struct {
	vals []any
	err  error
}

func (r scriptRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		switch p := dest[i].(type) {
		case *int:
			*p = r.vals[i].(int)
		case *string:
			*p = r.vals[i].(string)
		case *bool:
			*p = r.vals[i].(bool)
		}
	}
	return nil
}

// countRows plays back (id, count) pairs for a snapshot query.
type countRows struct {
	pgx.Rows
	data [][2]int
	i    int
}

func (r *countRows) Next() bool { r.i++; return r.i <= len(r.data) }
func (r *countRows) Err() error { return nil }
func (r *countRows) Close()     {}
func (r *countRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	*dest[0].(*int) = row[0]
	*dest[1].(*int) = row[1]
	return nil
}

// scriptTx records every statement and serves scripted results. It stands in
// for both the pool (Begin returns itself) and the transaction.
type scriptTx struct {
	pgx.Tx
	rows    []scriptRow
	counts  [][2]int
	queries []string
	execs   []string
}

func (s *scriptTx) Begin(ctx context.Context) (pgx.Tx, error) { return s, nil }
func (s *scriptTx) Commit(ctx context.Context) error          { return nil }
func (s *scriptTx) Rollback(ctx context.Context) error        { return nil }

func (s *scriptTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.queries = append(s.queries, sql)
	if len(s.rows) == 0 {
		return scriptRow{err: pgx.ErrNoRows}
	}
	r := s.rows[0]
	s.rows = s.rows[1:]
	return r
}

func (s *scriptTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.queries = append(s.queries, sql)
	return &countRows{data: s.counts}, nil
}

func (s *scriptTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, sql)
	return pgconn.CommandTag{}, nil
}

func TestIdentityDeleteCountsApplicationsOnOwnedListings(t *testing.T) {
	// A client identity may hold no records of its own while its listings
	// hold applications; those applications pin it to the soft path, since
	// removing the row would cascade through listings.
	tx := &scriptTx{counts: [][2]int{{7, 5}}}
	res, err := ApplyDeletePolicy(IdentityDeleteTarget(context.Background(), tx), []int{7})
	if err != nil {
		t.Fatal(err)
	}
	if res.SoftDeleted != 1 || res.HardDeleted != 0 {
		t.Fatalf("identity with dependent listings must be revoked, got %+v", res)
	}
	if len(tx.queries) != 1 || !strings.Contains(tx.queries[0], "l.org_id = u.id") {
		t.Fatalf("snapshot must count applications on owned listings: %v", tx.queries)
	}
	if len(tx.execs) != 1 || !strings.Contains(tx.execs[0], "UPDATE identities") {
		t.Fatalf("expected a revoke update and nothing else: %v", tx.execs)
	}
}

func TestIdentityDeleteHardWithoutDependents(t *testing.T) {
	tx := &scriptTx{counts: [][2]int{{7, 0}}}
	res, err := ApplyDeletePolicy(IdentityDeleteTarget(context.Background(), tx), []int{7})
	if err != nil {
		t.Fatal(err)
	}
	if res.HardDeleted != 1 || res.SoftDeleted != 0 {
		t.Fatalf("expected hard outcome, got %+v", res)
	}
	if len(tx.execs) != 1 || !strings.Contains(tx.execs[0], "DELETE FROM identities") {
		t.Fatalf("expected a delete and nothing else: %v", tx.execs)
	}
}

func TestCreateApplicationDuplicate(t *testing.T) {
	// status lookup answers active, existence check answers true
	tx := &scriptTx{rows: []scriptRow{{vals: []any{ListingActive}}, {vals: []any{true}}}}
	_, err := CreateApplication(context.Background(), tx, 5, 12, "")
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
	if len(tx.queries) != 2 {
		t.Fatalf("insert must not run after the duplicate check: %v", tx.queries)
	}
	if len(tx.execs) != 0 {
		t.Fatalf("no writes may land for a duplicate: %v", tx.execs)
	}
}

func TestCreateApplicationOrdering(t *testing.T) {
	tx := &scriptTx{rows: []scriptRow{
		{vals: []any{ListingActive}}, // status lookup
		{vals: []any{false}},         // existence check
		{vals: []any{42}},            // insert returning id
	}}
	id, err := CreateApplication(context.Background(), tx, 5, 12, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Fatalf("expected the returned id, got %d", id)
	}
	if len(tx.queries) != 3 || !strings.Contains(tx.queries[2], "INSERT INTO applications") {
		t.Fatalf("insert must follow the status and existence checks: %v", tx.queries)
	}
	if len(tx.execs) != 1 || !strings.Contains(tx.execs[0], "application_count") {
		t.Fatalf("listing counter must be bumped in the same transaction: %v", tx.execs)
	}
}

func TestCreateApplicationClosedListing(t *testing.T) {
	tx := &scriptTx{rows: []scriptRow{{vals: []any{ListingClosed}}}}
	_, err := CreateApplication(context.Background(), tx, 5, 12, "")
	if !errors.Is(err, ErrListingNotOpen) {
		t.Fatalf("expected ErrListingNotOpen, got %v", err)
	}
}

func TestCreateApplicationMissingListing(t *testing.T) {
	tx := &scriptTx{}
	_, err := CreateApplication(context.Background(), tx, 5, 12, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePolicyCountError(t *testing.T) {
	boom := errors.New("boom")
	target := DeleteTarget{
		DependentCounts: func([]int) (map[int]int, error) { return nil, boom },
		SoftClose:       func(int) error { t.Fatal("must not act"); return nil },
		HardDelete:      func(int) error { t.Fatal("must not act"); return nil },
	}
	if _, err := ApplyDeletePolicy(target, []int{1}); !errors.Is(err, boom) {
		t.Fatalf("expected snapshot error to propagate, got %v", err)
	}
}
