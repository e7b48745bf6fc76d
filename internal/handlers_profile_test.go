package internal

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type noRowsDB struct{}

func (noRowsDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return scriptRow{err: pgx.ErrNoRows}
}

func TestMeRejectsStaleSession(t *testing.T) {
	// the identity behind a still-valid token was hard-deleted
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", func(c *gin.Context) {
		c.Set("uid", 7)
		c.Set("role", RoleClient)
	}, Me(noRowsDB{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))
	if w.Code != 401 {
		t.Fatalf("a session without an identity row must read as unauthorized, got %d", w.Code)
	}
}
