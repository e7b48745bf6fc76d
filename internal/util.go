package internal

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

var errInvalidSignature = errors.New("invalid signature")

// logError tags every server-side failure with the operation that failed.
func logError(op string, err error) {
	logger.Error("operation failed", "op", op, "err", err.Error())
}

func logAction(db *pgxpool.Pool, actorID *int, action, details string) {
	_, _ = db.Exec(context.Background(),
		"INSERT INTO logs(actor_id, action, details) VALUES ($1,$2,$3)",
		actorID, action, details,
	)
}
