package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"posts-api/models"
)

func strPtr(s string) *string { return &s }

// SeedPosts are the demonstration rows written by Seed.
var SeedPosts = []models.PostInput{
	{UserID: 1, PostTitle: "test post 1", PostBody: strPtr("Test post body 1")},
	{UserID: 1, PostTitle: "test post 2", PostBody: strPtr("Test post body 2")},
	{UserID: 2, PostTitle: "test post 3", PostBody: strPtr("Test post body 3")},
	{UserID: 2, PostTitle: "test post 4", PostBody: strPtr("Test post body 4")},
	{UserID: 3, PostTitle: "test post 5"},
}

// Seed empties the posts table, restarts its id sequence and inserts
// SeedPosts in a single transaction.
func Seed(ctx context.Context, conn *sql.DB) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin seed transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "TRUNCATE posts RESTART IDENTITY"); err != nil {
		return errors.Wrap(err, "failed to truncate posts")
	}

	for _, p := range SeedPosts {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO posts (user_id, post_title, post_body) VALUES ($1, $2, $3)",
			p.UserID, p.PostTitle, p.PostBody)
		if err != nil {
			return errors.Wrapf(err, "failed to insert %q", p.PostTitle)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit seed")
}
