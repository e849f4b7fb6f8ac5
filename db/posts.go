package db

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"posts-api/models"
)

var (
	// ErrNotFound is returned when no post has the requested id.
	ErrNotFound = stderrors.New("post not found")

	// ErrConstraintViolation is returned when PostgreSQL rejects the row,
	// e.g. a NULL in a NOT NULL column or an out-of-range integer.
	ErrConstraintViolation = stderrors.New("post violates a table constraint")
)

// Posts is the set of operations the HTTP layer needs over the posts table.
type Posts interface {
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id int64) (models.Post, error)
	Create(ctx context.Context, in models.PostInput) (models.Post, error)
	Update(ctx context.Context, id int64, in models.PostInput) (models.Post, error)
	Remove(ctx context.Context, id int64) (models.Post, error)
}

const postColumns = "post_id, user_id, post_title, post_body"

// PostStore runs the posts queries against a PostgreSQL pool.
type PostStore struct {
	db *sql.DB
}

func NewPostStore(conn *sql.DB) *PostStore {
	return &PostStore{db: conn}
}

// List returns every post ordered by id.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+postColumns+" FROM posts ORDER BY post_id")
	if err != nil {
		return nil, errors.Wrap(err, "error querying posts")
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.UserID, &post.PostTitle, &post.PostBody); err != nil {
			return nil, errors.Wrap(err, "error scanning post")
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating over posts")
	}

	return posts, nil
}

func (s *PostStore) GetByID(ctx context.Context, id int64) (models.Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE post_id = $1", id)
	post, err := scanPost(row)
	return post, errors.Wrapf(err, "get post %d", id)
}

// Create inserts a post and returns it with its generated id.
func (s *PostStore) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO posts (user_id, post_title, post_body) VALUES ($1, $2, $3) RETURNING "+postColumns,
		in.UserID, in.PostTitle, in.PostBody)
	post, err := scanPost(row)
	return post, errors.Wrap(err, "create post")
}

// Update replaces user_id, post_title and post_body of the post with the
// given id and returns the stored row.
func (s *PostStore) Update(ctx context.Context, id int64, in models.PostInput) (models.Post, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE posts SET user_id = $1, post_title = $2, post_body = $3 WHERE post_id = $4 RETURNING "+postColumns,
		in.UserID, in.PostTitle, in.PostBody, id)
	post, err := scanPost(row)
	return post, errors.Wrapf(err, "update post %d", id)
}

// Remove deletes the post and returns it as it was before deletion.
func (s *PostStore) Remove(ctx context.Context, id int64) (models.Post, error) {
	row := s.db.QueryRowContext(ctx, "DELETE FROM posts WHERE post_id = $1 RETURNING "+postColumns, id)
	post, err := scanPost(row)
	return post, errors.Wrapf(err, "remove post %d", id)
}

func scanPost(row *sql.Row) (models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.PostTitle, &post.PostBody)
	if err != nil {
		return models.Post{}, translate(err)
	}
	return post, nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			return errors.Wrapf(ErrConstraintViolation, "%s (%s)", pqErr.Message, pqErr.Code.Name())
		}
	}

	return err
}
