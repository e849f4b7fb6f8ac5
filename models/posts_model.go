package models

// Post is a row of the posts table.
type Post struct {
	ID        int64   `json:"post_id"`
	UserID    int64   `json:"user_id"`
	PostTitle string  `json:"post_title"`
	PostBody  *string `json:"post_body"`
}

// PostInput is the body accepted when creating or replacing a post.
type PostInput struct {
	UserID    int64   `json:"user_id" validate:"required,min=1,max=2147483647"`
	PostTitle string  `json:"post_title" validate:"required,notblank"`
	PostBody  *string `json:"post_body"`
}
