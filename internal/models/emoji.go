package models

import "time"

type Emoji struct {
	ID            int64
	ImageURL      string
	Prompt        string
	CreatorUserID string
	LikeCount     int
	CreatedAt     time.Time
}

// EmojiWithLiked annotates a record with whether the requesting user has a
// like relation to it.
type EmojiWithLiked struct {
	Emoji
	IsLiked bool
}
