package domain

import (
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrEmptyText        = errors.New("comment text is required")
	ErrMissingAuthor    = errors.New("comment author is required")
	ErrDuplicateComment = errors.New("user has already reviewed this product")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentOwner  = errors.New("comment belongs to another user")
)

// Author is the reviewer snapshot taken when the comment is written.
type Author struct {
	UserID string
	Name   string
	Avatar string
}

// Comment is a review embedded in a product.
type Comment struct {
	ID        string
	Author    Author
	Rating    int
	Text      string
	Images    []string
	Likes     []string
	Edited    bool
	EditedAt  *time.Time
	CreatedAt time.Time
}

// CommentEdit lists the fields an author may change. Nil fields are left untouched.
type CommentEdit struct {
	Rating *int
	Text   *string
	Images *[]string
}

// NewComment validates and builds a comment.
func NewComment(id string, author Author, rating int, text string, images []string, now time.Time) (*Comment, error) {
	comment := &Comment{
		ID:        id,
		Author:    author,
		Rating:    rating,
		Text:      strings.TrimSpace(text),
		Images:    compactImages(images),
		Likes:     []string{},
		CreatedAt: now,
	}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	return comment, nil
}

// Validate enforces comment invariants.
func (c *Comment) Validate() error {
	if strings.TrimSpace(c.Author.UserID) == "" {
		return ErrMissingAuthor
	}
	if c.Rating < 1 || c.Rating > 5 {
		return ErrInvalidRating
	}
	if c.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// LikedBy reports whether userID is in the like set.
func (c *Comment) LikedBy(userID string) bool {
	return slices.Contains(c.Likes, userID)
}

func (c Comment) clone() Comment {
	c.Images = slices.Clone(c.Images)
	c.Likes = slices.Clone(c.Likes)
	if c.EditedAt != nil {
		at := *c.EditedAt
		c.EditedAt = &at
	}
	return c
}

// AddComment appends a review, rejecting a second review by the same author.
func (p *Product) AddComment(comment Comment) error {
	if err := comment.Validate(); err != nil {
		return err
	}
	for _, existing := range p.Comments {
		if existing.Author.UserID == comment.Author.UserID {
			return ErrDuplicateComment
		}
	}
	p.Comments = append(p.Comments, comment.clone())
	p.RecomputeRating()
	return nil
}

// EditComment applies an author's edit and recomputes the summary.
func (p *Product) EditComment(commentID, userID string, edit CommentEdit, now time.Time) (*Comment, error) {
	idx := p.commentIndex(commentID)
	if idx < 0 {
		return nil, ErrCommentNotFound
	}
	updated := p.Comments[idx].clone()
	if updated.Author.UserID != userID {
		return nil, ErrNotCommentOwner
	}
	if edit.Rating != nil {
		updated.Rating = *edit.Rating
	}
	if edit.Text != nil {
		updated.Text = strings.TrimSpace(*edit.Text)
	}
	if edit.Images != nil {
		updated.Images = compactImages(*edit.Images)
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.Edited = true
	updated.EditedAt = &now
	p.Comments[idx] = updated
	p.RecomputeRating()
	result := updated.clone()
	return &result, nil
}

// RemoveComment deletes a review. Admins may remove any review.
func (p *Product) RemoveComment(commentID, userID string, isAdmin bool) error {
	idx := p.commentIndex(commentID)
	if idx < 0 {
		return ErrCommentNotFound
	}
	if !isAdmin && p.Comments[idx].Author.UserID != userID {
		return ErrNotCommentOwner
	}
	p.Comments = slices.Delete(p.Comments, idx, idx+1)
	p.RecomputeRating()
	return nil
}

// ToggleLike flips userID's membership in the comment's like set and reports the new state.
func (p *Product) ToggleLike(commentID, userID string) (*Comment, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, false, ErrMissingAuthor
	}
	idx := p.commentIndex(commentID)
	if idx < 0 {
		return nil, false, ErrCommentNotFound
	}
	comment := &p.Comments[idx]
	liked := false
	if pos := slices.Index(comment.Likes, userID); pos >= 0 {
		comment.Likes = slices.Delete(comment.Likes, pos, pos+1)
	} else {
		comment.Likes = append(comment.Likes, userID)
		liked = true
	}
	result := comment.clone()
	return &result, liked, nil
}

// FindComment returns a copy of the comment with the given id.
func (p *Product) FindComment(commentID string) (*Comment, error) {
	idx := p.commentIndex(commentID)
	if idx < 0 {
		return nil, ErrCommentNotFound
	}
	result := p.Comments[idx].clone()
	return &result, nil
}

func (p *Product) commentIndex(commentID string) int {
	return slices.IndexFunc(p.Comments, func(c Comment) bool { return c.ID == commentID })
}

func compactImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}
