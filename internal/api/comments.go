package api

import (
	"context"
	"fmt"
	"io"

	"github.com/nhle/ticket-desk/internal/model"
)

// CreateComment posts a reply on a ticket. correlationID is a
// client-generated id echoed back in push events so the optimistic
// entry can be matched exactly; the server stores it opaquely.
func (c *Client) CreateComment(
	ctx context.Context,
	ticketID string,
	content string,
	correlationID string,
) (*model.Comment, error) {
	body := map[string]string{
		"content":        content,
		"correlation_id": correlationID,
	}
	var created model.Comment
	if err := c.Post(ctx, "/commentaires/"+ticketID, body, &created); err != nil {
		return nil, fmt.Errorf("creating comment on ticket %s: %w", ticketID, err)
	}
	return &created, nil
}

// DeleteComment removes a comment by id.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	if err := c.Delete(ctx, "/commentaires/"+commentID); err != nil {
		return fmt.Errorf("deleting comment %s: %w", commentID, err)
	}
	return nil
}

// CreateAttachment uploads a file onto a ticket's conversation and
// returns the canonical attachment record.
func (c *Client) CreateAttachment(
	ctx context.Context,
	ticketID string,
	filename string,
	content io.Reader,
) (*model.Attachment, error) {
	var created model.Attachment
	err := c.PostMultipart(
		ctx, "/pieces-jointes/"+ticketID,
		"file", filename, content, nil, &created,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"uploading attachment to ticket %s: %w", ticketID, err,
		)
	}
	return &created, nil
}

// DeleteAttachment removes an attachment by id.
func (c *Client) DeleteAttachment(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/pieces-jointes/"+id); err != nil {
		return fmt.Errorf("deleting attachment %s: %w", id, err)
	}
	return nil
}
