package projection

import (
	"sort"
	"strings"
	"time"

	"github.com/nhle/ticket-desk/internal/model"
)

// descriptionIDPrefix marks the synthesized pseudo-comment that carries
// the ticket's original description. Server-assigned ids never start
// with it, which keeps the description out of delete and edit actions.
const descriptionIDPrefix = "desc-"

// EntryKind discriminates conversation entries.
type EntryKind string

const (
	EntryComment    EntryKind = "comment"
	EntryAttachment EntryKind = "attachment"
)

// Entry is one element of a ticket's conversation: a comment or an
// attachment. Exactly one of Comment/Attachment is set, matching Kind.
type Entry struct {
	Kind       EntryKind
	Comment    *model.Comment
	Attachment *model.Attachment
}

// ID returns the entry's id.
func (e Entry) ID() string {
	if e.Kind == EntryAttachment {
		return e.Attachment.ID
	}
	return e.Comment.ID
}

// CreatedAt returns the entry's creation time.
func (e Entry) CreatedAt() time.Time {
	if e.Kind == EntryAttachment {
		return e.Attachment.CreatedAt
	}
	return e.Comment.CreatedAt
}

// Author returns the entry's author reference.
func (e Entry) Author() *model.UserRef {
	if e.Kind == EntryAttachment {
		return e.Attachment.Author
	}
	return e.Comment.Author
}

// IsDescription reports whether the entry is the synthesized
// description pseudo-comment.
func (e Entry) IsDescription() bool {
	return strings.HasPrefix(e.ID(), descriptionIDPrefix)
}

// TicketDetail is the single-ticket aggregate projection: the summary
// plus the ordered conversation, synchronized by optimistic local
// appends and per-ticket push events.
type TicketDetail struct {
	viewerID     string
	ticket       *model.Ticket
	conversation []Entry
	dedup        *Deduper

	// correlations holds the client-generated ids of entries this
	// session created optimistically, so a server echo with the same
	// correlation id is never applied twice even if the author
	// heuristic fails (two sessions of the same user).
	correlations map[string]struct{}
}

// NewTicketDetail creates an empty detail projection for the viewer.
func NewTicketDetail(viewerID string) *TicketDetail {
	return &TicketDetail{
		viewerID:     viewerID,
		dedup:        NewDeduper(),
		correlations: make(map[string]struct{}),
	}
}

// TicketID returns the id of the loaded ticket, or "" before load.
// Callers use it to discard stale load results after navigation.
func (d *TicketDetail) TicketID() string {
	if d.ticket == nil {
		return ""
	}
	return d.ticket.ID
}

// Ticket returns the loaded summary, or nil before load.
func (d *TicketDetail) Ticket() *model.Ticket {
	return d.ticket
}

// Conversation returns the entries sorted ascending by creation time.
func (d *TicketDetail) Conversation() []Entry {
	return d.conversation
}

// SetLoaded replaces the projection with a fetched aggregate. The
// description becomes a pseudo-comment authored by the creator, entries
// with a missing author are dropped, and the result is sorted ascending
// by creation time.
func (d *TicketDetail) SetLoaded(
	t model.Ticket,
	comments []model.Comment,
	attachments []model.Attachment,
) {
	ticket := t
	d.ticket = &ticket

	entries := make([]Entry, 0, len(comments)+len(attachments)+1)

	creator := t.Creator
	entries = append(entries, Entry{
		Kind: EntryComment,
		Comment: &model.Comment{
			ID:        descriptionIDPrefix + t.ID,
			TicketID:  t.ID,
			Content:   t.Description,
			Author:    &creator,
			CreatedAt: t.CreatedAt,
		},
	})

	for i := range comments {
		if comments[i].Author == nil {
			continue
		}
		c := comments[i]
		entries = append(entries, Entry{Kind: EntryComment, Comment: &c})
		d.dedup.Mark(c.ID)
	}
	for i := range attachments {
		if attachments[i].Author == nil {
			continue
		}
		a := attachments[i]
		entries = append(entries, Entry{Kind: EntryAttachment, Attachment: &a})
		d.dedup.Mark(a.ID)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt().Before(entries[j].CreatedAt())
	})
	d.conversation = entries
}

// AppendComment applies the canonical server response of an optimistic
// comment submission. The correlation id is recorded so the later push
// echo of the same comment is suppressed exactly.
func (d *TicketDetail) AppendComment(c model.Comment) {
	if c.Author == nil {
		return
	}
	if c.CorrelationID != "" {
		d.correlations[c.CorrelationID] = struct{}{}
	}
	if d.hasEntry(c.ID) {
		return
	}
	d.dedup.Mark(c.ID)
	d.insert(Entry{Kind: EntryComment, Comment: &c})
}

// AppendAttachment applies the canonical server response of an
// optimistic attachment upload.
func (d *TicketDetail) AppendAttachment(a model.Attachment) {
	if a.Author == nil {
		return
	}
	if d.hasEntry(a.ID) {
		return
	}
	d.dedup.Mark(a.ID)
	d.insert(Entry{Kind: EntryAttachment, Attachment: &a})
}

// ApplyCommentPushed merges a pushed comment. Self-authored pushes are
// suppressed: entries this session created were already applied from
// the REST response, and the correlation id catches the same user's
// other sessions. Entries with a missing author are dropped. Returns
// true when the conversation changed.
func (d *TicketDetail) ApplyCommentPushed(eventID string, c model.Comment) bool {
	if c.Author == nil {
		return false
	}
	if c.CorrelationID != "" {
		if _, ok := d.correlations[c.CorrelationID]; ok {
			return false
		}
	}
	if c.Author.ID == d.viewerID {
		return false
	}
	if d.dedup.Seen(eventID) || d.dedup.Seen(c.ID) || d.hasEntry(c.ID) {
		return false
	}

	d.dedup.Mark(eventID)
	d.dedup.Mark(c.ID)
	d.insert(Entry{Kind: EntryComment, Comment: &c})
	return true
}

// ApplyAttachmentPushed merges a pushed attachment, with the same
// suppression rules as comments.
func (d *TicketDetail) ApplyAttachmentPushed(eventID string, a model.Attachment) bool {
	if a.Author == nil {
		return false
	}
	if a.Author.ID == d.viewerID {
		return false
	}
	if d.dedup.Seen(eventID) || d.dedup.Seen(a.ID) || d.hasEntry(a.ID) {
		return false
	}

	d.dedup.Mark(eventID)
	d.dedup.Mark(a.ID)
	d.insert(Entry{Kind: EntryAttachment, Attachment: &a})
	return true
}

// RemoveComment deletes a comment from the conversation by id, whether
// the removal came from a local confirmation or a push event. The
// description pseudo-comment is never removable. Returns true when the
// conversation changed.
func (d *TicketDetail) RemoveComment(id string) bool {
	return d.remove(id, EntryComment)
}

// RemoveAttachment deletes an attachment from the conversation by id.
func (d *TicketDetail) RemoveAttachment(id string) bool {
	return d.remove(id, EntryAttachment)
}

func (d *TicketDetail) remove(id string, kind EntryKind) bool {
	if strings.HasPrefix(id, descriptionIDPrefix) {
		return false
	}
	for i := range d.conversation {
		e := d.conversation[i]
		if e.Kind == kind && e.ID() == id && !e.IsDescription() {
			d.conversation = append(d.conversation[:i], d.conversation[i+1:]...)
			return true
		}
	}
	return false
}

// hasEntry reports whether an entry with the id is already present.
func (d *TicketDetail) hasEntry(id string) bool {
	for _, e := range d.conversation {
		if e.ID() == id {
			return true
		}
	}
	return false
}

// insert places an entry keeping the conversation sorted ascending by
// creation time. Equal timestamps keep insertion order.
func (d *TicketDetail) insert(e Entry) {
	i := sort.Search(len(d.conversation), func(i int) bool {
		return d.conversation[i].CreatedAt().After(e.CreatedAt())
	})
	d.conversation = append(d.conversation, Entry{})
	copy(d.conversation[i+1:], d.conversation[i:])
	d.conversation[i] = e
}
