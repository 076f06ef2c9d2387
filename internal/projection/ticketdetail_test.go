package projection

import (
	"testing"
	"time"

	"github.com/nhle/ticket-desk/internal/model"
)

var (
	viewer = model.UserRef{ID: "viewer-1", Name: "Viewer"}
	other  = model.UserRef{ID: "other-1", Name: "Other"}
)

func makeComment(id string, author *model.UserRef, createdAt time.Time) model.Comment {
	return model.Comment{
		ID:        id,
		TicketID:  "t1",
		Content:   "comment " + id,
		Author:    author,
		CreatedAt: createdAt,
	}
}

func makeAttachment(id string, author *model.UserRef, createdAt time.Time) model.Attachment {
	return model.Attachment{
		ID:        id,
		TicketID:  "t1",
		Filename:  id + ".pdf",
		Size:      1024,
		Author:    author,
		CreatedAt: createdAt,
	}
}

func loadedDetail(t *testing.T) *TicketDetail {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	d := NewTicketDetail(viewer.ID)
	d.SetLoaded(model.Ticket{
		ID:          "t1",
		Title:       "Order not delivered",
		Description: "My order is missing.",
		Status:      model.StatusOpen,
		Category:    model.CategoryBlocking,
		Creator:     other,
		CreatedAt:   base,
		UpdatedAt:   base,
	}, []model.Comment{
		makeComment("c2", &other, base.Add(2*time.Hour)),
		makeComment("c1", &viewer, base.Add(time.Hour)),
		makeComment("c-orphan", nil, base.Add(3*time.Hour)),
	}, []model.Attachment{
		makeAttachment("a1", &other, base.Add(90*time.Minute)),
	})
	return d
}

// checkOrdering verifies the conversation invariant: ascending by
// creation time, no entry without an author.
func checkOrdering(t *testing.T, d *TicketDetail) {
	t.Helper()
	conv := d.Conversation()
	for i, e := range conv {
		if e.Author() == nil {
			t.Errorf("entry %d (%s) has no author", i, e.ID())
		}
		if i > 0 && conv[i-1].CreatedAt().After(e.CreatedAt()) {
			t.Errorf("conversation out of order at index %d", i)
		}
	}
}

func TestSetLoadedBuildsConversation(t *testing.T) {
	d := loadedDetail(t)
	conv := d.Conversation()

	// Description pseudo-comment, c1, a1, c2; the orphan is dropped.
	if len(conv) != 4 {
		t.Fatalf("got %d entries, want 4", len(conv))
	}
	if !conv[0].IsDescription() {
		t.Error("first entry is not the description pseudo-comment")
	}
	if conv[0].Comment.Content != "My order is missing." {
		t.Errorf("description content = %q", conv[0].Comment.Content)
	}
	wantOrder := []string{"desc-t1", "c1", "a1", "c2"}
	for i, want := range wantOrder {
		if conv[i].ID() != want {
			t.Errorf("entry %d = %s, want %s", i, conv[i].ID(), want)
		}
	}
	checkOrdering(t, d)
}

func TestPushedCommentDeduplicated(t *testing.T) {
	d := loadedDetail(t)
	before := len(d.Conversation())

	c := makeComment("c3", &other, time.Now())

	// Two identical push events back-to-back apply exactly once.
	if !d.ApplyCommentPushed("ev-1", c) {
		t.Fatal("first delivery not applied")
	}
	if d.ApplyCommentPushed("ev-1", c) {
		t.Error("second delivery applied again")
	}
	if got := len(d.Conversation()); got != before+1 {
		t.Errorf("conversation has %d entries, want %d", got, before+1)
	}
	checkOrdering(t, d)
}

func TestSelfAuthoredPushSuppressed(t *testing.T) {
	d := loadedDetail(t)
	before := len(d.Conversation())

	// The viewer's own comments were applied optimistically already.
	if d.ApplyCommentPushed("ev-1", makeComment("c9", &viewer, time.Now())) {
		t.Error("self-authored push applied")
	}
	if len(d.Conversation()) != before {
		t.Error("conversation changed on suppressed push")
	}
}

func TestCorrelationIDSuppressesEcho(t *testing.T) {
	d := loadedDetail(t)

	// Optimistic append from the REST response carries a correlation id.
	submitted := makeComment("c5", &viewer, time.Now())
	submitted.CorrelationID = "corr-abc"
	d.AppendComment(submitted)
	before := len(d.Conversation())

	// The server echo arrives attributed to the same user from another
	// session (different author id would defeat the author heuristic);
	// the correlation id still catches it.
	echo := makeComment("c5-other-session", &other, time.Now())
	echo.CorrelationID = "corr-abc"
	if d.ApplyCommentPushed("ev-1", echo) {
		t.Error("correlated echo applied")
	}
	if len(d.Conversation()) != before {
		t.Error("conversation changed on correlated echo")
	}
}

func TestOptimisticAppendThenDuplicateID(t *testing.T) {
	d := loadedDetail(t)
	c := makeComment("c6", &viewer, time.Now())
	d.AppendComment(c)
	before := len(d.Conversation())

	d.AppendComment(c)
	if len(d.Conversation()) != before {
		t.Error("duplicate optimistic append changed conversation")
	}
	checkOrdering(t, d)
}

func TestPushedAttachment(t *testing.T) {
	d := loadedDetail(t)
	a := makeAttachment("a2", &other, time.Now())

	if !d.ApplyAttachmentPushed("ev-1", a) {
		t.Fatal("attachment push not applied")
	}
	if d.ApplyAttachmentPushed("ev-2", a) {
		t.Error("attachment with known id applied again")
	}
	if d.ApplyAttachmentPushed("ev-3", makeAttachment("a3", &viewer, time.Now())) {
		t.Error("self-authored attachment push applied")
	}
	checkOrdering(t, d)
}

func TestRemoveEntries(t *testing.T) {
	d := loadedDetail(t)

	if !d.RemoveComment("c1") {
		t.Error("RemoveComment(c1) = false")
	}
	if !d.RemoveAttachment("a1") {
		t.Error("RemoveAttachment(a1) = false")
	}
	if d.RemoveComment("c1") {
		t.Error("removing an absent comment reported a change")
	}

	// The description pseudo-comment is not removable.
	if d.RemoveComment("desc-t1") {
		t.Error("description pseudo-comment was removed")
	}
	if !d.Conversation()[0].IsDescription() {
		t.Error("description no longer first entry")
	}
}

func TestMissingAuthorPushDropped(t *testing.T) {
	d := loadedDetail(t)
	before := len(d.Conversation())

	if d.ApplyCommentPushed("ev-1", makeComment("c8", nil, time.Now())) {
		t.Error("authorless comment applied")
	}
	if len(d.Conversation()) != before {
		t.Error("conversation changed on authorless push")
	}
}

func TestStaleLoadGuard(t *testing.T) {
	d := loadedDetail(t)
	if d.TicketID() != "t1" {
		t.Errorf("TicketID() = %s, want t1", d.TicketID())
	}

	empty := NewTicketDetail(viewer.ID)
	if empty.TicketID() != "" {
		t.Errorf("TicketID() before load = %q, want empty", empty.TicketID())
	}
}
