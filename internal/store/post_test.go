package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"itblog/internal/models"
)

func TestPostStoreCreateDerivesFields(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)

	title := "Derived Fields " + uuid.NewString()[:8]
	created, err := s.Create(&models.Post{
		Title:      title,
		Content:    "one two three four five",
		CategoryID: category.ID,
		UserID:     author.ID,
		Status:     models.PostStatusDraft,
	}, time.Now())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if created.Slug == "" {
		t.Error("expected slug derived from title")
	}
	if created.ReadingTime != 1 {
		t.Errorf("reading_time: got %d, want 1", created.ReadingTime)
	}
	if created.PublishedAt != nil {
		t.Error("draft should have nil published_at")
	}
	if created.Category == nil || created.Category.ID != category.ID {
		t.Error("expected category relation loaded")
	}
}

func TestPostStoreCreateBackdatedVisible(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	now := time.Now()

	// An explicitly supplied past published_at is kept, making the post
	// visible immediately instead of being stamped with now.
	past := now.Add(-30 * 24 * time.Hour)
	created, err := s.Create(&models.Post{
		Title: "Backdated " + uuid.NewString()[:8], Content: "x",
		CategoryID: category.ID, UserID: author.ID,
		Status: models.PostStatusPublished, PublishedAt: &past,
	}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.PublishedAt == nil || !created.PublishedAt.Equal(past) {
		t.Errorf("published_at: got %v, want %v", created.PublishedAt, past)
	}

	page, err := s.ListPublic(PostFilters{CategorySlug: category.Slug}, 1, now)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != created.ID {
		t.Errorf("backdated post not publicly listed: total %d", page.Total)
	}
}

func TestPostStoreSymbolTitleGetsNonEmptySlug(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)

	// Titles with no sluggable characters must still produce a slug.
	for _, title := range []string{"!!!", "日本語の記事"} {
		created, err := s.Create(&models.Post{
			Title: title, Content: "x",
			CategoryID: category.ID, UserID: author.ID,
			Status: models.PostStatusDraft,
		}, time.Now())
		if err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
		if created.Slug == "" {
			t.Errorf("title %q stored with empty slug", title)
		}
		if created.Slug == "-2" || created.Slug[0] == '-' {
			t.Errorf("title %q produced bare suffix slug %q", title, created.Slug)
		}
	}
}

func TestPostStoreSlugCollisionSuffixed(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)

	title := "Same Title " + uuid.NewString()[:8]
	first, err := s.Create(&models.Post{
		Title: title, Content: "a", CategoryID: category.ID,
		UserID: author.ID, Status: models.PostStatusDraft,
	}, time.Now())
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	second, err := s.Create(&models.Post{
		Title: title, Content: "b", CategoryID: category.ID,
		UserID: author.ID, Status: models.PostStatusDraft,
	}, time.Now())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if second.Slug != first.Slug+"-2" {
		t.Errorf("collision slug: got %q, want %q", second.Slug, first.Slug+"-2")
	}
}

func TestPostStoreListPublicVisibility(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	now := time.Now()

	visible := publishedPost(t, db, "Visible", category, author)

	// Draft and future-published posts must never appear publicly.
	if _, err := s.Create(&models.Post{
		Title: "Hidden Draft " + uuid.NewString()[:8], Content: "x",
		CategoryID: category.ID, UserID: author.ID, Status: models.PostStatusDraft,
	}, now); err != nil {
		t.Fatalf("Create draft: %v", err)
	}
	future := now.Add(time.Hour)
	if _, err := s.Create(&models.Post{
		Title: "Future Post " + uuid.NewString()[:8], Content: "x",
		CategoryID: category.ID, UserID: author.ID,
		Status: models.PostStatusPublished, PublishedAt: &future,
	}, now); err != nil {
		t.Fatalf("Create future: %v", err)
	}

	page, err := s.ListPublic(PostFilters{CategorySlug: category.Slug}, 1, now)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total: got %d, want 1", page.Total)
	}
	if page.Items[0].ID != visible.ID {
		t.Errorf("expected only the visible post, got %s", page.Items[0].Title)
	}
	if page.PerPage != PublicPageSize {
		t.Errorf("per_page: got %d, want %d", page.PerPage, PublicPageSize)
	}
}

func TestPostStoreListPublicSearch(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	now := time.Now()

	needle := "kubernetes" + uuid.NewString()[:8]
	match := publishedPost(t, db, "About "+needle, category, author)
	publishedPost(t, db, "Unrelated", category, author)

	page, err := s.ListPublic(PostFilters{Search: needle, CategorySlug: category.Slug}, 1, now)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != match.ID {
		t.Errorf("search: got %d results, want the matching post", page.Total)
	}

	// Search is case-insensitive and also matches content.
	bodyNeedle := "terraform" + uuid.NewString()[:8]
	bodyMatch, err := s.Create(&models.Post{
		Title: "Body Match " + uuid.NewString()[:8], Content: "All about " + bodyNeedle + " modules.",
		CategoryID: category.ID, UserID: author.ID,
		Status: models.PostStatusPublished,
	}, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	page, err = s.ListPublic(PostFilters{Search: bodyNeedle, CategorySlug: category.Slug}, 1, now)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != bodyMatch.ID {
		t.Errorf("content search: got %d results", page.Total)
	}
}

func TestPostStoreListPublicTagFilter(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	tag := testTag(t, db)
	now := time.Now()

	tagged := publishedPost(t, db, "Tagged", category, author)
	publishedPost(t, db, "Untagged", category, author)

	if err := s.SyncTags(tagged.ID, []uuid.UUID{tag.ID}); err != nil {
		t.Fatalf("SyncTags: %v", err)
	}

	page, err := s.ListPublic(PostFilters{TagSlug: tag.Slug}, 1, now)
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != tagged.ID {
		t.Fatalf("tag filter: got %d results", page.Total)
	}
	if len(page.Items[0].Tags) != 1 || page.Items[0].Tags[0].ID != tag.ID {
		t.Error("expected tags eager loaded on listing items")
	}
}

func TestPostStoreRelated(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	otherCategory := testCategory(t, db)
	tag := testTag(t, db)
	now := time.Now()

	subject := publishedPost(t, db, "Subject", category, author)
	if err := s.SyncTags(subject.ID, []uuid.UUID{tag.ID}); err != nil {
		t.Fatalf("SyncTags: %v", err)
	}
	subject, err := s.FindByID(subject.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}

	sameCategory := publishedPost(t, db, "Same Category", category, author)

	sharedTag := publishedPost(t, db, "Shared Tag", otherCategory, author)
	if err := s.SyncTags(sharedTag.ID, []uuid.UUID{tag.ID}); err != nil {
		t.Fatalf("SyncTags: %v", err)
	}

	unrelated := publishedPost(t, db, "Unrelated", otherCategory, author)

	// A same-category draft must not surface as related.
	if _, err := s.Create(&models.Post{
		Title: "Related Draft " + uuid.NewString()[:8], Content: "x",
		CategoryID: category.ID, UserID: author.ID, Status: models.PostStatusDraft,
	}, now); err != nil {
		t.Fatalf("Create: %v", err)
	}

	related, err := s.Related(subject, now)
	if err != nil {
		t.Fatalf("Related: %v", err)
	}

	ids := make(map[uuid.UUID]bool, len(related))
	for _, p := range related {
		ids[p.ID] = true
	}
	if !ids[sameCategory.ID] {
		t.Error("expected same-category post in related set")
	}
	if !ids[sharedTag.ID] {
		t.Error("expected shared-tag post in related set")
	}
	if ids[unrelated.ID] {
		t.Error("unrelated post must not appear")
	}
	if ids[subject.ID] {
		t.Error("subject post must not relate to itself")
	}
	if len(related) > 4 {
		t.Errorf("related capped at 4, got %d", len(related))
	}
}

func TestPostStoreFeatured(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	now := time.Now()

	at := now.Add(-time.Hour)
	featured, err := s.Create(&models.Post{
		Title: "Featured " + uuid.NewString()[:8], Content: "x",
		CategoryID: category.ID, UserID: author.ID,
		Status: models.PostStatusPublished, PublishedAt: &at, IsFeatured: true,
	}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Featured flag on an invisible post does not surface it.
	if _, err := s.Create(&models.Post{
		Title: "Featured Draft " + uuid.NewString()[:8], Content: "x",
		CategoryID: category.ID, UserID: author.ID,
		Status: models.PostStatusDraft, IsFeatured: true,
	}, now); err != nil {
		t.Fatalf("Create: %v", err)
	}

	posts, err := s.Featured(now)
	if err != nil {
		t.Fatalf("Featured: %v", err)
	}
	if len(posts) > 3 {
		t.Errorf("featured capped at 3, got %d", len(posts))
	}
	found := false
	for _, p := range posts {
		if p.ID == featured.ID {
			found = true
		}
		if p.Status != models.PostStatusPublished {
			t.Errorf("invisible post %q in featured set", p.Title)
		}
	}
	if !found && len(posts) < 3 {
		t.Error("expected featured post in result")
	}
}

func TestPostStoreUpdateTransitions(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	now := time.Now()

	post := publishedPost(t, db, "Lifecycle", category, author)
	originalPublished := *post.PublishedAt
	originalSlug := post.Slug

	// Republishing with no explicit timestamp keeps the original.
	post.Title = "Lifecycle Renamed"
	post.PublishedAt = nil
	updated, err := s.Update(post, now)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.PublishedAt.Equal(originalPublished) {
		t.Errorf("published_at changed on update: got %v, want %v", updated.PublishedAt, originalPublished)
	}
	if updated.Slug != originalSlug {
		t.Errorf("slug regenerated on title change: got %q", updated.Slug)
	}

	// Reverting to draft clears the publication timestamps.
	updated.Status = models.PostStatusDraft
	updated, err = s.Update(updated, now)
	if err != nil {
		t.Fatalf("Update to draft: %v", err)
	}
	if updated.PublishedAt != nil || updated.ScheduledAt != nil {
		t.Error("draft should clear publication timestamps")
	}
}

func TestPostStoreIncrementViews(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)

	post := publishedPost(t, db, "Counted", category, author)

	if err := s.IncrementViews(post.ID); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	if err := s.IncrementViews(post.ID); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}

	found, err := s.FindByID(post.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.ViewsCount != post.ViewsCount+2 {
		t.Errorf("views_count: got %d, want %d", found.ViewsCount, post.ViewsCount+2)
	}
}

func TestPostStoreDelete(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)

	post := publishedPost(t, db, "Doomed", category, author)

	deleted, err := s.Delete(post.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report success")
	}

	found, err := s.FindByID(post.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found != nil {
		t.Error("post still present after delete")
	}

	deleted, err = s.Delete(post.ID)
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if deleted {
		t.Error("deleting a missing post should report false")
	}
}

func TestPostStoreListAdminStatusFilter(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testUser(t, db)
	category := testCategory(t, db)
	now := time.Now()

	draft, err := s.Create(&models.Post{
		Title: "Admin Draft " + uuid.NewString()[:8], Content: "x",
		CategoryID: category.ID, UserID: author.ID, Status: models.PostStatusDraft,
	}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	publishedPost(t, db, "Admin Published", category, author)

	page, err := s.ListAdmin(PostFilters{Status: models.PostStatusDraft, CategoryID: &category.ID}, 1)
	if err != nil {
		t.Fatalf("ListAdmin: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != draft.ID {
		t.Errorf("status filter: got %d results", page.Total)
	}
	if page.PerPage != AdminPageSize {
		t.Errorf("per_page: got %d, want %d", page.PerPage, AdminPageSize)
	}
}
