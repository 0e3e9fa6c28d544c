package seed

import (
	"context"
	"fmt"

	"redaid/internal/store"
	"redaid/internal/utils"
	"redaid/pkg/types"
)

var fakeBlogs = []struct {
	Title    string
	Category string
	Content  string
	Status   types.BlogStatus
}{
	{
		Title:    "Who can donate blood?",
		Category: "Eligibility",
		Content:  "Healthy adults between 18 and 60 weighing at least 50kg can usually donate every four months.",
		Status:   types.BlogStatusPublished,
	},
	{
		Title:    "Preparing for your first donation",
		Category: "Guides",
		Content:  "Eat a proper meal, drink plenty of water and bring a photo ID. The donation itself takes about ten minutes.",
		Status:   types.BlogStatusPublished,
	},
	{
		Title:    "Thalassemia and regular transfusions",
		Category: "Awareness",
		Content:  "Many thalassemia patients need blood every few weeks. Regular donors keep them alive.",
		Status:   types.BlogStatusDraft,
	},
}

// SeedFakeBlogs inserts the blogs above authored by the first admin. Titles
// already present are skipped.
func SeedFakeBlogs(ctx context.Context, blogRepo *store.BlogRepository, users []*types.User) ([]*types.Blog, error) {
	var author *types.User
	for _, u := range users {
		if u.Role == types.RoleAdmin {
			author = u
			break
		}
	}
	if author == nil {
		return nil, fmt.Errorf("no admin user to author seeded blogs")
	}

	existing, err := blogRepo.Blogs(ctx, &types.BlogFilter{Limit: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list existing blogs: %w", err)
	}

	titles := make(map[string]bool, len(existing))
	for _, b := range existing {
		titles[b.Title] = true
	}

	created := make([]*types.Blog, 0, len(fakeBlogs))
	for _, fake := range fakeBlogs {
		if titles[fake.Title] {
			continue
		}

		blog := &types.Blog{
			Title:        fake.Title,
			Content:      fake.Content,
			Category:     utils.StringPtr(fake.Category),
			AuthorName:   author.Name,
			AuthorEmail:  author.Email,
			AuthorAvatar: author.AvatarURL,
			Status:       fake.Status,
		}

		if err := blogRepo.CreateBlog(ctx, blog); err != nil {
			return nil, fmt.Errorf("failed to create fake blog %q: %w", fake.Title, err)
		}
		created = append(created, blog)
	}

	fmt.Printf("Fake blogs seeded: %d created, %d already present\n", len(created), len(fakeBlogs)-len(created))
	return created, nil
}
