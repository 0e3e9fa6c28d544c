package server

import (
	"errors"
	"net/http"
	"strings"

	"redaid/internal/utils"
	"redaid/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/sirupsen/logrus"
)

const maxThumbnailBytes = 5 << 20

func (s *Service) blogNotFound(id string) error {
	return &types.NotFoundError{Entity: "blog", ID: id}
}

func isStaff(actor *types.Actor) bool {
	return actor.HasRole(types.RoleAdmin, types.RoleVolunteer)
}

// handleListBlogs returns published blogs to everyone. Staff may ask for
// drafts with ?status=draft.
func (s *Service) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter types.BlogFilter
	if err := decodeQuery(r, &filter); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if !isStaff(actorFromContext(ctx)) {
		filter.Status = string(types.BlogStatusPublished)
	}

	blogs, err := s.blogRepo.Blogs(ctx, &filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to list blogs")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, blogs)
}

func (s *Service) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := flow.Param(ctx, "id")

	blog, err := s.blogRepo.Blog(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrBlogNotFound) {
			s.writeError(w, r, s.blogNotFound(id))
			return
		}
		s.writeError(w, r, err)
		return
	}

	if blog.Status != types.BlogStatusPublished && !isStaff(actorFromContext(ctx)) {
		s.writeError(w, r, s.blogNotFound(id))
		return
	}

	s.writeJSON(w, http.StatusOK, blog)
}

func validateBlog(form *types.BlogForm) map[string]string {
	errs := map[string]string{}

	form.Title = strings.TrimSpace(form.Title)
	form.Content = strings.TrimSpace(form.Content)

	if form.Title == "" {
		errs["title"] = "Title is required."
	}
	if form.Content == "" {
		errs["content"] = "Content is required."
	}

	return errs
}

// handleCreateBlog accepts a multipart form with an optional "thumbnail" file
// that is pushed to the image host. New blogs start as drafts.
func (s *Service) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFromContext(ctx)
	if !isStaff(actor) {
		s.writeError(w, r, types.Denied(types.ReasonForbidden))
		return
	}

	if err := r.ParseMultipartForm(maxThumbnailBytes); err != nil {
		s.badRequest(w, "invalid multipart form")
		return
	}

	var form types.BlogForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if fieldErrs := validateBlog(&form); len(fieldErrs) > 0 {
		s.writeError(w, r, types.NewValidationError(fieldErrs))
		return
	}

	blog := &types.Blog{
		Title:       form.Title,
		Content:     form.Content,
		Category:    utils.TrimmedPtr(utils.PtrString(form.Category)),
		AuthorName:  actor.Name,
		AuthorEmail: actor.Email,
		Status:      types.BlogStatusDraft,
	}

	if session := sessionFromContext(ctx); session != nil && session.User != nil {
		blog.AuthorAvatar = session.User.AvatarURL
	}

	file, header, err := r.FormFile("thumbnail")
	if err == nil {
		defer file.Close()

		url, err := s.images.Upload(ctx, header.Filename, file, header.Header.Get("Content-Type"))
		if err != nil {
			s.logger.WithError(err).Error("failed to upload blog thumbnail")
			s.writeError(w, r, &types.NetworkError{Op: "thumbnail upload", Err: err})
			return
		}
		blog.ThumbnailURL = utils.StringPtr(url)
	}

	if err := s.blogRepo.CreateBlog(ctx, blog); err != nil {
		s.logger.WithError(err).Error("failed to create blog")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, blog)
}

func (s *Service) handlePatchBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := flow.Param(ctx, "id")

	if !isStaff(actorFromContext(ctx)) {
		s.writeError(w, r, types.Denied(types.ReasonForbidden))
		return
	}

	var form types.BlogForm
	if err := decodeJSON(r, &form); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if fieldErrs := validateBlog(&form); len(fieldErrs) > 0 {
		s.writeError(w, r, types.NewValidationError(fieldErrs))
		return
	}

	blog, err := s.blogRepo.Blog(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrBlogNotFound) {
			s.writeError(w, r, s.blogNotFound(id))
			return
		}
		s.writeError(w, r, err)
		return
	}

	blog.Title = form.Title
	blog.Content = form.Content
	blog.Category = utils.TrimmedPtr(utils.PtrString(form.Category))

	if err := s.blogRepo.UpdateBlog(ctx, blog); err != nil {
		if errors.Is(err, types.ErrBlogNotFound) {
			s.writeError(w, r, s.blogNotFound(id))
			return
		}
		s.logger.WithError(err).WithField("blog_id", id).Error("failed to update blog")
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, blog)
}

// handlePatchBlogStatus flips a blog between draft and published.
func (s *Service) handlePatchBlogStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := flow.Param(ctx, "id")

	blog, err := s.blogRepo.Blog(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrBlogNotFound) {
			s.writeError(w, r, s.blogNotFound(id))
			return
		}
		s.writeError(w, r, err)
		return
	}

	next := blog.Status.Toggle()
	if err := s.blogRepo.UpdateBlogStatus(ctx, id, next); err != nil {
		s.logger.WithError(err).WithField("blog_id", id).Error("failed to update blog status")
		s.writeError(w, r, err)
		return
	}

	s.logger.WithFields(logrus.Fields{"blog_id": id, "status": next}).Info("blog status changed")

	blog.Status = next
	s.writeJSON(w, http.StatusOK, blog)
}

func (s *Service) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := flow.Param(ctx, "id")

	if err := s.blogRepo.DeleteBlog(ctx, id); err != nil {
		if errors.Is(err, types.ErrBlogNotFound) {
			s.writeError(w, r, s.blogNotFound(id))
			return
		}
		s.logger.WithError(err).WithField("blog_id", id).Error("failed to delete blog")
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
