package server

import (
	"net/http"
	"strings"

	"redaid/pkg/types"
)

const maxAvatarBytes = 2 << 20

type uploadResponse struct {
	URL string `json:"url"`
}

// handleUpload stores an image from the multipart field "image" and returns
// the URL it is served from.
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+(1<<10))
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		s.writeError(w, r, types.NewValidationError(map[string]string{"image": "image must be at most 2MB"}))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, r, types.NewValidationError(map[string]string{"image": "image is required"}))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		s.writeError(w, r, types.NewValidationError(map[string]string{"image": "only image files can be uploaded"}))
		return
	}

	url, err := s.images.Upload(ctx, header.Filename, file, contentType)
	if err != nil {
		s.writeError(w, r, &types.NetworkError{Op: "image upload", Err: err})
		return
	}

	s.writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
