package server

import (
	"errors"
	"mime/multipart"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// postFieldsRequest is the JSON or urlencoded body of a post update; nil
// fields were not sent.
type postFieldsRequest struct {
	Title   *string `json:"title" form:"title"`
	Summary *string `json:"summary" form:"summary"`
	Content *string `json:"content" form:"content"`
}

// CreatePost handles POST /post (multipart: file, title, summary, content).
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{
		Title:   c.FormValue("title"),
		Summary: c.FormValue("summary"),
		Content: c.FormValue("content"),
	}

	fh, err := c.FormFile("file")
	if err != nil && !isMissingFile(err) {
		return respondError(c, models.NewValidationError("Invalid multipart body"))
	}
	if fh != nil {
		f, err := fh.Open()
		if err != nil {
			return respondError(c, models.NewInternalError(err))
		}
		defer f.Close()
		in.File = &service.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}
	}

	post, err := s.postService.CreatePost(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /post/:id. Multipart bodies may carry a new cover;
// JSON or urlencoded bodies only change text fields.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	in := service.UpdatePostInput{PostID: c.Params("id")}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return respondError(c, models.NewValidationError("Invalid multipart body"))
		}
		in.Changes = changesFromForm(form)

		if files := form.File["file"]; len(files) > 0 {
			fh := files[0]
			f, err := fh.Open()
			if err != nil {
				return respondError(c, models.NewInternalError(err))
			}
			defer f.Close()
			in.File = &service.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}
		}
	} else if len(c.Body()) > 0 {
		var req postFieldsRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, models.NewValidationError("Invalid request body"))
		}
		in.Changes = models.PostChanges{Title: req.Title, Summary: req.Summary, Content: req.Content}
	}

	post, err := s.postService.UpdatePost(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Post updated",
		"post":    post,
	})
}

// ListPosts handles GET /post
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /post/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPost(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm)
}

func changesFromForm(form *multipart.Form) models.PostChanges {
	field := func(name string) *string {
		if vals, ok := form.Value[name]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}
	return models.PostChanges{
		Title:   field("title"),
		Summary: field("summary"),
		Content: field("content"),
	}
}
