package handlers

import (
	"errors"
	"io/fs"
	"mime/multipart"
	"os"

	"community-service/internal/api/response"
	"community-service/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

const maxMediaSize = 10 << 20

// validateFile memastikan file ada isinya dan tidak lebih dari 10MB.
func validateFile(file *multipart.FileHeader) error {
	if file.Size == 0 {
		return apperr.Invalidf("File is empty")
	}
	if file.Size > maxMediaSize {
		return apperr.Invalidf("File size exceeds the limit of 10MB")
	}
	return nil
}

func (h *Handler) UploadMedia(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	taskID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "No file uploaded")
	}
	if err := validateFile(fh); err != nil {
		return err
	}
	up, closer, err := openUpload(fh)
	if err != nil {
		return err
	}
	defer closer.Close()

	m, err := h.deps.Media.Upload(c.UserContext(), p, taskID, *up)
	if err != nil {
		return err
	}
	return response.Created(c, "File uploaded successfully", m)
}

func (h *Handler) GetTaskMedia(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	taskID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	media, err := h.deps.Media.List(c.UserContext(), p, taskID)
	if err != nil {
		return err
	}
	return response.OK(c, "Media fetched successfully", media)
}

func (h *Handler) DeleteMedia(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deps.Media.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Media deleted successfully", nil)
}

// GetFile serves a stored upload by its relative path. Only logged-in
// callers reach it.
func (h *Handler) GetFile(c *fiber.Ctx) error {
	path, err := h.deps.Files.Path(c.Params("*"))
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "Invalid file path")
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return apperr.NotFoundf("File not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Error reading file")
	}
	return c.SendFile(path)
}
