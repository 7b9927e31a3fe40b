package clients

import (
	"errors"
	"mime"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lawoffice/internal/auth"
	"lawoffice/pkg/models"
)

var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// @Summary      Upload client documents
// @Description  Upload up to 10 files (PDF/PNG/JPEG) stored under a per-client path
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string   true  "client id (uuid)"
// @Param        files  formData  []file   true  "PDF/PNG/JPEG (max 10)"
// @Success      201    {object}  map[string]any  "results: id, key, name, size"
// @Failure      400    {object}  models.ErrorResponse
// @Failure      404    {object}  models.ErrorResponse
// @Router       /clients/{id}/documents [post]
func (h *Handler) UploadDocuments(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form required; use files[]")
	}
	files := form.File["files[]"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "files are required (use key: files[])")
	}
	if len(files) > 10 {
		return fiber.NewError(fiber.StatusBadRequest, "max 10 files allowed")
	}

	uploaderID, _ := uuid.Parse(auth.MustUserID(c))
	title := c.FormValue("title")
	description := c.FormValue("description")

	results := make([]fiber.Map, 0, len(files))

	for _, fh := range files {
		res := fiber.Map{
			"name": fh.Filename,
			"size": fh.Size,
		}

		if fh.Size <= 0 {
			res["error"] = "empty file"
			results = append(results, res)
			continue
		}
		if fh.Size > 10*1024*1024 {
			res["error"] = "max 10MB per file"
			results = append(results, res)
			continue
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(fh.Filename))
		}
		if !allowedDocumentTypes[ct] {
			res["error"] = "only PDF, PNG or JPEG are allowed"
			results = append(results, res)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			res["error"] = "open failed"
			results = append(results, res)
			continue
		}
		defer f.Close()

		key := h.sb.MakeObjectKey(cl.ID.String(), fh.Filename)

		if err := h.sb.Upload(key, f, ct, fh.Size); err != nil {
			res["error"] = "upload failed"
			results = append(results, res)
			continue
		}

		docTitle := title
		if docTitle == "" {
			docTitle = fh.Filename
		}
		rec := models.ClientDocument{
			ClientID:     cl.ID,
			Title:        docTitle,
			Description:  description,
			Key:          key,
			Mime:         ct,
			Size:         fh.Size,
			OriginalName: fh.Filename,
			UploadedByID: &uploaderID,
		}
		if err := h.db.Create(&rec).Error; err != nil {
			res["error"] = "database error"
			results = append(results, res)
			continue
		}

		res["id"] = rec.ID
		res["key"] = rec.Key
		results = append(results, res)
	}

	// 201 even if some items failed; callers check the per-item "error" field
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"results": results})
}

// @Summary      List client documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  map[string]any
// @Router       /clients/{id}/documents [get]
func (h *Handler) ListDocuments(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	docs := []models.ClientDocument{}
	if err := h.db.Where("client_id = ?", cl.ID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": docs})
}

func (h *Handler) findOwnedDocument(c *fiber.Ctx) (models.ClientDocument, error) {
	var doc models.ClientDocument
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return doc, err
	}
	docID := c.Params("docID")
	if _, err := uuid.Parse(docID); err != nil {
		return doc, fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}
	if err := h.db.Where("id = ? AND client_id = ?", docID, cl.ID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return doc, fiber.ErrNotFound
		}
		return doc, fiber.ErrInternalServerError
	}
	return doc, nil
}

// @Summary      Signed document URL
// @Description  Short-lived signed download URL for a client document
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id     path string true "client id (uuid)"
// @Param        docID  path string true "document id (uuid)"
// @Success      200  {object}  map[string]any  "url, expires_in, now"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id}/documents/{docID}/signed-url [get]
func (h *Handler) SignedDocumentURL(c *fiber.Ctx) error {
	doc, err := h.findOwnedDocument(c)
	if err != nil {
		return err
	}
	url, err := h.sb.SignedURL(doc.Key, 60) // seconds
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"url": url, "expires_in": 60, "now": time.Now().UTC()})
}

// @Summary      Delete client document
// @Tags         documents
// @Security     BearerAuth
// @Param        id     path string true "client id (uuid)"
// @Param        docID  path string true "document id (uuid)"
// @Success      204  "no content"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id}/documents/{docID} [delete]
func (h *Handler) DeleteDocument(c *fiber.Ctx) error {
	doc, err := h.findOwnedDocument(c)
	if err != nil {
		return err
	}
	// Remove the object first; storage delete is idempotent.
	if err := h.sb.Delete(doc.Key); err != nil {
		return fiber.ErrInternalServerError
	}
	if err := h.db.Delete(&doc).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}
