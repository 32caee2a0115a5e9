// ABOUTME: Image uploads to the Ghost Admin API.
// ABOUTME: Sends multipart file+ref forms with a content type inferred from the filename.
package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/models"
)

// ContentTypeFor infers a content type from the filename extension, falling
// back to sniffing the data when the extension is unknown.
func ContentTypeFor(filename string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		if media, _, err := mime.ParseMediaType(ct); err == nil {
			return media
		}
		return ct
	}
	return mimetype.Detect(data).String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadImage uploads raw image bytes and returns the stored image reference.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (*models.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(filename))))
	h.Set("Content-Type", ContentTypeFor(filename, data))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.WriteField("ref", filename); err != nil {
		return nil, fmt.Errorf("failed to write ref field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, "/images/upload", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apperr.RemoteRejection(status, string(body))
	}

	var env struct {
		Images []models.Image `json:"images"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Images) == 0 {
		return nil, fmt.Errorf("upload of %s returned no image", filename)
	}
	img := env.Images[0]
	if img.Ref == "" {
		img.Ref = filename
	}
	return &img, nil
}
