package portfolio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	immutableCache = "public, max-age=31536000, immutable"
	maxThumbWidth  = 2048
	jpegQuality    = 80
	// multipartSlack covers form boundaries and the filename field on top of
	// the file itself.
	multipartSlack = 1 << 20
)

// imageDimensions reads the width and height from the image header. Formats
// the decoders don't know yield nils; the upload is stored either way.
func imageDimensions(data []byte) (*int, *int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}
	return &cfg.Width, &cfg.Height
}

// thumbnail scales the image down to width, keeping the aspect ratio. PNG
// sources stay PNG; everything else is encoded as JPEG.
func thumbnail(data []byte, width int) ([]byte, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if width >= w {
		return nil, "", fmt.Errorf("thumbnail width %d not below source width %d", width, w)
	}
	newH := h * width / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// uploadMimeType prefers the part's declared Content-Type, then the file
// extension, then sniffing the bytes.
func uploadMimeType(declared, filename string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}

// handleImage serves GET /images/:id. Failures are bare statuses.
func (a *App) handleImage(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.NoContent(http.StatusBadRequest)
	}
	width, _ := strconv.Atoi(c.QueryParam("w"))
	if width < 0 || width > maxThumbWidth {
		width = 0
	}

	etag := fmt.Sprintf(`"img-%d"`, id)
	if width > 0 {
		etag = fmt.Sprintf(`"img-%d-w%d"`, id, width)
	}
	// Ids are never reused and stored bytes never change, so a matching tag
	// is still valid without a lookup, even after the image was deleted.
	if match := c.Request().Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		c.Response().Header().Set("Cache-Control", immutableCache)
		c.Response().Header().Set("ETag", etag)
		return c.NoContent(http.StatusNotModified)
	}

	img, err := a.Store.GetImage(c.Request().Context(), id)
	if err != nil {
		code, _ := errorStatus(err)
		if code >= 500 {
			c.Logger().Errorf("get image %d: %v", id, err)
		}
		return c.NoContent(code)
	}

	data, contentType := img.Data, img.MimeType
	if width > 0 && img.Width != nil && width < *img.Width {
		if thumb, ct, err := thumbnail(img.Data, width); err == nil {
			data, contentType = thumb, ct
		} else {
			c.Logger().Warnf("thumbnail image %d: %v", id, err)
		}
	}

	h := c.Response().Header()
	h.Set("Cache-Control", immutableCache)
	h.Set("ETag", etag)
	return c.Blob(http.StatusOK, contentType, data)
}

// handleImageUpload serves POST /images with a multipart "file" field and an
// optional "filename" field overriding the part's own name.
func (a *App) handleImageUpload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, a.Config.MaxUploadSize+multipartSlack)

	file, err := c.FormFile("file")
	if err != nil {
		return validationError("No file provided")
	}
	if file.Size > a.Config.MaxUploadSize {
		return validationError(fmt.Sprintf("File too large (max %dMB)", a.Config.MaxUploadSize>>20))
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return validationError("No file provided")
	}

	name := strings.TrimSpace(c.FormValue("filename"))
	if name == "" {
		name = file.Filename
	}
	var filename *string
	if name != "" {
		filename = &name
	}

	img := Image{
		Filename: filename,
		MimeType: uploadMimeType(file.Header.Get(echo.HeaderContentType), name, data),
		Data:     data,
	}
	img.Width, img.Height = imageDimensions(data)

	img, err = a.Store.SaveImage(req.Context(), img)
	if err != nil {
		return err
	}
	c.Logger().Infof("stored image %d (%s, %d bytes)", img.ID, img.MimeType, img.Size)
	return c.JSON(http.StatusOK, map[string]any{"id": img.ID, "url": img.URL()})
}

type imageListItem struct {
	Image
	URL string `json:"url"`
}

func (a *App) handleImageList(c echo.Context) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]imageListItem, 0, len(images))
	for _, img := range images {
		out = append(out, imageListItem{Image: img, URL: img.URL()})
	}
	return c.JSON(http.StatusOK, out)
}

// handleImageDelete removes an image. Posts that used it as a cover keep the
// now dangling URL.
func (a *App) handleImageDelete(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return validationError("Invalid id")
	}
	if err := a.Store.DeleteImage(c.Request().Context(), id); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
