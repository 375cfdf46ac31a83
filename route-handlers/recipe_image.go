package routehandlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/models"
	"github.com/coreybb/recipes/services"
	"github.com/coreybb/recipes/webutil"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// RecipeImages stores and serves recipe images.
// *services.RecipeImageService satisfies it.
type RecipeImages interface {
	UploadImage(ctx context.Context, userID, recipeID int64, filename string, payload []byte) (*models.RecipeImage, error)
	GetImage(ctx context.Context, userID, recipeID int64) (*services.Image, error)
}

type RecipeImageHandler struct {
	Images         RecipeImages
	MaxUploadBytes int64
}

func NewRecipeImageHandler(images RecipeImages, maxUploadBytes int64) *RecipeImageHandler {
	return &RecipeImageHandler{Images: images, MaxUploadBytes: maxUploadBytes}
}

// HandleUploadImage reads the multipart field "image" and stores it as the
// recipe's image.
func (h *RecipeImageHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	if h.MaxUploadBytes > 0 {
		if r.ContentLength > h.MaxUploadBytes {
			return webutil.ErrRequestTooLarge(fmt.Errorf("content length %d exceeds %d", r.ContentLength, h.MaxUploadBytes))
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return webutil.ErrRequestTooLarge(err)
		}
		return common.NewValidationError("image", "The submitted data was not a file. Check the encoding type on the form.")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return common.NewValidationError("image", "No file was submitted.")
		}
		return fmt.Errorf("read image field: %w", err)
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read uploaded image: %w", err)
	}

	res, err := h.Images.UploadImage(r.Context(), user.ID, id, header.Filename, payload)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, res)
	return nil
}

// HandleGetImage writes the stored image bytes with their detected content
// type. A matching If-None-Match yields 304.
func (h *RecipeImageHandler) HandleGetImage(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := idParam(r, "id")
	if err != nil {
		return err
	}

	img, err := h.Images.GetImage(r.Context(), user.ID, id)
	if err != nil {
		return err
	}

	etag := webutil.ETag(img.Data)
	w.Header().Set(webutil.HeaderETag, etag)
	w.Header().Set(webutil.HeaderCacheControl, "private, max-age=0, must-revalidate")
	if r.Header.Get(webutil.HeaderIfNoneMatch) == etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	w.Header().Set(webutil.HeaderContentType, img.ContentType)
	w.Header().Set(webutil.HeaderContentLength, strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
	return nil
}
