package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/logging"
	"github.com/coreybb/recipes/models"
	"github.com/coreybb/recipes/storage"
	"github.com/gabriel-vasile/mimetype"
)

const msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// RecipeImageStore is the recipe persistence the image service needs.
type RecipeImageStore interface {
	GetRecipe(ctx context.Context, userID, recipeID int64) (*models.Recipe, error)
	SetRecipeImage(ctx context.Context, userID, recipeID int64, image string) error
}

// Image is a stored recipe image ready to be served.
type Image struct {
	Key         string
	ContentType string
	Data        []byte
}

// RecipeImageService validates, stores and serves recipe images.
type RecipeImageService struct {
	recipes RecipeImageStore
	blobs   storage.BlobStore
	log     logging.Logger
}

func NewRecipeImageService(recipes RecipeImageStore, blobs storage.BlobStore, log logging.Logger) *RecipeImageService {
	return &RecipeImageService{recipes: recipes, blobs: blobs, log: log.With("component", "recipe_images")}
}

// UploadImage stores payload as the image of the user's recipe. The blob is
// written before the recipe row is touched, and removed again if the row
// update fails. A replaced image's blob is removed once the row points at
// the new one.
func (s *RecipeImageService) UploadImage(ctx context.Context, userID, recipeID int64, filename string, payload []byte) (*models.RecipeImage, error) {
	rec, err := s.recipes.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if len(payload) == 0 {
		return nil, common.NewValidationError("image", "The submitted file is empty.")
	}
	// Full decode so truncated or corrupt pixel data is caught, not just the header.
	_, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, common.NewValidationError("image", msgInvalidImage)
	}
	if format == "jpeg" {
		format = "jpg"
	}

	key := storage.RecipeImagePath(filename, format)
	if err := s.blobs.Save(ctx, key, payload); err != nil {
		return nil, fmt.Errorf("store image for recipe %d: %w", recipeID, err)
	}

	if err := s.recipes.SetRecipeImage(ctx, userID, recipeID, key); err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.log.Error(ctx, "orphaned image blob", "key", key, "error", derr)
		}
		return nil, err
	}

	if rec.Image != nil && *rec.Image != "" && *rec.Image != key {
		if derr := s.blobs.Delete(ctx, *rec.Image); derr != nil {
			s.log.Warn(ctx, "failed to remove replaced image blob", "key", *rec.Image, "error", derr)
		}
	}

	s.log.Info(ctx, "recipe image stored", "recipe_id", recipeID, "key", key, "bytes", len(payload))
	return &models.RecipeImage{ID: recipeID, Image: &key}, nil
}

// GetImage loads the image of the user's recipe. A recipe without an image
// is reported as common.ErrNotFound.
func (s *RecipeImageService) GetImage(ctx context.Context, userID, recipeID int64) (*Image, error) {
	rec, err := s.recipes.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if rec.Image == nil || *rec.Image == "" {
		return nil, fmt.Errorf("recipe %d has no image: %w", recipeID, common.ErrNotFound)
	}

	data, err := s.blobs.Open(ctx, *rec.Image)
	if err != nil {
		return nil, err
	}
	return &Image{
		Key:         *rec.Image,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}
