package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
)

type MediaService interface {
	Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaAsset, error)
	List(ctx context.Context, userID int64) ([]*models.MediaAsset, error)
}

type mediaService struct {
	ma repository.MediaAssetRepository
	r2 R2Service
}

func NewMediaService(ma repository.MediaAssetRepository, r2 R2Service) MediaService {
	return &mediaService{
		ma: ma,
		r2: r2,
	}
}

// Upload sniffs the real content type before accepting the file; the
// client-supplied extension is ignored.
func (s *mediaService) Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaAsset, error) {
	allowedTypes := map[string]struct{}{
		"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "mp4": {},
	}

	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type")
	}
	if _, ok := allowedTypes[fileType.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := s.r2.Upload(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		UserID:   userID,
		FileName: key,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  s.r2.PublicURL(key),
	}

	assetID, err := s.ma.Create(ctx, asset)
	if err != nil {
		return nil, err
	}
	asset.ID = assetID

	return asset, nil
}

func (s *mediaService) List(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	return s.ma.ListByUserID(ctx, userID)
}
