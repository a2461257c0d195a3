package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	qrcode "github.com/skip2/go-qrcode"
)

type ShareService interface {
	CreateLink(ctx context.Context, userID, suggestionID int64) (*models.ShareLink, string, error)
	Resolve(ctx context.Context, slug string) (*models.PostSuggestion, error)
	QRCode(ctx context.Context, slug string) ([]byte, error)
}

type shareService struct {
	frontendURL string
	sl          repository.ShareLinkRepository
	sr          repository.SuggestionRepository
	ca          repository.ConnectedAccountRepository
}

func NewShareService(
	frontendURL string,
	sl repository.ShareLinkRepository,
	sr repository.SuggestionRepository,
	ca repository.ConnectedAccountRepository) ShareService {
	return &shareService{
		frontendURL: frontendURL,
		sl:          sl,
		sr:          sr,
		ca:          ca,
	}
}

func (s *shareService) CreateLink(ctx context.Context, userID, suggestionID int64) (*models.ShareLink, string, error) {
	suggestion, err := s.sr.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, "", err
	}
	if suggestion == nil {
		return nil, "", errors.New("suggestion doesn't exist")
	}

	owned, err := s.ca.CheckByUserID(ctx, suggestion.ConnectedAccountID, userID)
	if err != nil {
		return nil, "", err
	}
	if !owned {
		return nil, "", errors.New("suggestion doesn't exist")
	}

	slug, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, "", err
	}

	link := &models.ShareLink{
		UserID:       userID,
		SuggestionID: suggestionID,
		Slug:         slug,
	}

	id, err := s.sl.Create(ctx, link)
	if err != nil {
		return nil, "", err
	}
	link.ID = id

	return link, s.shareURL(slug), nil
}

func (s *shareService) Resolve(ctx context.Context, slug string) (*models.PostSuggestion, error) {
	link, err := s.sl.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, errors.New("share link doesn't exist")
	}

	return s.sr.GetByID(ctx, link.SuggestionID)
}

func (s *shareService) QRCode(ctx context.Context, slug string) ([]byte, error) {
	link, err := s.sl.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, errors.New("share link doesn't exist")
	}

	png, err := qrcode.Encode(s.shareURL(slug), qrcode.Medium, 256)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return png, nil
}

func (s *shareService) shareURL(slug string) string {
	return fmt.Sprintf("%s/s/%s", s.frontendURL, slug)
}
