package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vadim/artflow/internal/domain/template/dao"
	"github.com/vadim/artflow/internal/domain/template/entity"
)

// Service handles the content library: templates and hashtag groups
type Service struct {
	templates dao.TemplateRepository
	groups    dao.HashtagGroupRepository
}

// New creates a new content library service
func New(templates dao.TemplateRepository, groups dao.HashtagGroupRepository) *Service {
	return &Service{
		templates: templates,
		groups:    groups,
	}
}

// CreateTemplate creates a new content template
func (s *Service) CreateTemplate(ctx context.Context, tmpl *entity.Template) (*entity.Template, error) {
	tmpl.ID = uuid.New().String()

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, err
	}

	return tmpl, nil
}

// GetTemplate retrieves a template by ID
func (s *Service) GetTemplate(ctx context.Context, id string) (*entity.Template, error) {
	tmpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, entity.ErrTemplateNotFound
	}
	return tmpl, nil
}

// UpdateTemplate updates an existing template
func (s *Service) UpdateTemplate(ctx context.Context, tmpl *entity.Template) (*entity.Template, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.templates.Update(ctx, tmpl); err != nil {
		return nil, err
	}

	return tmpl, nil
}

// DeleteTemplate deletes a template
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.templates.Delete(ctx, id)
}

// ListTemplates retrieves all templates for a user
func (s *Service) ListTemplates(ctx context.Context, userID string) ([]entity.Template, error) {
	return s.templates.ListByUserID(ctx, userID)
}

// UseTemplate retrieves a template and bumps its usage counter
func (s *Service) UseTemplate(ctx context.Context, id string) (*entity.Template, error) {
	tmpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.templates.IncrementUsage(ctx, id); err != nil {
		return nil, err
	}
	tmpl.UsageCount++

	return tmpl, nil
}

// CreateHashtagGroup creates a new hashtag group
func (s *Service) CreateHashtagGroup(ctx context.Context, group *entity.HashtagGroup) (*entity.HashtagGroup, error) {
	group.ID = uuid.New().String()

	if err := group.Validate(); err != nil {
		return nil, err
	}

	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	return group, nil
}

// DeleteHashtagGroup deletes a hashtag group
func (s *Service) DeleteHashtagGroup(ctx context.Context, id string) error {
	return s.groups.Delete(ctx, id)
}

// ListHashtagGroups retrieves all hashtag groups for a user
func (s *Service) ListHashtagGroups(ctx context.Context, userID string) ([]entity.HashtagGroup, error) {
	return s.groups.ListByUserID(ctx, userID)
}
