package services

import (
	"context"
	"fmt"
	"time"

	"linker-backend/pkg/database"
	"linker-backend/pkg/logger"
	"linker-backend/pkg/models"
)

// LinkListLimit 单次列表返回的最大链接数
const LinkListLimit = 500

// 链接文档字段
const (
	linkFieldTitle       = "title"
	linkFieldURL         = "url"
	linkFieldCategory    = "category"
	linkFieldProject     = "project"
	linkFieldDescription = "description"
	linkFieldCreatedAt   = "created_at"
)

// LinkInput 创建或整体替换链接时的字段
type LinkInput struct {
	Title       string
	URL         string
	Category    string
	Project     string
	Description *string
}

// LinkService 按用户隔离的链接管理
type LinkService struct {
	links database.Collection
	log   logger.Logger
	now   func() time.Time
}

// NewLinkService 创建链接服务
func NewLinkService(store database.Store, log logger.Logger) *LinkService {
	return &LinkService{
		links: store.Collection(database.CollectionLinks),
		log:   log,
		now:   time.Now,
	}
}

// WithClock 替换时间来源（测试用）
func (s *LinkService) WithClock(now func() time.Time) *LinkService {
	s.now = now
	return s
}

// Create 创建链接；所有者总是调用者本人
func (s *LinkService) Create(ctx context.Context, callerID string, in LinkInput) (*models.Link, error) {
	if callerID == "" {
		return nil, ErrNoCaller
	}

	createdAt := s.now().UTC().Format(time.RFC3339Nano)
	doc := database.Document{
		database.FieldOwner:  callerID,
		linkFieldTitle:       in.Title,
		linkFieldURL:         in.URL,
		linkFieldCategory:    in.Category,
		linkFieldProject:     in.Project,
		linkFieldDescription: optionalValue(in.Description),
		linkFieldCreatedAt:   createdAt,
	}

	id, err := s.links.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	s.log.Debug("link created", logger.String("user_id", callerID), logger.String("link_id", id))
	return &models.Link{
		ID:          id,
		UserID:      callerID,
		Title:       in.Title,
		URL:         in.URL,
		Category:    in.Category,
		Project:     in.Project,
		Description: in.Description,
		CreatedAt:   createdAt,
	}, nil
}

// List 返回调用者的链接，按存储的自然顺序，最多 LinkListLimit 条
func (s *LinkService) List(ctx context.Context, callerID string) ([]models.Link, error) {
	if callerID == "" {
		return nil, ErrNoCaller
	}

	docs, err := s.links.Find(ctx, database.Filter{database.FieldOwner: callerID}, LinkListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	links := make([]models.Link, 0, len(docs))
	for _, doc := range docs {
		links = append(links, linkFromDocument(doc))
	}
	return links, nil
}

// Update 整体替换 title/url/category/project/description；created_at 与所有者不变
func (s *LinkService) Update(ctx context.Context, callerID, linkID string, in LinkInput) (Outcome, error) {
	if callerID == "" {
		return OutcomeNoop, ErrNoCaller
	}

	set := database.Document{
		linkFieldTitle:       in.Title,
		linkFieldURL:         in.URL,
		linkFieldCategory:    in.Category,
		linkFieldProject:     in.Project,
		linkFieldDescription: optionalValue(in.Description),
	}
	res, err := s.links.UpdateOne(ctx, ownedBy(callerID, linkID), set)
	if err != nil {
		return OutcomeNoop, fmt.Errorf("failed to update link: %w", err)
	}
	return outcomeOf(res.Matched), nil
}

// Delete 删除调用者的链接
func (s *LinkService) Delete(ctx context.Context, callerID, linkID string) (Outcome, error) {
	if callerID == "" {
		return OutcomeNoop, ErrNoCaller
	}

	n, err := s.links.DeleteOne(ctx, ownedBy(callerID, linkID))
	if err != nil {
		return OutcomeNoop, fmt.Errorf("failed to delete link: %w", err)
	}
	return outcomeOf(n), nil
}

// ownedBy 按ID和所有者定位一条记录
func ownedBy(callerID, id string) database.Filter {
	return database.Filter{
		database.FieldID:    id,
		database.FieldOwner: callerID,
	}
}

// optionalValue nil 指针存为 null
func optionalValue(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func linkFromDocument(doc database.Document) models.Link {
	return models.Link{
		ID:          doc.String(database.FieldID),
		UserID:      doc.String(database.FieldOwner),
		Title:       doc.String(linkFieldTitle),
		URL:         doc.String(linkFieldURL),
		Category:    doc.String(linkFieldCategory),
		Project:     doc.String(linkFieldProject),
		Description: doc.OptionalString(linkFieldDescription),
		CreatedAt:   doc.String(linkFieldCreatedAt),
	}
}
