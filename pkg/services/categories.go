package services

import (
	"context"
	"fmt"

	"linker-backend/pkg/database"
	"linker-backend/pkg/logger"
	"linker-backend/pkg/models"
)

// CategoryListLimit 单次列表返回的最大分类数
const CategoryListLimit = 100

// SentinelCategory 分类被删除后其链接归入的分类
const SentinelCategory = "other"

const (
	categoryFieldName  = "name"
	categoryFieldIcon  = "icon"
	categoryFieldColor = "color"
)

// CategoryInput 创建或整体替换分类时的字段
type CategoryInput struct {
	Name  string
	Icon  string
	Color string
}

// CategoryService 按用户隔离的分类管理
type CategoryService struct {
	categories database.Collection
	links      database.Collection
	log        logger.Logger
}

// NewCategoryService 创建分类服务
func NewCategoryService(store database.Store, log logger.Logger) *CategoryService {
	return &CategoryService{
		categories: store.Collection(database.CollectionCategories),
		links:      store.Collection(database.CollectionLinks),
		log:        log,
	}
}

// Create 创建分类；所有者总是调用者本人
func (s *CategoryService) Create(ctx context.Context, callerID string, in CategoryInput) (*models.Category, error) {
	if callerID == "" {
		return nil, ErrNoCaller
	}

	id, err := s.categories.InsertOne(ctx, database.Document{
		database.FieldOwner: callerID,
		categoryFieldName:   in.Name,
		categoryFieldIcon:   in.Icon,
		categoryFieldColor:  in.Color,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.log.Debug("category created", logger.String("user_id", callerID), logger.String("category_id", id))
	return &models.Category{
		ID:     id,
		UserID: callerID,
		Name:   in.Name,
		Icon:   in.Icon,
		Color:  in.Color,
	}, nil
}

// List 返回调用者的分类，最多 CategoryListLimit 条
func (s *CategoryService) List(ctx context.Context, callerID string) ([]models.Category, error) {
	if callerID == "" {
		return nil, ErrNoCaller
	}

	docs, err := s.categories.Find(ctx, database.Filter{database.FieldOwner: callerID}, CategoryListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]models.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, models.Category{
			ID:     doc.String(database.FieldID),
			UserID: doc.String(database.FieldOwner),
			Name:   doc.String(categoryFieldName),
			Icon:   doc.String(categoryFieldIcon),
			Color:  doc.String(categoryFieldColor),
		})
	}
	return categories, nil
}

// Update 整体替换 name/icon/color
func (s *CategoryService) Update(ctx context.Context, callerID, categoryID string, in CategoryInput) (Outcome, error) {
	if callerID == "" {
		return OutcomeNoop, ErrNoCaller
	}

	res, err := s.categories.UpdateOne(ctx, ownedBy(callerID, categoryID), database.Document{
		categoryFieldName:  in.Name,
		categoryFieldIcon:  in.Icon,
		categoryFieldColor: in.Color,
	})
	if err != nil {
		return OutcomeNoop, fmt.Errorf("failed to update category: %w", err)
	}
	return outcomeOf(res.Matched), nil
}

// Delete 删除分类，并把调用者引用该分类的链接改为 SentinelCategory
//
// 两步之间没有事务：
//  1. 把 category 等于分类ID（以及分类名称，若分类存在且名称唯一）的链接改为 "other"；分类不存在时也会执行
//  2. 删除分类本身
//
// 在 1 与 2 之间写入该分类的链接会保留悬空引用。
func (s *CategoryService) Delete(ctx context.Context, callerID, categoryID string) (Outcome, error) {
	if callerID == "" {
		return OutcomeNoop, ErrNoCaller
	}

	refs, err := s.references(ctx, callerID, categoryID)
	if err != nil {
		return OutcomeNoop, err
	}

	var moved int64
	for _, ref := range refs {
		res, err := s.links.UpdateMany(ctx,
			database.Filter{linkFieldCategory: ref, database.FieldOwner: callerID},
			database.Document{linkFieldCategory: SentinelCategory})
		if err != nil {
			return OutcomeNoop, fmt.Errorf("failed to reassign links of category %s: %w", categoryID, err)
		}
		moved += res.Matched
	}

	n, err := s.categories.DeleteOne(ctx, ownedBy(callerID, categoryID))
	if err != nil {
		return OutcomeNoop, fmt.Errorf("failed to delete category: %w", err)
	}

	outcome := outcomeOf(n)
	s.log.Debug("category delete",
		logger.String("user_id", callerID),
		logger.String("category_id", categoryID),
		logger.Int64("links_moved", moved),
		logger.String("outcome", outcome.String()))
	return outcome, nil
}

// references 链接的 category 字段可能保存分类ID或分类名称
func (s *CategoryService) references(ctx context.Context, callerID, categoryID string) ([]string, error) {
	refs := []string{categoryID}

	docs, err := s.categories.Find(ctx, ownedBy(callerID, categoryID), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	if len(docs) != 1 {
		return refs, nil
	}

	name := docs[0].String(categoryFieldName)
	if name == "" || name == categoryID || name == SentinelCategory {
		return refs, nil
	}

	// 同名分类仍存在时，按名称引用的链接属于它
	namesakes, err := s.categories.Find(ctx, database.Filter{
		categoryFieldName:   name,
		database.FieldOwner: callerID,
	}, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	if len(namesakes) > 1 {
		return refs, nil
	}
	return append(refs, name), nil
}
