package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
)

type articleStore interface {
	Create(ctx context.Context, input repository.CreateArticleInput) (*models.Article, error)
	GetByID(ctx context.Context, articleID int64) (*models.Article, error)
	List(ctx context.Context, limit, offset int) ([]models.Article, int, error)
	CreateReview(ctx context.Context, articleID, patientID int64, rating int, comment *string) (*models.ArticleReview, error)
	ListReviews(ctx context.Context, articleID int64) ([]models.ArticleReview, error)
}

type articleAuthorStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.ProfessionalProfile, error)
}

type ArticleHandler struct {
	articleRepo      articleStore
	professionalRepo articleAuthorStore
}

func NewArticleHandler(articleRepo articleStore, professionalRepo articleAuthorStore) *ArticleHandler {
	return &ArticleHandler{
		articleRepo:      articleRepo,
		professionalRepo: professionalRepo,
	}
}

type createArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type reviewArticleRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

func (h *ArticleHandler) CreateArticle(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "professional" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	professionalID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content is required"})
	}

	authorName := ""
	profile, err := h.professionalRepo.GetByUserID(c.Context(), professionalID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch author profile"})
	}
	if err == nil && profile.FullName != nil {
		authorName = *profile.FullName
	}

	article, err := h.articleRepo.Create(c.Context(), repository.CreateArticleInput{
		ProfessionalID: professionalID,
		AuthorName:     authorName,
		Title:          req.Title,
		Content:        req.Content,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create article"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"article": article})
}

func (h *ArticleHandler) ListArticles(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	articles, total, err := h.articleRepo.List(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch articles"})
	}

	return c.JSON(fiber.Map{
		"articles":   articles,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ArticleHandler) GetArticle(c *fiber.Ctx) error {
	articleID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || articleID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid article id"})
	}

	article, err := h.articleRepo.GetByID(c.Context(), articleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Article not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch article"})
	}

	reviews, err := h.articleRepo.ListReviews(c.Context(), articleID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reviews"})
	}

	return c.JSON(fiber.Map{
		"article": article,
		"reviews": reviews,
	})
}

func (h *ArticleHandler) ListArticleReviews(c *fiber.Ctx) error {
	articleID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || articleID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid article id"})
	}

	if _, err := h.articleRepo.GetByID(c.Context(), articleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Article not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch article"})
	}

	reviews, err := h.articleRepo.ListReviews(c.Context(), articleID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reviews"})
	}

	return c.JSON(fiber.Map{"reviews": reviews})
}

// ReviewArticle upserts the caller's review, one per patient per article.
func (h *ArticleHandler) ReviewArticle(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "patient" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	patientID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	articleID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || articleID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid article id"})
	}

	var req reviewArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rating must be between 1 and 5"})
	}
	if req.Comment != nil && strings.TrimSpace(*req.Comment) == "" {
		req.Comment = nil
	}

	if _, err := h.articleRepo.GetByID(c.Context(), articleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Article not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch article"})
	}

	review, err := h.articleRepo.CreateReview(c.Context(), articleID, patientID, req.Rating, req.Comment)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save review"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"review": review})
}
