package repository

import (
	"context"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type ArticleRepository struct {
	db DBTX
}

func NewArticleRepository(db DBTX) *ArticleRepository {
	return &ArticleRepository{db: db}
}

type CreateArticleInput struct {
	ProfessionalID int64
	AuthorName     string
	Title          string
	Content        string
}

func (r *ArticleRepository) Create(ctx context.Context, input CreateArticleInput) (*models.Article, error) {
	query := `
		INSERT INTO articles (professional_id, author_name, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, professional_id, author_name, title, content, created_at, updated_at
	`
	var article models.Article
	err := r.db.QueryRow(ctx, query,
		input.ProfessionalID,
		input.AuthorName,
		input.Title,
		input.Content,
	).Scan(
		&article.ID,
		&article.ProfessionalID,
		&article.AuthorName,
		&article.Title,
		&article.Content,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, articleID int64) (*models.Article, error) {
	query := `
		SELECT id, professional_id, author_name, title, content, created_at, updated_at
		FROM articles
		WHERE id = $1
	`
	var article models.Article
	err := r.db.QueryRow(ctx, query, articleID).Scan(
		&article.ID,
		&article.ProfessionalID,
		&article.AuthorName,
		&article.Title,
		&article.Content,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *ArticleRepository) List(ctx context.Context, limit, offset int) ([]models.Article, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, professional_id, author_name, title, content, created_at, updated_at
		FROM articles
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles := make([]models.Article, 0)
	for rows.Next() {
		var article models.Article
		if err := rows.Scan(
			&article.ID,
			&article.ProfessionalID,
			&article.AuthorName,
			&article.Title,
			&article.Content,
			&article.CreatedAt,
			&article.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}

// CreateReview upserts a patient's review, one per patient per article.
func (r *ArticleRepository) CreateReview(
	ctx context.Context,
	articleID int64,
	patientID int64,
	rating int,
	comment *string,
) (*models.ArticleReview, error) {
	query := `
		INSERT INTO article_reviews (article_id, patient_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (article_id, patient_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
		RETURNING id, article_id, patient_id, rating, comment, created_at
	`
	var review models.ArticleReview
	err := r.db.QueryRow(ctx, query, articleID, patientID, rating, comment).Scan(
		&review.ID,
		&review.ArticleID,
		&review.PatientID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ArticleRepository) ListReviews(ctx context.Context, articleID int64) ([]models.ArticleReview, error) {
	query := `
		SELECT id, article_id, patient_id, rating, comment, created_at
		FROM article_reviews
		WHERE article_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.ArticleReview, 0)
	for rows.Next() {
		var review models.ArticleReview
		if err := rows.Scan(
			&review.ID,
			&review.ArticleID,
			&review.PatientID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}
