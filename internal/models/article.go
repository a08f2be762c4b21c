package models

import "time"

type Article struct {
	ID             int64     `json:"id"`
	ProfessionalID int64     `json:"professional_id"`
	AuthorName     string    `json:"author_name"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ArticleReview struct {
	ID        int64     `json:"id"`
	ArticleID int64     `json:"article_id"`
	PatientID int64     `json:"patient_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
