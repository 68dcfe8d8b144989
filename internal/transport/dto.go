package transport

import (
	"time"

	"github.com/Skotchmaster/shelfy/internal/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type MeResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// ProductRequest is the writable part of a product. DefaultPrice is a pointer
// so a missing price can be told apart from zero.
type ProductRequest struct {
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Unit         string   `json:"unit"`
	DefaultPrice *float64 `json:"defaultPrice"`
	ImageURL     string   `json:"imageUrl"`
	Active       bool     `json:"active"`
	Recommended  bool     `json:"recommended"`
}

func (r ProductRequest) Model() models.Product {
	p := models.Product{
		Name:        r.Name,
		Brand:       r.Brand,
		Unit:        r.Unit,
		ImageURL:    r.ImageURL,
		Active:      r.Active,
		Recommended: r.Recommended,
	}
	if r.DefaultPrice != nil {
		p.DefaultPrice = *r.DefaultPrice
	}
	return p
}

type RecommendationRequest struct {
	Recommended *bool `json:"recommended"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type ProductPage struct {
	Data []models.Product `json:"data"`
	Meta PageMeta         `json:"meta"`
}
