package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/busker/id"
	"github.com/xraph/busker/payment"
	"github.com/xraph/busker/track"
	"github.com/xraph/busker/types"
)

// ==================== Track models ====================

type trackModel struct {
	grove.BaseModel `grove:"table:busker_tracks"`

	ID               int64     `grove:"id,pk"`
	Title            string    `grove:"title"`
	ArtistName       string    `grove:"artist_name"`
	Genre            string    `grove:"genre"`
	PriceAmount      int64     `grove:"price_amount"`
	PriceCurrency    string    `grove:"price_currency"`
	ArtistPrincipal  string    `grove:"artist_principal"`
	TotalListeners   int64     `grove:"total_listeners"`
	TotalRating      int64     `grove:"total_rating"`
	RatingCount      int64     `grove:"rating_count"`
	Available        bool      `grove:"available"`
	ProofOfOwnership string    `grove:"proof_of_ownership"`
	CreatedAt        time.Time `grove:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"`
}

func fromTrackModel(m *trackModel) *track.Track {
	return &track.Track{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               uint64(m.ID),
		Title:            m.Title,
		ArtistName:       m.ArtistName,
		Genre:            m.Genre,
		Price:            types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		ArtistPrincipal:  m.ArtistPrincipal,
		TotalListeners:   m.TotalListeners,
		TotalRating:      m.TotalRating,
		RatingCount:      m.RatingCount,
		Available:        m.Available,
		ProofOfOwnership: m.ProofOfOwnership,
	}
}

// ==================== User models ====================

type userModel struct {
	grove.BaseModel `grove:"table:busker_users"`

	Principal  string    `grove:"principal,pk"`
	Reputation int64     `grove:"reputation"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:busker_subscriptions"`

	ListenerPrincipal string    `grove:"listener_principal,pk"`
	TrackID           int64     `grove:"track_id,pk"`
	CreatedAt         time.Time `grove:"created_at"`
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:busker_payments"`

	ID            string    `grove:"id,pk"`
	TrackID       int64     `grove:"track_id"`
	FromPrincipal string    `grove:"from_principal"`
	ToPrincipal   string    `grove:"to_principal"`
	Amount        int64     `grove:"amount"`
	Currency      string    `grove:"currency"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:            p.ID.String(),
		TrackID:       int64(p.TrackID),
		FromPrincipal: p.From,
		ToPrincipal:   p.To,
		Amount:        p.Amount.Amount,
		Currency:      p.Amount.Currency,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	payID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      payID,
		TrackID: uint64(m.TrackID),
		From:    m.FromPrincipal,
		To:      m.ToPrincipal,
		Amount:  types.Money{Amount: m.Amount, Currency: m.Currency},
	}, nil
}
