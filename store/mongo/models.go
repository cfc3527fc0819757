package mongo

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

	ID               int64     `grove:"id,pk"              bson:"_id"`
	Title            string    `grove:"title"              bson:"title"`
	ArtistName       string    `grove:"artist_name"        bson:"artist_name"`
	Genre            string    `grove:"genre"              bson:"genre"`
	PriceAmount      int64     `grove:"price_amount"       bson:"price_amount"`
	PriceCurrency    string    `grove:"price_currency"     bson:"price_currency"`
	ArtistPrincipal  string    `grove:"artist_principal"   bson:"artist_principal"`
	TotalListeners   int64     `grove:"total_listeners"    bson:"total_listeners"`
	TotalRating      int64     `grove:"total_rating"       bson:"total_rating"`
	RatingCount      int64     `grove:"rating_count"       bson:"rating_count"`
	Available        bool      `grove:"available"          bson:"available"`
	ProofOfOwnership string    `grove:"proof_of_ownership" bson:"proof_of_ownership"`
	CreatedAt        time.Time `grove:"created_at"         bson:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"         bson:"updated_at"`
}

func toTrackModel(t *track.Track) *trackModel {
	return &trackModel{
		ID:               int64(t.ID),
		Title:            t.Title,
		ArtistName:       t.ArtistName,
		Genre:            t.Genre,
		PriceAmount:      t.Price.Amount,
		PriceCurrency:    t.Price.Currency,
		ArtistPrincipal:  t.ArtistPrincipal,
		TotalListeners:   t.TotalListeners,
		TotalRating:      t.TotalRating,
		RatingCount:      t.RatingCount,
		Available:        t.Available,
		ProofOfOwnership: t.ProofOfOwnership,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
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

	Principal  string    `grove:"principal,pk" bson:"_id"`
	Reputation int64     `grove:"reputation"   bson:"reputation"`
	CreatedAt  time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"   bson:"updated_at"`
}

// ==================== Subscription models ====================

// subscriptionModel keys on "listener:trackID" so the unique _id doubles as
// the exclusivity guarantee for concurrent subscribe attempts.
type subscriptionModel struct {
	grove.BaseModel `grove:"table:busker_subscriptions"`

	ID                string    `grove:"id,pk"              bson:"_id"`
	ListenerPrincipal string    `grove:"listener_principal" bson:"listener_principal"`
	TrackID           int64     `grove:"track_id"           bson:"track_id"`
	CreatedAt         time.Time `grove:"created_at"         bson:"created_at"`
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:busker_payments"`

	ID            string    `grove:"id,pk"          bson:"_id"`
	TrackID       int64     `grove:"track_id"       bson:"track_id"`
	FromPrincipal string    `grove:"from_principal" bson:"from_principal"`
	ToPrincipal   string    `grove:"to_principal"   bson:"to_principal"`
	Amount        int64     `grove:"amount"         bson:"amount"`
	Currency      string    `grove:"currency"       bson:"currency"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
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

// ==================== Counter models ====================

// counterModel backs the sequential track id allocator.
type counterModel struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}
