package repository

import "github.com/jackc/pgx/v5/pgxpool"

type Repository struct {
	CheckoutRepo CheckoutRepositoryInterface
}

func New(db *pgxpool.Pool) *Repository {
	return &Repository{
		CheckoutRepo: NewCheckoutRepository(db),
	}
}
