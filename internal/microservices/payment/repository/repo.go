package repository

import "github.com/jackc/pgx/v5/pgxpool"

type Repository struct {
	PaymentRepo PaymentRepositoryInterface
}

func New(db *pgxpool.Pool) *Repository {
	return &Repository{
		PaymentRepo: NewPaymentRepository(db),
	}
}
