package edificios

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// RepositoryPort abstracts building persistence.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Edificio, error)
	UpdateConfig(ctx context.Context, id int64, in ConfigInput) (Edificio, error)
	UnidadesOcupadas(ctx context.Context, edificioID int64) ([]string, error)
	ExisteUnidad(ctx context.Context, edificioID int64, codigo string) (bool, error)
	ListActivos(ctx context.Context) ([]int64, error)
}

// Service exposes building configuration to handlers and to the ledger
// services that need fee defaults.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService constructs the Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Get returns the building for the tenant.
func (s *Service) Get(ctx context.Context, edificioID int64) (Edificio, error) {
	return s.repo.Get(ctx, edificioID)
}

// UpdateConfig validates and persists new settings.
func (s *Service) UpdateConfig(ctx context.Context, edificioID int64, in ConfigInput) (Edificio, error) {
	if err := in.Validate(); err != nil {
		return Edificio{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return Edificio{}, err
	}
	return s.repo.UpdateConfig(ctx, edificioID, in)
}

// UnidadesOcupadas lists the unit codes eligible for fee generation.
func (s *Service) UnidadesOcupadas(ctx context.Context, edificioID int64) ([]string, error) {
	return s.repo.UnidadesOcupadas(ctx, edificioID)
}

// ExisteUnidad reports whether the unit belongs to the building.
func (s *Service) ExisteUnidad(ctx context.Context, edificioID int64, codigo string) (bool, error) {
	return s.repo.ExisteUnidad(ctx, edificioID, codigo)
}

// ListActivos lists active buildings for background sweeps.
func (s *Service) ListActivos(ctx context.Context) ([]int64, error) {
	return s.repo.ListActivos(ctx)
}
