package service

import (
	"context"
	"time"

	"go-variant-inventory/internal/repository"
)

const maxMovementDays = 365

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	txRepo repository.TransactionRepository
}

func NewDashboardService(txRepo repository.TransactionRepository) DashboardService {
	return &dashboardService{txRepo: txRepo}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > maxMovementDays {
		return nil, invalidf("days must be between 1 and %d", maxMovementDays)
	}
	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.txRepo.GetStockMovement(ctx, startDate, endDate)
	return data, persistence(err)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.txRepo.GetDashboardStats(ctx)
	return stats, persistence(err)
}
