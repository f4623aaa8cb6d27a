package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
)

// AnalyticsService computes the operator summary from a full scan of the
// order store on every call.
type AnalyticsService struct {
	repo    repository.OrderRepository
	topN    int
	recentN int
}

func NewAnalyticsService(repo repository.OrderRepository, topN, recentN int) *AnalyticsService {
	return &AnalyticsService{repo: repo, topN: topN, recentN: recentN}
}

func (s *AnalyticsService) Summarize(ctx context.Context) (*domain.AnalyticsSummary, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, storeError("load orders", err)
	}
	return Summarize(orders, s.topN, s.recentN), nil
}

// Summarize aggregates orders, which must be sorted newest first. Revenue
// counts every order regardless of status. Popular products are ranked by
// units sold, then revenue, then product id.
func Summarize(orders []domain.Order, topN, recentN int) *domain.AnalyticsSummary {
	summary := &domain.AnalyticsSummary{
		TotalOrders:    len(orders),
		TotalRevenue:   decimal.Zero,
		OrdersByStatus: make(map[domain.OrderStatus]int, len(domain.Statuses())),
	}
	for _, st := range domain.Statuses() {
		summary.OrdersByStatus[st] = 0
	}

	sales := make(map[string]*domain.ProductSales)
	for _, o := range orders {
		summary.TotalRevenue = summary.TotalRevenue.Add(o.Total)
		summary.OrdersByStatus[o.Status]++

		for _, li := range o.Items {
			ps, ok := sales[li.ProductID]
			if !ok {
				ps = &domain.ProductSales{ProductID: li.ProductID, Name: li.Name, Revenue: decimal.Zero}
				sales[li.ProductID] = ps
			}
			ps.Quantity += li.Quantity
			ps.Revenue = ps.Revenue.Add(li.LineTotal())
		}
	}
	summary.TotalRevenue = domain.RoundMoney(summary.TotalRevenue)

	popular := make([]domain.ProductSales, 0, len(sales))
	for _, ps := range sales {
		ps.Revenue = domain.RoundMoney(ps.Revenue)
		popular = append(popular, *ps)
	}
	slices.SortFunc(popular, func(a, b domain.ProductSales) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if topN > 0 && len(popular) > topN {
		popular = popular[:topN]
	}
	summary.PopularProducts = popular

	recent := orders
	if recentN >= 0 && len(recent) > recentN {
		recent = recent[:recentN]
	}
	summary.RecentOrders = slices.Clone(recent)
	if summary.RecentOrders == nil {
		summary.RecentOrders = []domain.Order{}
	}
	return summary
}
