package service

import (
	"context"
	"slices"
	"time"

	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardService interface {
	Overview(ctx context.Context, limit int) (*Overview, error)
	Movement(ctx context.Context, material ledger.Material, siteID uuid.UUID, days int) ([]repository.MovementPoint, error)
}

// MaterialTotal is the stock of one material at one site.
type MaterialTotal struct {
	Material ledger.Material `json:"material"`
	Quantity decimal.Decimal `json:"quantity"`
	Weight   decimal.Decimal `json:"weight"`
	Variants int             `json:"variants"`
}

type SiteOverview struct {
	SiteID    uuid.UUID       `json:"site_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Materials []MaterialTotal `json:"materials"`
}

type Overview struct {
	Sites  []SiteOverview    `json:"sites"`
	Recent []TransactionView `json:"recent"`
}

const defaultRecentLimit = 10

type dashboardService struct {
	sites repository.SiteRepository
	repos []repository.LedgerRepository
	now   func() time.Time
}

func NewDashboardService(sites repository.SiteRepository, repos []repository.LedgerRepository) DashboardService {
	return &dashboardService{sites: sites, repos: repos, now: time.Now}
}

// Overview totals every material per site and lists the most recent
// transactions across all materials.
func (s *dashboardService) Overview(ctx context.Context, limit int) (*Overview, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	sites, err := s.sites.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := &Overview{Sites: make([]SiteOverview, 0, len(sites))}
	index := make(map[uuid.UUID]int, len(sites))
	for i, site := range sites {
		index[site.ID] = i
		ov := SiteOverview{SiteID: site.ID, Code: site.Code, Name: site.Name}
		for _, repo := range s.repos {
			ov.Materials = append(ov.Materials, MaterialTotal{Material: repo.Material()})
		}
		out.Sites = append(out.Sites, ov)
	}

	var recent []repository.TxRecord
	for ri, repo := range s.repos {
		stocks, err := repo.ListStocks(ctx, uuid.Nil)
		if err != nil {
			return nil, err
		}
		for _, st := range stocks {
			i, ok := index[st.SiteID]
			if !ok {
				continue
			}
			t := &out.Sites[i].Materials[ri]
			t.Quantity = t.Quantity.Add(st.Level.Quantity)
			t.Weight = t.Weight.Add(st.Level.Weight)
			if st.Level.Quantity.IsPositive() {
				t.Variants++
			}
		}

		rows, err := repo.RecentTransactions(ctx, uuid.Nil, limit)
		if err != nil {
			return nil, err
		}
		recent = append(recent, rows...)
	}

	slices.SortStableFunc(recent, func(a, b repository.TxRecord) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	out.Recent = transactionViews(recent)
	return out, nil
}

// Movement returns daily in/out weight for the last days days.
func (s *dashboardService) Movement(ctx context.Context, material ledger.Material, siteID uuid.UUID, days int) ([]repository.MovementPoint, error) {
	if days <= 0 {
		days = 7
	}
	if _, err := findSite(ctx, s.sites, siteID); err != nil {
		return nil, err
	}
	for _, repo := range s.repos {
		if repo.Material() == material {
			end := s.now()
			return repo.Movement(ctx, siteID, end.AddDate(0, 0, -days), end)
		}
	}
	return nil, &ledger.InvalidInputError{Field: "material", Reason: "unknown material"}
}
