package dashboard

import (
	"sort"

	"trades-export-go/internal/models"
)

// StatsDetail holds calculated statistics for a group of trades.
type StatsDetail struct {
	TotalTrades      int64   `json:"total_trades"`
	ProfitableTrades int64   `json:"profitable_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalProfit      float64 `json:"total_profit"`
}

func (s *StatsDetail) add(t models.Trade) {
	s.TotalTrades++
	if t.PnL >= 0 {
		s.ProfitableTrades++
	}
	s.TotalProfit += t.PnL
}

func (s *StatsDetail) finish() {
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.ProfitableTrades) / float64(s.TotalTrades)
	}
}

// StrategyStats is StatsDetail for one strategy.
type StrategyStats struct {
	Strategy string `json:"strategy"`
	StatsDetail
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	AllTime    StatsDetail     `json:"all_time"`
	ByStrategy []StrategyStats `json:"by_strategy"`
}

// Statistics aggregates trades overall and per strategy. Strategies are
// ordered by trade count, then name.
func Statistics(trades []models.Trade) StatisticsResponse {
	var resp StatisticsResponse
	index := make(map[string]int)
	for _, t := range trades {
		resp.AllTime.add(t)

		i, ok := index[t.Strategy]
		if !ok {
			i = len(resp.ByStrategy)
			index[t.Strategy] = i
			resp.ByStrategy = append(resp.ByStrategy, StrategyStats{Strategy: t.Strategy})
		}
		resp.ByStrategy[i].add(t)
	}

	resp.AllTime.finish()
	for i := range resp.ByStrategy {
		resp.ByStrategy[i].finish()
	}
	sort.SliceStable(resp.ByStrategy, func(i, j int) bool {
		a, b := resp.ByStrategy[i], resp.ByStrategy[j]
		if a.TotalTrades != b.TotalTrades {
			return a.TotalTrades > b.TotalTrades
		}
		return a.Strategy < b.Strategy
	})
	if resp.ByStrategy == nil {
		resp.ByStrategy = []StrategyStats{}
	}
	return resp
}
