// Package holiday は rickar/cal を用いた祝日プロバイダです。
package holiday

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"

	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
)

// Provider は地域コードごとの祝日定義から年間の祝日を算出します。
type Provider struct {
	regions map[string][]*cal.Holiday
}

// NewProvider はドイツ全国の祝日を "DE" として登録した Provider を生成します。
func NewProvider() *Provider {
	return &Provider{regions: map[string][]*cal.Holiday{
		"DE": de.Holidays,
	}}
}

// Regions は登録済みの地域コードを昇順で返します。
func (p *Provider) Regions() []string {
	out := make([]string, 0, len(p.regions))
	for code := range p.regions {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// HolidaysForYear は region の year 年の祝日を日付順で返します。
func (p *Provider) HolidaysForYear(ctx context.Context, region string, year int) ([]calendar.Holiday, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defs, ok := p.regions[strings.ToUpper(strings.TrimSpace(region))]
	if !ok {
		return nil, fmt.Errorf("holiday: region %q: %w", region, calendar.ErrInvalidRegion)
	}

	out := make([]calendar.Holiday, 0, len(defs))
	for _, h := range defs {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		out = append(out, calendar.Holiday{
			Date: time.Date(actual.Year(), actual.Month(), actual.Day(), 0, 0, 0, 0, time.UTC),
			Name: h.Name,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
