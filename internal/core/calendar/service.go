package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

const maxNameLength = 200

// Service は祝日と休暇日のユースケースをまとめます。
type Service struct {
	holidays  book
	vacations book
	provider  Provider
	tx        TransactionManager
}

// UseCase は暦ユースケースの公開インターフェースです。
type UseCase interface {
	ListHolidays(ctx context.Context, year int) ([]Day, error)
	AddHoliday(ctx context.Context, in AddDayInput) (*Day, error)
	UpdateHoliday(ctx context.Context, in UpdateDayInput) (*Day, error)
	DeleteHoliday(ctx context.Context, date time.Time) error
	ListVacationDays(ctx context.Context, year int) ([]Day, error)
	AddVacationDay(ctx context.Context, in AddDayInput) (*Day, error)
	UpdateVacationDay(ctx context.Context, in UpdateDayInput) (*Day, error)
	DeleteVacationDay(ctx context.Context, date time.Time) error
	GenerateHolidays(ctx context.Context, in GenerateHolidaysInput) (*GenerateHolidaysResult, error)
}

// NewService は Service を生成します。provider が nil の場合、祝日の自動生成は ErrProviderFailed を返します。
func NewService(holidays, vacations Repository, provider Provider, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		holidays:  book{repo: holidays, label: "holiday"},
		vacations: book{repo: vacations, label: "vacation day"},
		provider:  provider,
		tx:        tx,
	}
}

// AddDayInput は祝日・休暇日の追加入力です。
type AddDayInput struct {
	Date time.Time
	Name string
}

// UpdateDayInput は祝日・休暇日の更新入力です。NewDate がゼロ値の場合は日付を変更しません。
type UpdateDayInput struct {
	Date    time.Time
	NewDate time.Time
	Name    string
}

// GenerateHolidaysInput は祝日自動生成の入力です。
type GenerateHolidaysInput struct {
	Region string
	Year   int
}

// GenerateHolidaysResult は祝日自動生成の結果です。
type GenerateHolidaysResult struct {
	Added   int
	Skipped int
}

func (s *Service) ListHolidays(ctx context.Context, year int) ([]Day, error) {
	return s.list(ctx, s.holidays, year)
}

// AddHoliday は祝日を追加します。同じ日付が既に存在する場合は ErrDayAlreadyExists を返します。
func (s *Service) AddHoliday(ctx context.Context, in AddDayInput) (*Day, error) {
	return s.add(ctx, s.holidays, in)
}

func (s *Service) UpdateHoliday(ctx context.Context, in UpdateDayInput) (*Day, error) {
	return s.update(ctx, s.holidays, in)
}

func (s *Service) DeleteHoliday(ctx context.Context, date time.Time) error {
	return s.delete(ctx, s.holidays, date)
}

func (s *Service) ListVacationDays(ctx context.Context, year int) ([]Day, error) {
	return s.list(ctx, s.vacations, year)
}

// AddVacationDay は会社休暇日を追加します。
func (s *Service) AddVacationDay(ctx context.Context, in AddDayInput) (*Day, error) {
	return s.add(ctx, s.vacations, in)
}

func (s *Service) UpdateVacationDay(ctx context.Context, in UpdateDayInput) (*Day, error) {
	return s.update(ctx, s.vacations, in)
}

func (s *Service) DeleteVacationDay(ctx context.Context, date time.Time) error {
	return s.delete(ctx, s.vacations, date)
}

// HolidayDates は指定年の祝日の日付を返します。
func (s *Service) HolidayDates(ctx context.Context, year int) ([]time.Time, error) {
	return s.dates(ctx, s.holidays, year)
}

// VacationDates は指定年の休暇日の日付を返します。
func (s *Service) VacationDates(ctx context.Context, year int) ([]time.Time, error) {
	return s.dates(ctx, s.vacations, year)
}

// GenerateHolidays はプロバイダから地域の祝日を取得し、未登録の日付だけを追加します。
// プロバイダが失敗した場合は 0 件追加の結果と ErrProviderFailed を返します。
func (s *Service) GenerateHolidays(ctx context.Context, in GenerateHolidaysInput) (*GenerateHolidaysResult, error) {
	region := strings.ToUpper(strings.TrimSpace(in.Region))
	if region == "" {
		return nil, ErrInvalidRegion
	}
	if !validYear(in.Year) || in.Year == 0 {
		return nil, ErrInvalidYear
	}

	result := &GenerateHolidaysResult{}
	if s.provider == nil {
		return result, ErrProviderFailed
	}

	fetched, err := s.provider.HolidaysForYear(ctx, region, in.Year)
	if errors.Is(err, ErrInvalidRegion) {
		return result, err
	}
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}

	sort.SliceStable(fetched, func(i, j int) bool { return fetched[i].Date.Before(fetched[j].Date) })

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		seen := make(map[time.Time]struct{}, len(fetched))
		added, skipped := 0, 0
		for _, h := range fetched {
			date := truncateDate(h.Date)
			if _, dup := seen[date]; dup {
				continue
			}
			seen[date] = struct{}{}

			name := strings.TrimSpace(h.Name)
			if name == "" {
				continue
			}
			if _, err := s.holidays.repo.Find(txCtx, date); err == nil {
				skipped++
				continue
			} else if !isNotFound(err) {
				return err
			}
			if err := s.holidays.repo.Create(txCtx, Day{Date: date, Name: name}); err != nil {
				return err
			}
			added++
		}
		result.Added, result.Skipped = added, skipped
		return nil
	}); err != nil {
		return &GenerateHolidaysResult{}, err
	}

	return result, nil
}

type book struct {
	repo  Repository
	label string
}

func (s *Service) list(ctx context.Context, b book, year int) ([]Day, error) {
	if !validYear(year) {
		return nil, ErrInvalidYear
	}
	var days []Day
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := b.repo.List(txCtx, year)
		if err != nil {
			return err
		}
		days = result
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", b.label, err)
	}
	return days, nil
}

func (s *Service) dates(ctx context.Context, b book, year int) ([]time.Time, error) {
	days, err := s.list(ctx, b, year)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		out = append(out, d.Date)
	}
	return out, nil
}

func (s *Service) add(ctx context.Context, b book, in AddDayInput) (*Day, error) {
	day, err := normalizeDay(in.Date, in.Name)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := b.repo.Find(txCtx, day.Date); err == nil {
			return ErrDayAlreadyExists
		} else if !isNotFound(err) {
			return err
		}
		return b.repo.Create(txCtx, day)
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", b.label, err)
	}
	return &day, nil
}

func (s *Service) update(ctx context.Context, b book, in UpdateDayInput) (*Day, error) {
	if in.Date.IsZero() {
		return nil, ErrInvalidDate
	}
	target := in.NewDate
	if target.IsZero() {
		target = in.Date
	}
	day, err := normalizeDay(target, in.Name)
	if err != nil {
		return nil, err
	}
	original := truncateDate(in.Date)

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := b.repo.Find(txCtx, original); err != nil {
			return err
		}
		if !day.Date.Equal(original) {
			if _, err := b.repo.Find(txCtx, day.Date); err == nil {
				return ErrDayAlreadyExists
			} else if !isNotFound(err) {
				return err
			}
		}
		return b.repo.Update(txCtx, original, day)
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", b.label, err)
	}
	return &day, nil
}

func (s *Service) delete(ctx context.Context, b book, date time.Time) error {
	if date.IsZero() {
		return ErrInvalidDate
	}
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return b.repo.Delete(txCtx, truncateDate(date))
	}); err != nil {
		return fmt.Errorf("%s: %w", b.label, err)
	}
	return nil
}

func normalizeDay(date time.Time, name string) (Day, error) {
	if date.IsZero() {
		return Day{}, ErrInvalidDate
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNameLength {
		return Day{}, ErrInvalidName
	}
	return Day{Date: truncateDate(date), Name: trimmed}, nil
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func validYear(year int) bool {
	return year >= 0 && year <= 9999
}
