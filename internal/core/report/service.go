package report

import (
	"context"
	"io"
	"time"

	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// EntrySource は集計対象のエントリを提供します。entry.Repository が満たします。
type EntrySource interface {
	List(ctx context.Context, filter entry.ListFilter) ([]*entry.Entry, error)
	Years(ctx context.Context) ([]int, error)
}

// PDFRenderer は 2 種類の帳票を PDF に描画します。
type PDFRenderer interface {
	Render(employees EmployeeReport, projects ProjectReport) ([]byte, error)
}

// Service は集計と出力のユースケースをまとめます。
type Service struct {
	entries  EntrySource
	renderer PDFRenderer
	clock    Clock
	tx       TransactionManager
}

// UseCase は集計ユースケースの公開インターフェースです。
type UseCase interface {
	Pivot(ctx context.Context, year int) (*Pivot, error)
	EmployeeReport(ctx context.Context, year int) (*EmployeeReport, error)
	ProjectReport(ctx context.Context, year int) (*ProjectReport, error)
	ExportCSV(ctx context.Context, year int, w io.Writer) error
	ExportPDF(ctx context.Context, year int) ([]byte, error)
	Years(ctx context.Context) ([]int, error)
}

// NewService は Service を生成します。
func NewService(entries EntrySource, renderer PDFRenderer, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{entries: entries, renderer: renderer, clock: clock, tx: tx}
}

func (s *Service) Pivot(ctx context.Context, year int) (*Pivot, error) {
	entries, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	pivot := BuildPivot(year, entries)
	return &pivot, nil
}

func (s *Service) EmployeeReport(ctx context.Context, year int) (*EmployeeReport, error) {
	entries, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	r := BuildEmployeeReport(year, entries)
	return &r, nil
}

func (s *Service) ProjectReport(ctx context.Context, year int) (*ProjectReport, error) {
	entries, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	r := BuildProjectReport(year, entries)
	return &r, nil
}

// ExportCSV は指定年のエントリを CSV で書き出します。エントリが無くてもヘッダ行は出力します。
func (s *Service) ExportCSV(ctx context.Context, year int, w io.Writer) error {
	entries, err := s.load(ctx, year)
	if err != nil {
		return err
	}
	return WriteCSV(w, entries)
}

// ExportPDF は社員別・プロジェクト別の帳票を PDF にします。指定年にエントリが無い場合は ErrNoData を返します。
func (s *Service) ExportPDF(ctx context.Context, year int) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrNoRenderer
	}
	entries, err := s.load(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	return s.renderer.Render(BuildEmployeeReport(year, entries), BuildProjectReport(year, entries))
}

// Years は選択可能な年を降順で返します。
func (s *Service) Years(ctx context.Context) ([]int, error) {
	var years []int
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.entries.Years(txCtx)
		if err != nil {
			return err
		}
		years = result
		return nil
	}); err != nil {
		return nil, err
	}
	return AvailableYears(years, s.clock.Now()), nil
}

func (s *Service) load(ctx context.Context, year int) ([]*entry.Entry, error) {
	if year < 1 || year > 9999 {
		return nil, ErrInvalidYear
	}
	var entries []*entry.Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.entries.List(txCtx, entry.ListFilter{Year: year})
		if err != nil {
			return err
		}
		entries = result
		return nil
	}); err != nil {
		return nil, err
	}
	return entries, nil
}
