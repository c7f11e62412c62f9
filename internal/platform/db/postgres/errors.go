package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/codex-timesheet/internal/core/apperr"
)

const (
	// connection_exception クラス
	connectionExceptionClass = "08"
	queryCanceledCode        = "57014"
	adminShutdownCode        = "57P01"
	cannotConnectNowCode     = "57P03"
)

// IsUnavailable は接続断・タイムアウト・statement_timeout による失敗かどうかを判定します。
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperr.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, connectionExceptionClass):
			return true
		case pgErr.Code == queryCanceledCode, pgErr.Code == adminShutdownCode, pgErr.Code == cannotConnectNowCode:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// TranslateUnavailable は接続系の失敗を apperr.ErrStoreUnavailable でラップします。それ以外はそのまま返します。
func TranslateUnavailable(err error) error {
	if err == nil || errors.Is(err, apperr.ErrStoreUnavailable) || !IsUnavailable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
}
