// Package apperr はどの集約にも属さない横断的なエラーを定義します。
package apperr

import "errors"

// ErrStoreUnavailable は永続化層に接続できない、またはタイムアウトした場合に返却されます。
// 呼び出し元は古いデータや部分的な結果で処理を継続してはいけません。
var ErrStoreUnavailable = errors.New("store unavailable")
