package calendar

import "time"

// Day は祝日または会社休暇日です。日付は一意で、全社員のグリッドに共通して適用されます。
type Day struct {
	Date time.Time
	Name string
}

// Holiday はプロバイダから取得した祝日です。
type Holiday struct {
	Date time.Time
	Name string
}
