package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// nullTime は*time.TimeをNULL対応のsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// requireRowAffected は更新系クエリが1行以上に作用したことを確認する。
// 対象が存在しない場合はエラーを返す。
func requireRowAffected(result sql.Result, subject string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%sの更新結果の確認に失敗しました: %w", subject, err)
	}
	if affected == 0 {
		return fmt.Errorf("%sが見つかりません", subject)
	}
	return nil
}
