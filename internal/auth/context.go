package auth

import "context"

type ctxKey int

const userKey ctxKey = 0

// WithUser は認証済みユーザー名をリクエストコンテキストへ格納します。
func WithUser(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userKey, name)
}

// UserFromContext はリクエストコンテキストから認証済みユーザー名を取り出します。
func UserFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(userKey).(string)
	return name, ok && name != ""
}
