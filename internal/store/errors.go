package store

import "errors"

var (
	// ErrDuplicateIdentity は name または email が既存アカウントと衝突したことを示します。
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrUserNotFound は書き込み対象のユーザーが存在しないことを示します。
	ErrUserNotFound = errors.New("user not found")

	// ErrChatNotFound はメッセージ追記先のチャットが解決できないことを示します。
	ErrChatNotFound = errors.New("chat not found")
)
