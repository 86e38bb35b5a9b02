// Package store はMongoDBをバックエンドとするドキュメントストアを提供します。
package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User はユーザードキュメントです。連絡先・通話履歴・ステータス・チャットを
// すべて埋め込み配列として保持します（users コレクション）。
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password" json:"-"` // bcryptハッシュ（JSONには含めない）
	Contacts      []Contact          `bson:"contacts" json:"contacts"`
	CallHistory   []CallRecord       `bson:"callHistory" json:"callHistory"`
	StatusUpdates []StatusUpdate     `bson:"statusUpdates" json:"statusUpdates"`
	Chats         []Chat             `bson:"chats" json:"chats"`
}

// Contact は連絡先です。所有ユーザーのリスト内の位置以外に独立した識別子を持ちません。
type Contact struct {
	Name           string `bson:"name" json:"name"`
	Email          string `bson:"email" json:"email"`
	ProfilePicture string `bson:"profilePicture" json:"profilePicture"`
}

// CallRecord は通話履歴の1件です。
type CallRecord struct {
	Name           string `bson:"name" json:"name"`
	Timestamp      string `bson:"timestamp" json:"timestamp"`
	IsVideoCall    bool   `bson:"isVideoCall" json:"isVideoCall"`
	IsIncoming     bool   `bson:"isIncoming" json:"isIncoming"`
	ProfilePicture string `bson:"profilePicture" json:"profilePicture"`
}

// StatusUpdate はステータス更新の1件です。
type StatusUpdate struct {
	Timestamp string `bson:"timestamp" json:"timestamp"`
	ImageURL  string `bson:"imageUrl" json:"imageUrl"`
}

// Chat はチャットです。chatId はユーザー内で一意な ObjectID です。
type Chat struct {
	ChatID         primitive.ObjectID `bson:"chatId" json:"chatId"`
	Name           string             `bson:"name" json:"name"`
	LastMessage    string             `bson:"lastMessage" json:"lastMessage"`
	Timestamp      string             `bson:"timestamp" json:"timestamp"`
	ProfilePicture string             `bson:"profilePicture" json:"profilePicture"`
	Messages       []Message          `bson:"messages" json:"messages"`
}

// Message はチャット内のメッセージです。到着順に追記され、編集・削除はありません。
type Message struct {
	Text      string `bson:"text" json:"text"`
	IsMe      bool   `bson:"isMe" json:"isMe"`
	Timestamp string `bson:"timestamp" json:"timestamp"`
}

// NowTimestamp はサーバー側で付与するタイムスタンプ文字列を返します。
// 元データが文字列のISO形式で保存されるため、RFC3339（UTC）で統一します。
func NowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
