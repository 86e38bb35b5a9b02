// Package graph はスキーマ型のクエリ・ミューテーションAPIを提供します。
package graph

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/chatwire/internal/auth"
	"github.com/yourusername/chatwire/internal/store"
)

const bcryptCost = 10

// Store はリゾルバーが利用するドキュメントストアです。
type Store interface {
	Create(ctx context.Context, name, email, hashedPassword string) error
	FindByName(ctx context.Context, name string) (*store.User, error)
	AddContact(ctx context.Context, name string, contact store.Contact) error
	AddCall(ctx context.Context, name string, call store.CallRecord) error
	AddStatusUpdate(ctx context.Context, name string, status store.StatusUpdate) error
	AddChat(ctx context.Context, name string, chat store.Chat) error
	AppendMessage(ctx context.Context, name string, chatID primitive.ObjectID, msg store.Message) error
	ChatMessages(ctx context.Context, name string, chatID primitive.ObjectID) ([]store.Message, error)
}

// Resolver はクエリ・ミューテーションの実装です。
// 操作対象のユーザーは常に認証済みコンテキストから取り、
// クライアントが送る name 引数は互換性のために受け取るだけで使用しません。
type Resolver struct {
	store Store
}

// NewResolver はリゾルバーを作成します。
func NewResolver(s Store) *Resolver {
	return &Resolver{store: s}
}

var errUnauthenticated = errors.New("authentication required")

// subject は認証済みユーザー名を返します。認証ゲートを通らずに
// 呼ばれた場合はエラーになります。
func subject(p graphql.ResolveParams) (string, error) {
	name, ok := auth.UserFromContext(p.Context)
	if !ok {
		return "", errUnauthenticated
	}
	return name, nil
}

func (r *Resolver) getUser(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	user, err := r.store.FindByName(p.Context, name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user, nil
}

func (r *Resolver) getContacts(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	user, err := r.store.FindByName(p.Context, name)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Contacts == nil {
		return []store.Contact{}, nil
	}
	return user.Contacts, nil
}

func (r *Resolver) getCalls(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	user, err := r.store.FindByName(p.Context, name)
	if err != nil {
		return nil, err
	}
	if user == nil || user.CallHistory == nil {
		return []store.CallRecord{}, nil
	}
	return user.CallHistory, nil
}

func (r *Resolver) getStatusUpdates(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	user, err := r.store.FindByName(p.Context, name)
	if err != nil {
		return nil, err
	}
	if user == nil || user.StatusUpdates == nil {
		return []store.StatusUpdate{}, nil
	}
	return user.StatusUpdates, nil
}

func (r *Resolver) getChats(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	user, err := r.store.FindByName(p.Context, name)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Chats == nil {
		return []store.Chat{}, nil
	}
	return user.Chats, nil
}

func (r *Resolver) getMessages(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	chatID, ok := parseChatID(p.Args["chatId"])
	if !ok {
		// 解決できないIDの読み出しは空列（エラーにしない）
		return []store.Message{}, nil
	}
	return r.store.ChatMessages(p.Context, name, chatID)
}

func (r *Resolver) addUser(p graphql.ResolveParams) (interface{}, error) {
	name, _ := p.Args["name"].(string)
	email, _ := p.Args["email"].(string)
	password, _ := p.Args["password"].(string)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := r.store.Create(p.Context, name, email, string(hashed)); err != nil {
		return nil, err
	}
	return "User added successfully", nil
}

func (r *Resolver) addContact(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	contact := store.Contact{
		Name:           stringArg(p, "contactName"),
		Email:          stringArg(p, "contactEmail"),
		ProfilePicture: stringArg(p, "profilePicture"),
	}
	if err := r.store.AddContact(p.Context, name, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *Resolver) addCall(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	isVideoCall, _ := p.Args["isVideoCall"].(bool)
	isIncoming, _ := p.Args["isIncoming"].(bool)
	call := store.CallRecord{
		Name:        stringArg(p, "callerName"),
		Timestamp:   store.NowTimestamp(),
		IsVideoCall: isVideoCall,
		IsIncoming:  isIncoming,
	}
	if err := r.store.AddCall(p.Context, name, call); err != nil {
		return nil, err
	}
	return call, nil
}

func (r *Resolver) addStatusUpdate(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	status := store.StatusUpdate{
		Timestamp: store.NowTimestamp(),
		ImageURL:  stringArg(p, "imageUrl"),
	}
	if err := r.store.AddStatusUpdate(p.Context, name, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (r *Resolver) addChat(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	chat := store.Chat{
		ChatID:         primitive.NewObjectID(),
		Name:           stringArg(p, "chatName"),
		ProfilePicture: stringArg(p, "profilePicture"),
		Timestamp:      store.NowTimestamp(),
		Messages:       []store.Message{},
	}
	if err := r.store.AddChat(p.Context, name, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *Resolver) addMessage(p graphql.ResolveParams) (interface{}, error) {
	name, err := subject(p)
	if err != nil {
		return nil, err
	}
	chatID, ok := parseChatID(p.Args["chatId"])
	if !ok {
		// 追記先が解決できない書き込みは明示的に失敗させる
		return nil, store.ErrChatNotFound
	}
	msg := store.Message{
		Text:      stringArg(p, "text"),
		IsMe:      true,
		Timestamp: store.NowTimestamp(),
	}
	if err := r.store.AppendMessage(p.Context, name, chatID, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func stringArg(p graphql.ResolveParams, key string) string {
	v, _ := p.Args[key].(string)
	return v
}

func parseChatID(arg interface{}) (primitive.ObjectID, bool) {
	raw, _ := arg.(string)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
