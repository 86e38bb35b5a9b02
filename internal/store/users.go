package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Users はユーザードキュメントのリポジトリです。
// 埋め込み配列への追記はすべて単一の $push 更新で行い、
// 読み出し・変更・保存の競合による更新消失を防ぎます。
type Users struct {
	coll *mongo.Collection
}

// NewUsers は Users リポジトリを作成します。
func NewUsers(db *mongo.Database) *Users {
	return &Users{coll: db.Collection(usersCollection)}
}

// Create はユーザーを新規作成します。password はハッシュ済みであることが前提です。
// name / email の重複は ErrDuplicateIdentity を返します。
func (u *Users) Create(ctx context.Context, name, email, hashedPassword string) error {
	if name == "" || email == "" {
		return fmt.Errorf("name and email are required")
	}
	user := User{
		Name:          name,
		Email:         email,
		Password:      hashedPassword,
		Contacts:      []Contact{},
		CallHistory:   []CallRecord{},
		StatusUpdates: []StatusUpdate{},
		Chats:         []Chat{},
	}
	if _, err := u.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByName は name でユーザーを検索します。見つからない場合は (nil, nil) を返します。
func (u *Users) FindByName(ctx context.Context, name string) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"name": name}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by name: %w", err)
	}
	return &user, nil
}

// FindByEmail は email でユーザーを検索します。見つからない場合は (nil, nil) を返します。
func (u *Users) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// AddContact は連絡先を追記します。
func (u *Users) AddContact(ctx context.Context, name string, contact Contact) error {
	return u.push(ctx, name, "contacts", contact)
}

// AddCall は通話履歴を追記します。
func (u *Users) AddCall(ctx context.Context, name string, call CallRecord) error {
	return u.push(ctx, name, "callHistory", call)
}

// AddStatusUpdate はステータス更新を追記します。
func (u *Users) AddStatusUpdate(ctx context.Context, name string, status StatusUpdate) error {
	return u.push(ctx, name, "statusUpdates", status)
}

// AddChat はチャットを追記します。
func (u *Users) AddChat(ctx context.Context, name string, chat Chat) error {
	return u.push(ctx, name, "chats", chat)
}

// AppendMessage は指定チャットへメッセージを追記し、同じ更新内で
// 親チャットの lastMessage / timestamp を書き換えます。
// chatId がユーザー内で解決できない場合は ErrChatNotFound を返します。
func (u *Users) AppendMessage(ctx context.Context, name string, chatID primitive.ObjectID, msg Message) error {
	filter := bson.M{"name": name, "chats.chatId": chatID}
	update := bson.M{
		"$push": bson.M{"chats.$.messages": msg},
		"$set": bson.M{
			"chats.$.lastMessage": msg.Text,
			"chats.$.timestamp":   msg.Timestamp,
		},
	}
	result, err := u.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}

// ChatMessages は指定チャットのメッセージ一覧を返します。
// ユーザーまたはチャットが存在しない場合はエラーにせず空スライスを返します。
func (u *Users) ChatMessages(ctx context.Context, name string, chatID primitive.ObjectID) ([]Message, error) {
	projection := bson.M{"chats": bson.M{"$elemMatch": bson.M{"chatId": chatID}}}
	opts := options.FindOne().SetProjection(projection)

	var user User
	err := u.coll.FindOne(ctx, bson.M{"name": name}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	if len(user.Chats) == 0 {
		return []Message{}, nil
	}
	if user.Chats[0].Messages == nil {
		return []Message{}, nil
	}
	return user.Chats[0].Messages, nil
}

func (u *Users) push(ctx context.Context, name, field string, value interface{}) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	result, err := u.coll.UpdateOne(ctx, bson.M{"name": name}, bson.M{"$push": bson.M{field: value}})
	if err != nil {
		return fmt.Errorf("failed to push %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
