package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/yourusername/chatwire/internal/store"
)

// chatIDField は chatId を16進文字列として返すフィールドです。
// ObjectID をそのまま既定のリゾルバーに任せると String() の装飾付き表現に
// なってしまうため、明示的に Hex() を返します。
func resolveChatID(p graphql.ResolveParams) (interface{}, error) {
	switch chat := p.Source.(type) {
	case store.Chat:
		return chat.ChatID.Hex(), nil
	case *store.Chat:
		return chat.ChatID.Hex(), nil
	default:
		return nil, nil
	}
}

// NewSchema は元のアプリケーションと互換のGraphQLスキーマを構築します。
// 各操作の name 引数は互換性のために残していますが、操作対象は常に
// 認証済みコンテキストのユーザーです。
func NewSchema(r *Resolver) (graphql.Schema, error) {
	contactType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Contact",
		Fields: graphql.Fields{
			"name":           &graphql.Field{Type: graphql.String},
			"email":          &graphql.Field{Type: graphql.String},
			"profilePicture": &graphql.Field{Type: graphql.String},
		},
	})

	callHistoryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CallHistory",
		Fields: graphql.Fields{
			"name":           &graphql.Field{Type: graphql.String},
			"timestamp":      &graphql.Field{Type: graphql.String},
			"isVideoCall":    &graphql.Field{Type: graphql.Boolean},
			"isIncoming":     &graphql.Field{Type: graphql.Boolean},
			"profilePicture": &graphql.Field{Type: graphql.String},
		},
	})

	statusUpdateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StatusUpdate",
		Fields: graphql.Fields{
			"timestamp": &graphql.Field{Type: graphql.String},
			"imageUrl":  &graphql.Field{Type: graphql.String},
		},
	})

	chatMessageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ChatMessage",
		Fields: graphql.Fields{
			"text":      &graphql.Field{Type: graphql.String},
			"isMe":      &graphql.Field{Type: graphql.Boolean},
			"timestamp": &graphql.Field{Type: graphql.String},
		},
	})

	chatType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Chat",
		Fields: graphql.Fields{
			"chatId":         &graphql.Field{Type: graphql.ID, Resolve: resolveChatID},
			"name":           &graphql.Field{Type: graphql.String},
			"lastMessage":    &graphql.Field{Type: graphql.String},
			"timestamp":      &graphql.Field{Type: graphql.String},
			"profilePicture": &graphql.Field{Type: graphql.String},
			"messages":       &graphql.Field{Type: graphql.NewList(chatMessageType)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"name":          &graphql.Field{Type: graphql.String},
			"email":         &graphql.Field{Type: graphql.String},
			"contacts":      &graphql.Field{Type: graphql.NewList(contactType)},
			"callHistory":   &graphql.Field{Type: graphql.NewList(callHistoryType)},
			"statusUpdates": &graphql.Field{Type: graphql.NewList(statusUpdateType)},
			"chats":         &graphql.Field{Type: graphql.NewList(chatType)},
		},
	})

	nameArg := graphql.FieldConfigArgument{
		"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getUser": &graphql.Field{
				Type:    userType,
				Args:    nameArg,
				Resolve: r.getUser,
			},
			"getContacts": &graphql.Field{
				Type:    graphql.NewList(contactType),
				Args:    nameArg,
				Resolve: r.getContacts,
			},
			"getCalls": &graphql.Field{
				Type:    graphql.NewList(callHistoryType),
				Args:    nameArg,
				Resolve: r.getCalls,
			},
			"getStatusUpdates": &graphql.Field{
				Type:    graphql.NewList(statusUpdateType),
				Args:    nameArg,
				Resolve: r.getStatusUpdates,
			},
			"getChats": &graphql.Field{
				Type:    graphql.NewList(chatType),
				Args:    nameArg,
				Resolve: r.getChats,
			},
			"getMessages": &graphql.Field{
				Type: graphql.NewList(chatMessageType),
				Args: graphql.FieldConfigArgument{
					"name":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"chatId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.getMessages,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addUser": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.addUser,
			},
			"addContact": &graphql.Field{
				Type: contactType,
				Args: graphql.FieldConfigArgument{
					"name":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"contactName":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"contactEmail":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"profilePicture": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.addContact,
			},
			"addCall": &graphql.Field{
				Type: callHistoryType,
				Args: graphql.FieldConfigArgument{
					"name":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"callerName":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"isVideoCall": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
					"isIncoming":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
				},
				Resolve: r.addCall,
			},
			"addStatusUpdate": &graphql.Field{
				Type: statusUpdateType,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"imageUrl": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.addStatusUpdate,
			},
			"addChat": &graphql.Field{
				Type: chatType,
				Args: graphql.FieldConfigArgument{
					"name":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"chatName":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"profilePicture": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.addChat,
			},
			"addMessage": &graphql.Field{
				Type: chatMessageType,
				Args: graphql.FieldConfigArgument{
					"name":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"chatId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"text":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.addMessage,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
