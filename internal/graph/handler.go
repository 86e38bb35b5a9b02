package graph

import (
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

// Handler はGraphQLエンドポイントの gin ハンドラーを返します。
// graphiql を有効にすると開発用の対話UIを同じパスで提供します。
func Handler(schema *graphql.Schema, graphiql bool) gin.HandlerFunc {
	h := handler.New(&handler.Config{
		Schema:   schema,
		Pretty:   true,
		GraphiQL: graphiql,
	})
	return gin.WrapH(h)
}
