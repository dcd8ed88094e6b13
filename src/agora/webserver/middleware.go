package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/data"
	"github.com/opencivic/agora/src/agora/types"
)

const userKey = "user"

// requestID tags every request so log lines from one call can be correlated.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// AuthRequired resolves the x-auth-token bearer into the calling user. The
// user row is loaded fresh so a deleted account or changed role takes effect
// immediately, not at token expiry.
func AuthRequired(db *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("x-auth-token")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing auth token"})
			return
		}
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid auth token"})
			return
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid auth token"})
			return
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid auth token"})
			return
		}
		user, err := data.GetUser(db, uint64(sub))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "unknown user"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) types.User {
	u, _ := c.Get(userKey)
	user, _ := u.(types.User)
	return user
}
