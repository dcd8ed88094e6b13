package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/data"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) Users { return Users{db: db} }

func (h Users) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// DeleteMe removes the account and everything it owns. Signatures and poll
// ballots the user left on other aggregates are stripped; poll tallies stay
// as cast.
func (h Users) DeleteMe(c *gin.Context) {
	user := currentUser(c)
	if err := data.DeleteAccount(h.db, user.ID); err != nil {
		fail(c, err)
		return
	}
	log.Printf("users: account %d deleted", user.ID)
	c.JSON(http.StatusOK, gin.H{"msg": "account deleted"})
}
