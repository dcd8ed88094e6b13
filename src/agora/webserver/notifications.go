package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/data"
	"github.com/opencivic/agora/src/agora/policy"
	"github.com/opencivic/agora/src/agora/types"
)

type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) Notifications { return Notifications{db: db} }

func (h Notifications) List(c *gin.Context) {
	list, err := data.Notifications(h.db, currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Notifications) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := data.GetNotification(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !policy.CanMarkNotificationRead(currentUser(c), n) {
		fail(c, types.ErrForbidden)
		return
	}
	updated, err := data.MarkRead(h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
