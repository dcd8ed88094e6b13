package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencivic/agora/src/agora/types"
)

type Analytics struct {
	db *gorm.DB
}

func NewAnalytics(db *gorm.DB) Analytics { return Analytics{db: db} }

// Summary aggregates platform-wide counts for the dashboard.
func (h Analytics) Summary(c *gin.Context) {
	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	if err := h.db.Model(&types.Petition{}).
		Select("status as `key`, count(*) as count").
		Group("status").Scan(&byStatus).Error; err != nil {
		fail(c, err)
		return
	}

	var byCategory []bucket
	if err := h.db.Model(&types.Petition{}).
		Select("category as `key`, count(*) as count").
		Group("category").Scan(&byCategory).Error; err != nil {
		fail(c, err)
		return
	}

	var totalSignatures int64
	if err := h.db.Model(&types.Signature{}).Count(&totalSignatures).Error; err != nil {
		fail(c, err)
		return
	}
	var totalPolls int64
	if err := h.db.Model(&types.Poll{}).Count(&totalPolls).Error; err != nil {
		fail(c, err)
		return
	}
	var totalBallots int64
	if err := h.db.Model(&types.PollVoter{}).Count(&totalBallots).Error; err != nil {
		fail(c, err)
		return
	}

	status := map[string]int64{}
	for _, b := range byStatus {
		status[b.Key] = b.Count
	}
	category := map[string]int64{}
	for _, b := range byCategory {
		category[b.Key] = b.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"petitionsByStatus":   status,
		"petitionsByCategory": category,
		"totalSignatures":     totalSignatures,
		"totalPolls":          totalPolls,
		"totalBallots":        totalBallots,
	})
}
