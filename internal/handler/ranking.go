package handler

import (
	"sort"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewRankingMgr)
}

type RankingMgr struct {
	name string
	db   *gorm.DB
}

func NewRankingMgr(conf *RegisterConfig) Manager {
	return &RankingMgr{
		name: "ranking",
		db:   conf.DB,
	}
}

func (mgr *RankingMgr) GetName() string { return mgr.name }

func (mgr *RankingMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("/ranking", mgr.GetRanking)
}

func (mgr *RankingMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *RankingMgr) RegisterAdmin(_ *gin.RouterGroup) {}

const rankingSize = 10

type RankingEntry struct {
	Rank          int    `json:"rank"`
	Nickname      string `json:"nickname"`
	Region        string `json:"region,omitempty"`
	Contribution  int    `json:"contribution"`
	ApprovedCases int    `json:"approvedCases"`
}

// GetRanking returns the top ten members by contribution. Ties keep
// registration order, and the approved-case count is recovered from the
// contribution score since every approval grants the same fixed amount.
func (mgr *RankingMgr) GetRanking(c *gin.Context) {
	var users []model.User
	if err := mgr.db.WithContext(c).Order("id ASC").Find(&users).Error; err != nil {
		klog.Errorf("failed to load users for ranking: %v", err)
		resputil.Error(c, "failed to compute ranking", resputil.NotSpecified)
		return
	}

	resputil.Success(c, rankUsers(users))
}

// rankUsers sorts by contribution descending, stable over the incoming
// registration order, and returns at most the top ten entries.
func rankUsers(users []model.User) []RankingEntry {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Contribution > users[j].Contribution
	})
	if len(users) > rankingSize {
		users = users[:rankingSize]
	}

	entries := make([]RankingEntry, 0, len(users))
	for i := range users {
		entries = append(entries, RankingEntry{
			Rank:          i + 1,
			Nickname:      users[i].Nickname,
			Region:        users[i].Region,
			Contribution:  users[i].Contribution,
			ApprovedCases: users[i].Contribution / model.ContributionPerApproval,
		})
	}
	return entries
}
