package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name string
	db   *gorm.DB
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name: "user",
		db:   conf.DB,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/context", mgr.GetContext)
	g.PUT("/context/attributes", mgr.UpdateAttributes)
}

func (mgr *UserMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type UserContextResp struct {
	UserID        uint                `json:"userID"`
	Username      string              `json:"username"`
	Nickname      string              `json:"nickname"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Platforms     []string            `json:"platforms"`
	Region        string              `json:"region"`
	Role          model.Role          `json:"role"`
	Points        int                 `json:"points"`
	Contribution  int                 `json:"contribution"`
	ApprovedCases int                 `json:"approvedCases"`
	Rank          int                 `json:"rank"` // 0 when outside the displayed ranking
	Applications  int64               `json:"applications"`
	Favorites     int64               `json:"favorites"`
	Attributes    model.UserAttribute `json:"attributes"`
}

// GetContext returns the caller's my-page view: profile, balances, the
// derived approved-case count and current ranking position, and activity
// totals.
func (mgr *UserMgr) GetContext(c *gin.Context) {
	token := util.GetToken(c)

	var user model.User
	if err := mgr.db.WithContext(c).First(&user, token.UserID).Error; err != nil {
		resputil.Error(c, "user not found", resputil.UserNotFound)
		return
	}

	var applicationCount, favoriteCount int64
	if err := mgr.db.WithContext(c).Model(&model.Application{}).
		Where("user_id = ?", user.ID).Count(&applicationCount).Error; err != nil {
		klog.Warningf("failed to count applications, userID: %d, err: %v", user.ID, err)
	}
	if err := mgr.db.WithContext(c).Model(&model.Favorite{}).
		Where("user_id = ?", user.ID).Count(&favoriteCount).Error; err != nil {
		klog.Warningf("failed to count favorites, userID: %d, err: %v", user.ID, err)
	}

	var users []model.User
	rank := 0
	if err := mgr.db.WithContext(c).Order("id ASC").Find(&users).Error; err == nil {
		for i, entry := range rankUsers(users) {
			if entry.Nickname == user.Nickname {
				rank = i + 1
				break
			}
		}
	}

	resputil.Success(c, UserContextResp{
		UserID:        user.ID,
		Username:      user.Username,
		Nickname:      user.Nickname,
		Name:          user.Name,
		Email:         user.Email,
		Phone:         user.Phone,
		Platforms:     user.Platforms,
		Region:        user.Region,
		Role:          user.Role,
		Points:        user.Points,
		Contribution:  user.Contribution,
		ApprovedCases: user.Contribution / model.ContributionPerApproval,
		Rank:          rank,
		Applications:  applicationCount,
		Favorites:     favoriteCount,
		Attributes:    user.Attributes.Data(),
	})
}

type UpdateAttributesReq struct {
	Language string `json:"language"`
}

// UpdateAttributes stores the caller's preferences blob.
func (mgr *UserMgr) UpdateAttributes(c *gin.Context) {
	token := util.GetToken(c)

	var req UpdateAttributesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	attributes := datatypes.NewJSONType(model.UserAttribute{Language: req.Language})
	if err := mgr.db.WithContext(c).Model(&model.User{}).
		Where("id = ?", token.UserID).
		Update("attributes", attributes).Error; err != nil {
		klog.Errorf("failed to update attributes, userID: %d, err: %v", token.UserID, err)
		resputil.Error(c, "failed to update attributes", resputil.NotSpecified)
		return
	}
	resputil.Success(c, model.UserAttribute{Language: req.Language})
}
