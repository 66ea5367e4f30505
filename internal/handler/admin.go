package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/pkg/backup"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAdminMgr)
}

type AdminMgr struct {
	name string
	db   *gorm.DB
}

func NewAdminMgr(conf *RegisterConfig) Manager {
	return &AdminMgr{
		name: "admin",
		db:   conf.DB,
	}
}

func (mgr *AdminMgr) GetName() string { return mgr.name }

func (mgr *AdminMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *AdminMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AdminMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("/users", mgr.ListUsers)
	g.POST("/users/:id/deduct", mgr.DeductPoints)
	g.GET("/statistics", mgr.GetStatistics)
	g.GET("/export", mgr.Export)
}

type AdminUserResp struct {
	ID           uint       `json:"id"`
	Username     string     `json:"username"`
	Nickname     string     `json:"nickname"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Region       string     `json:"region"`
	Role         model.Role `json:"role"`
	Points       int        `json:"points"`
	Contribution int        `json:"contribution"`
}

// ListUsers returns the member roster for the admin console.
func (mgr *AdminMgr) ListUsers(c *gin.Context) {
	var users []model.User
	if err := mgr.db.WithContext(c).Order("id ASC").Find(&users).Error; err != nil {
		klog.Errorf("failed to list users: %v", err)
		resputil.Error(c, "failed to list users", resputil.NotSpecified)
		return
	}

	resputil.Success(c, lo.Map(users, func(u model.User, _ int) AdminUserResp {
		return AdminUserResp{
			ID:           u.ID,
			Username:     u.Username,
			Nickname:     u.Nickname,
			Name:         u.Name,
			Email:        u.Email,
			Phone:        u.Phone,
			Region:       u.Region,
			Role:         u.Role,
			Points:       u.Points,
			Contribution: u.Contribution,
		}
	}))
}

type (
	UserIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}
	DeductReq struct {
		Amount int `json:"amount"`
	}
	DeductResp struct {
		UserID   uint `json:"userID"`
		Deducted int  `json:"deducted"`
		Points   int  `json:"points"`
	}
)

// DeductPoints removes points from a member's balance. The amount must not
// be negative and the resulting balance clamps at zero instead of going
// below it.
func (mgr *AdminMgr) DeductPoints(c *gin.Context) {
	var userID UserIDReq
	if err := c.ShouldBindUri(&userID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req DeductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.Amount < 0 {
		resputil.BadRequestError(c, "amount must not be negative")
		return
	}

	var user model.User
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID.ID).Error; err != nil {
			return err
		}
		user.Points -= req.Amount
		if user.Points < 0 {
			user.Points = 0
		}
		return tx.Model(&user).Update("points", user.Points).Error
	})
	if err != nil {
		klog.Errorf("failed to deduct points, userID: %d, amount: %d, err: %v", userID.ID, req.Amount, err)
		resputil.Error(c, "failed to deduct points", resputil.NotSpecified)
		return
	}

	klog.Infof("points deducted, userID: %d, amount: %d, balance: %d", user.ID, req.Amount, user.Points)
	resputil.Success(c, DeductResp{UserID: user.ID, Deducted: req.Amount, Points: user.Points})
}

type StatisticsResp struct {
	TotalUsers    int64   `json:"totalUsers"`
	TotalProjects int64   `json:"totalProjects"`
	Revenue       float64 `json:"revenue"`
}

// GetStatistics returns the admin dashboard figures. Revenue is a display
// heuristic, ten percent of the sum of all point balances.
func (mgr *AdminMgr) GetStatistics(c *gin.Context) {
	var resp StatisticsResp
	if err := mgr.db.WithContext(c).Model(&model.User{}).Count(&resp.TotalUsers).Error; err != nil {
		resputil.Error(c, "failed to count users", resputil.NotSpecified)
		return
	}
	if err := mgr.db.WithContext(c).Model(&model.Project{}).Count(&resp.TotalProjects).Error; err != nil {
		resputil.Error(c, "failed to count projects", resputil.NotSpecified)
		return
	}

	var pointsSum int64
	if err := mgr.db.WithContext(c).Model(&model.User{}).
		Select("COALESCE(SUM(points), 0)").Scan(&pointsSum).Error; err != nil {
		resputil.Error(c, "failed to sum points", resputil.NotSpecified)
		return
	}
	resp.Revenue = float64(pointsSum) * 0.1

	resputil.Success(c, resp)
}

// Export streams a full JSON snapshot of the system as a download. The dump
// is a one-way backup document, not an interchange format anything imports.
func (mgr *AdminMgr) Export(c *gin.Context) {
	snapshot, err := backup.BuildSnapshot(c, mgr.db)
	if err != nil {
		klog.Errorf("failed to build export snapshot: %v", err)
		resputil.Error(c, "failed to export data", resputil.NotSpecified)
		return
	}

	filename := fmt.Sprintf("koc-export-%s.json", snapshot.TakenAt.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, snapshot)
}
