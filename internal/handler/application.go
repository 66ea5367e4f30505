package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewApplicationMgr)
}

type ApplicationMgr struct {
	name string
	db   *gorm.DB
}

func NewApplicationMgr(conf *RegisterConfig) Manager {
	return &ApplicationMgr{
		name: "application",
		db:   conf.DB,
	}
}

func (mgr *ApplicationMgr) GetName() string { return mgr.name }

func (mgr *ApplicationMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ApplicationMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/projects/:id/apply", mgr.Apply)
	g.GET("/applications", mgr.GetMyApplications)
	g.POST("/applications/:id/result", mgr.SubmitResult)
}

func (mgr *ApplicationMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("/applications", mgr.ListAllApplications)
	g.POST("/applications/:id/approve", mgr.Approve)
	g.POST("/applications/:id/reject", mgr.Reject)
}

type (
	ApplyReq struct {
		Date string `json:"date" binding:"required"` // chosen appointment date, YYYY.MM.DD
		Time string `json:"time"`                    // chosen appointment time, HH:MM
	}

	ApplicationResp struct {
		ID          uint                    `json:"id"`
		ProjectID   uint                    `json:"projectID"`
		ProjectName string                  `json:"projectName"`
		Date        string                  `json:"date"`
		Time        string                  `json:"time,omitempty"`
		Points      int                     `json:"points"`
		Status      model.ApplicationStatus `json:"status"`
		ResultURL   string                  `json:"resultUrl,omitempty"`
		CreatedAt   time.Time               `json:"createdAt"`
		Applicant   model.UserInfo          `json:"applicant"`
	}
)

// Apply creates a pending application for the caller with a snapshot of the
// project's title and reward. Nothing stops a user applying to the same
// project twice; repeat applications are separate records.
func (mgr *ApplicationMgr) Apply(c *gin.Context) {
	token := util.GetToken(c)

	var projectID ProjectIDReq
	if err := c.ShouldBindUri(&projectID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req ApplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if _, err := time.ParseInLocation(model.DateLayout, req.Date, time.Local); err != nil {
		resputil.BadRequestError(c, "date must be YYYY.MM.DD")
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, projectID.ID).Error; err != nil {
		resputil.Error(c, "project not found", resputil.NotFound)
		return
	}

	application := model.Application{
		UserID:      token.UserID,
		ProjectID:   project.ID,
		ProjectName: project.Title,
		Points:      project.Points,
		Date:        req.Date,
		Time:        req.Time,
		Status:      model.ApplicationStatusPending,
	}
	if err := mgr.db.WithContext(c).Create(&application).Error; err != nil {
		klog.Errorf("failed to create application, userID: %d, projectID: %d, err: %v", token.UserID, project.ID, err)
		resputil.Error(c, "failed to create application", resputil.NotSpecified)
		return
	}

	klog.Infof("application created, userID: %d, project: %s, date: %s", token.UserID, project.Title, req.Date)
	resputil.Success(c, convertToApplicationResp(&application, nil))
}

// GetMyApplications returns the caller's applications, newest first.
func (mgr *ApplicationMgr) GetMyApplications(c *gin.Context) {
	token := util.GetToken(c)
	if token.UserID == 0 {
		resputil.Error(c, "cannot get user id", resputil.NotSpecified)
		return
	}

	var applications []model.Application
	if err := mgr.db.WithContext(c).
		Where("user_id = ?", token.UserID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		klog.Errorf("failed to query applications, userID: %d, err: %v", token.UserID, err)
		resputil.Error(c, "failed to get my applications", resputil.NotSpecified)
		return
	}

	result := make([]ApplicationResp, 0, len(applications))
	for i := range applications {
		result = append(result, convertToApplicationResp(&applications[i], nil))
	}
	resputil.Success(c, result)
}

type (
	ApplicationIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}
	SubmitResultReq struct {
		URL string `json:"url" binding:"required"`
	}
)

// SubmitResult attaches the result URL to a pending application and moves it
// to submitted. Only the owner may submit, and only once.
func (mgr *ApplicationMgr) SubmitResult(c *gin.Context) {
	token := util.GetToken(c)

	var applicationID ApplicationIDReq
	if err := c.ShouldBindUri(&applicationID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req SubmitResultReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		resputil.BadRequestError(c, "url is required")
		return
	}

	var application model.Application
	if err := mgr.db.WithContext(c).First(&application, applicationID.ID).Error; err != nil {
		resputil.Error(c, "application not found", resputil.NotFound)
		return
	}
	if application.UserID != token.UserID {
		klog.Warningf("user attempted to submit a result for another user's application, userID: %d, applicationID: %d, ownerID: %d",
			token.UserID, application.ID, application.UserID)
		resputil.Error(c, "permission denied to submit for this application", resputil.UserNotAllowed)
		return
	}
	if application.Status != model.ApplicationStatusPending {
		resputil.Error(c, fmt.Sprintf("cannot submit a result from status %q", application.Status), resputil.InvalidTransition)
		return
	}

	application.Status = model.ApplicationStatusSubmitted
	application.ResultURL = strings.TrimSpace(req.URL)
	if err := mgr.db.WithContext(c).Save(&application).Error; err != nil {
		klog.Errorf("failed to submit result, applicationID: %d, err: %v", application.ID, err)
		resputil.Error(c, "failed to submit result", resputil.NotSpecified)
		return
	}

	resputil.Success(c, convertToApplicationResp(&application, nil))
}

// ListAllApplications returns the review queue. An optional status query
// narrows the listing; the admin console defaults to the submitted ones.
func (mgr *ApplicationMgr) ListAllApplications(c *gin.Context) {
	query := mgr.db.WithContext(c).Model(&model.Application{}).Preload("User")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var applications []model.Application
	if err := query.Order("created_at DESC").Find(&applications).Error; err != nil {
		klog.Errorf("failed to query all applications, err: %v", err)
		resputil.Error(c, "failed to list applications", resputil.NotSpecified)
		return
	}

	result := make([]ApplicationResp, 0, len(applications))
	for i := range applications {
		result = append(result, convertToApplicationResp(&applications[i], &applications[i].User))
	}
	resputil.Success(c, result)
}

// Approve moves a submitted application to approved and credits the owner:
// the snapshotted reward is added to the point balance and the contribution
// score grows by the fixed per-approval amount. Both writes and the status
// change commit atomically.
func (mgr *ApplicationMgr) Approve(c *gin.Context) {
	var applicationID ApplicationIDReq
	if err := c.ShouldBindUri(&applicationID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var application model.Application
	err := mgr.db.WithContext(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&application, applicationID.ID).Error; err != nil {
			return err
		}
		if application.Status != model.ApplicationStatusSubmitted {
			return fmt.Errorf("cannot approve from status %q", application.Status)
		}

		application.Status = model.ApplicationStatusApproved
		if err := tx.Save(&application).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", application.UserID).
			Updates(map[string]any{
				"points":       gorm.Expr("points + ?", application.Points),
				"contribution": gorm.Expr("contribution + ?", model.ContributionPerApproval),
			}).Error
	})
	if err != nil {
		klog.Errorf("failed to approve application, applicationID: %d, err: %v", applicationID.ID, err)
		resputil.Error(c, err.Error(), resputil.InvalidTransition)
		return
	}

	klog.Infof("application approved, applicationID: %d, userID: %d, points: %d", application.ID, application.UserID, application.Points)
	resputil.Success(c, convertToApplicationResp(&application, nil))
}

// Reject moves a submitted application to rejected. No balances change.
func (mgr *ApplicationMgr) Reject(c *gin.Context) {
	var applicationID ApplicationIDReq
	if err := c.ShouldBindUri(&applicationID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var application model.Application
	if err := mgr.db.WithContext(c).First(&application, applicationID.ID).Error; err != nil {
		resputil.Error(c, "application not found", resputil.NotFound)
		return
	}
	if application.Status != model.ApplicationStatusSubmitted {
		resputil.Error(c, fmt.Sprintf("cannot reject from status %q", application.Status), resputil.InvalidTransition)
		return
	}

	application.Status = model.ApplicationStatusRejected
	if err := mgr.db.WithContext(c).Save(&application).Error; err != nil {
		klog.Errorf("failed to reject application, applicationID: %d, err: %v", application.ID, err)
		resputil.Error(c, "failed to reject application", resputil.NotSpecified)
		return
	}

	resputil.Success(c, convertToApplicationResp(&application, nil))
}

func convertToApplicationResp(a *model.Application, applicant *model.User) ApplicationResp {
	resp := ApplicationResp{
		ID:          a.ID,
		ProjectID:   a.ProjectID,
		ProjectName: a.ProjectName,
		Date:        a.Date,
		Time:        a.Time,
		Points:      a.Points,
		Status:      a.Status,
		ResultURL:   a.ResultURL,
		CreatedAt:   a.CreatedAt,
	}
	if applicant != nil {
		resp.Applicant = model.UserInfo{
			ID:       applicant.ID,
			Username: applicant.Username,
			Nickname: applicant.Nickname,
		}
	}
	return resp
}
