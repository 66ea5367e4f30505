package handler

import (
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name string
	db   *gorm.DB
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name: "project",
		db:   conf.DB,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("/projects", mgr.ListProjects)
	g.GET("/projects/:id", mgr.GetProject)
}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/projects/:id/favorite", mgr.ToggleFavorite)
}

func (mgr *ProjectMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("/projects", mgr.CreateProject)
}

const (
	ProjectSortPoints   = "points"
	ProjectSortDeadline = "deadline"
	ProjectSortRegion   = "region"
)

type (
	ProjectListQuery struct {
		Category string `form:"category,default=all"`
		Region   string `form:"region,default=all"`
		Sort     string `form:"sort,default=points"`
	}

	ProjectResp struct {
		ID            uint           `json:"id"`
		Category      model.Category `json:"category"`
		CategoryLabel string         `json:"categoryLabel"`
		Title         string         `json:"title"`
		Location      string         `json:"location"`
		Description   string         `json:"description"`
		Points        int            `json:"points"`
		Deadline      string         `json:"deadline,omitempty"`
		Image         string         `json:"image,omitempty"`
		IsFavorite    bool           `json:"isFavorite"`
	}
)

// ListProjects returns the catalog filtered by category and region and
// ordered by the requested sort. For an authenticated caller the favorited
// projects are moved to the front without disturbing the sorted order.
func (mgr *ProjectMgr) ListProjects(c *gin.Context) {
	var req ProjectListQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.Category != "all" && !model.Category(req.Category).Valid() {
		resputil.BadRequestError(c, "unknown category: "+req.Category)
		return
	}

	query := mgr.db.WithContext(c).Model(&model.Project{})
	if req.Category != "all" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Region != "all" && req.Region != "" {
		query = query.Where("location LIKE ?", "%"+req.Region+"%")
	}

	var projects []model.Project
	if err := query.Find(&projects).Error; err != nil {
		klog.Errorf("failed to list projects: %v", err)
		resputil.Error(c, "failed to list projects", resputil.NotSpecified)
		return
	}

	sortProjects(projects, req.Sort)

	favorites := mgr.favoriteSet(c)
	ordered := partitionFavorites(projects, favorites)

	result := lo.Map(ordered, func(p model.Project, _ int) ProjectResp {
		return convertToProjectResp(&p, favorites[p.ID])
	})
	resputil.Success(c, result)
}

type ProjectIDReq struct {
	ID uint `uri:"id" binding:"required"`
}

func (mgr *ProjectMgr) GetProject(c *gin.Context) {
	var projectID ProjectIDReq
	if err := c.ShouldBindUri(&projectID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, projectID.ID).Error; err != nil {
		resputil.Error(c, "project not found", resputil.NotFound)
		return
	}

	favorites := mgr.favoriteSet(c)
	resputil.Success(c, convertToProjectResp(&project, favorites[project.ID]))
}

// ToggleFavorite flips the caller's star on a project. The star is a
// per-user relation, never shared between viewers.
func (mgr *ProjectMgr) ToggleFavorite(c *gin.Context) {
	token := util.GetToken(c)

	var projectID ProjectIDReq
	if err := c.ShouldBindUri(&projectID); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, projectID.ID).Error; err != nil {
		resputil.Error(c, "project not found", resputil.NotFound)
		return
	}

	var favorite model.Favorite
	err := mgr.db.WithContext(c).
		Where("user_id = ? AND project_id = ?", token.UserID, project.ID).
		First(&favorite).Error
	switch {
	case err == nil:
		if err := mgr.db.WithContext(c).Unscoped().Delete(&favorite).Error; err != nil {
			resputil.Error(c, "failed to unfavorite project", resputil.NotSpecified)
			return
		}
		resputil.Success(c, convertToProjectResp(&project, false))
	case err == gorm.ErrRecordNotFound:
		favorite = model.Favorite{UserID: token.UserID, ProjectID: project.ID}
		if err := mgr.db.WithContext(c).Create(&favorite).Error; err != nil {
			resputil.Error(c, "failed to favorite project", resputil.NotSpecified)
			return
		}
		resputil.Success(c, convertToProjectResp(&project, true))
	default:
		resputil.Error(c, err.Error(), resputil.NotSpecified)
	}
}

type CreateProjectReq struct {
	Category    model.Category `json:"category" binding:"required"`
	Title       string         `json:"title" binding:"required"`
	Location    string         `json:"location" binding:"required"`
	Description string         `json:"description"`
	Points      int            `json:"points" binding:"required"`
	Deadline    string         `json:"deadline"`
	Image       string         `json:"image"`
}

// CreateProject registers a new campaign from the admin console form.
func (mgr *ProjectMgr) CreateProject(c *gin.Context) {
	var req CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if !req.Category.Valid() {
		resputil.BadRequestError(c, "unknown category: "+string(req.Category))
		return
	}
	if req.Deadline != "" {
		if _, err := time.ParseInLocation(model.DateLayout, req.Deadline, time.Local); err != nil {
			resputil.BadRequestError(c, "deadline must be YYYY.MM.DD")
			return
		}
	}

	project := model.Project{
		Category:    req.Category,
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
		Points:      req.Points,
		Deadline:    req.Deadline,
		Image:       req.Image,
	}
	if err := mgr.db.WithContext(c).Create(&project).Error; err != nil {
		klog.Errorf("failed to create project, title: %s, err: %v", req.Title, err)
		resputil.Error(c, "failed to create project", resputil.NotSpecified)
		return
	}
	resputil.Success(c, convertToProjectResp(&project, false))
}

// favoriteSet returns the set of project IDs the caller has starred; empty
// for anonymous callers.
func (mgr *ProjectMgr) favoriteSet(c *gin.Context) map[uint]bool {
	token := util.GetToken(c)
	if token.UserID == 0 {
		return map[uint]bool{}
	}

	var favorites []model.Favorite
	if err := mgr.db.WithContext(c).Where("user_id = ?", token.UserID).Find(&favorites).Error; err != nil {
		klog.Warningf("failed to load favorites, userID: %d, err: %v", token.UserID, err)
		return map[uint]bool{}
	}
	return lo.SliceToMap(favorites, func(f model.Favorite) (uint, bool) { return f.ProjectID, true })
}

// sortProjects orders the catalog in place. Points sorts descending,
// deadline ascending chronologically with records missing a deadline keeping
// their relative order, region lexicographically on the location.
func sortProjects(projects []model.Project, sortKey string) {
	switch sortKey {
	case ProjectSortDeadline:
		sort.SliceStable(projects, func(i, j int) bool {
			a, okA := parseDeadline(projects[i].Deadline)
			b, okB := parseDeadline(projects[j].Deadline)
			if !okA || !okB {
				return false
			}
			return a.Before(b)
		})
	case ProjectSortRegion:
		sort.SliceStable(projects, func(i, j int) bool {
			return projects[i].Location < projects[j].Location
		})
	default:
		sort.SliceStable(projects, func(i, j int) bool {
			return projects[i].Points > projects[j].Points
		})
	}
}

func parseDeadline(deadline string) (time.Time, bool) {
	if deadline == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(model.DateLayout, deadline, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// partitionFavorites surfaces favorited projects before the rest while
// preserving the existing order inside both halves.
func partitionFavorites(projects []model.Project, favorites map[uint]bool) []model.Project {
	if len(favorites) == 0 {
		return projects
	}
	starred := lo.Filter(projects, func(p model.Project, _ int) bool { return favorites[p.ID] })
	rest := lo.Filter(projects, func(p model.Project, _ int) bool { return !favorites[p.ID] })
	return append(starred, rest...)
}

func convertToProjectResp(p *model.Project, isFavorite bool) ProjectResp {
	return ProjectResp{
		ID:            p.ID,
		Category:      p.Category,
		CategoryLabel: p.Category.Label(),
		Title:         p.Title,
		Location:      p.Location,
		Description:   p.Description,
		Points:        p.Points,
		Deadline:      p.Deadline,
		Image:         p.Image,
		IsFavorite:    isFavorite,
	}
}
