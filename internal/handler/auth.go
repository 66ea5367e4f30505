package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/sbm9960-auto/koc-management/dao/model"
	"github.com/sbm9960-auto/koc-management/internal/resputil"
	"github.com/sbm9960-auto/koc-management/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name     string
	db       *gorm.DB
	tokenMgr *util.TokenManager
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:     "auth",
		db:       conf.DB,
		tokenMgr: conf.TokenMgr,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/login", mgr.Login)
	g.POST("/signup", mgr.Signup)
	g.POST("/refresh", mgr.RefreshToken)
	g.GET("/nickname/check", mgr.CheckNickname)
}

func (mgr *AuthMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	LoginReq struct {
		Username string `json:"username" binding:"required"`
		// The password is collected for form parity but is not verified
		// against the stored hash; membership of the username is the whole
		// login check. Known gap inherited from the product's prototype
		// stage, kept until a credential policy is decided.
		Password string `json:"password"`
	}

	LoginResp struct {
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
		Context      UserContext `json:"context"`
	}

	UserContext struct {
		UserID       uint       `json:"userID"`
		Username     string     `json:"username"`
		Nickname     string     `json:"nickname"`
		Role         model.Role `json:"role"`
		Points       int        `json:"points"`
		Contribution int        `json:"contribution"`
	}
)

// Login checks that the username exists and issues JWT tokens for it.
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var user model.User
	if err := mgr.db.WithContext(c).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			resputil.HTTPError(c, http.StatusUnauthorized, "존재하지 않는 아이디입니다.", resputil.UserNotFound)
			return
		}
		klog.Errorf("login query failed, username: %s, err: %v", req.Username, err)
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	mgr.respondWithTokens(c, &user)
}

type SignupReq struct {
	Username  string   `json:"username" binding:"required"`
	Nickname  string   `json:"nickname" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	Password  string   `json:"password" binding:"required"`
	Email     string   `json:"email" binding:"required"`
	Phone     string   `json:"phone" binding:"required"`
	Platforms []string `json:"platforms"`
	Region    string   `json:"region" binding:"required"`
}

// Signup registers a new member with zero balances and immediately
// establishes a session for it (auto-login).
func (mgr *AuthMgr) Signup(c *gin.Context) {
	var req SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var count int64
	if err := mgr.db.WithContext(c).Model(&model.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if count > 0 {
		resputil.Error(c, "이미 존재하는 아이디입니다.", resputil.DuplicateUsername)
		return
	}
	if err := mgr.db.WithContext(c).Model(&model.User{}).Where("nickname = ?", req.Nickname).Count(&count).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	if count > 0 {
		resputil.Error(c, "이미 사용 중인 닉네임입니다.", resputil.DuplicateNickname)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		klog.Errorf("failed to hash password: %v", err)
		resputil.Error(c, "failed to create user", resputil.NotSpecified)
		return
	}
	hashStr := string(hash)

	user := model.User{
		Username:  req.Username,
		Nickname:  req.Nickname,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  &hashStr,
		Platforms: req.Platforms,
		Region:    req.Region,
		Role:      model.RoleUser,
	}
	if err := mgr.db.WithContext(c).Create(&user).Error; err != nil {
		klog.Errorf("failed to create user, username: %s, err: %v", req.Username, err)
		resputil.Error(c, "failed to create user", resputil.NotSpecified)
		return
	}

	mgr.respondWithTokens(c, &user)
}

type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (mgr *AuthMgr) RefreshToken(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	msg, err := mgr.tokenMgr.CheckToken(req.RefreshToken)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid token", resputil.TokenExpired)
		return
	}

	// Refresh against the stored record so revoked users drop out and
	// role/nickname changes propagate into the new tokens.
	var user model.User
	if err := mgr.db.WithContext(c).First(&user, msg.UserID).Error; err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "User not found", resputil.UserNotFound)
		return
	}

	mgr.respondWithTokens(c, &user)
}

type NicknameCheckResp struct {
	Nickname  string `json:"nickname"`
	Available bool   `json:"available"`
}

// CheckNickname is the advisory uniqueness probe behind the signup form's
// duplicate-check button. The hard check still happens at submission.
func (mgr *AuthMgr) CheckNickname(c *gin.Context) {
	nickname := c.Query("nickname")
	if nickname == "" {
		resputil.BadRequestError(c, "nickname is required")
		return
	}

	var count int64
	if err := mgr.db.WithContext(c).Model(&model.User{}).Where("nickname = ?", nickname).Count(&count).Error; err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, NicknameCheckResp{Nickname: nickname, Available: count == 0})
}

func (mgr *AuthMgr) respondWithTokens(c *gin.Context, user *model.User) {
	jwtMessage := util.JWTMessage{
		UserID:   user.ID,
		Username: user.Username,
		Nickname: user.Nickname,
		Role:     user.Role,
	}
	accessToken, refreshToken, err := mgr.tokenMgr.CreateTokens(&jwtMessage)
	if err != nil {
		resputil.HTTPError(c, http.StatusInternalServerError, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, LoginResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Context: UserContext{
			UserID:       user.ID,
			Username:     user.Username,
			Nickname:     user.Nickname,
			Role:         user.Role,
			Points:       user.Points,
			Contribution: user.Contribution,
		},
	})
}
