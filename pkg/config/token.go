package config

import "os"

type TokenConf struct {
	AccessTokenExpiryHour  int
	RefreshTokenExpiryHour int
	AccessTokenSecret      string
	RefreshTokenSecret     string
}

func NewTokenConf() *TokenConf {
	cfg := GetConfig()
	accessSecret := cfg.Auth.AccessTokenSecret
	if accessSecret == "" {
		accessSecret = os.Getenv("KOC_ACCESS_TOKEN_SECRET")
	}
	refreshSecret := cfg.Auth.RefreshTokenSecret
	if refreshSecret == "" {
		refreshSecret = os.Getenv("KOC_REFRESH_TOKEN_SECRET")
	}
	return &TokenConf{
		AccessTokenExpiryHour:  1,
		RefreshTokenExpiryHour: 168,
		AccessTokenSecret:      accessSecret,
		RefreshTokenSecret:     refreshSecret,
	}
}
