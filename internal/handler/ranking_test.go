package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbm9960-auto/koc-management/dao/model"
)

func TestRankUsersOrderAndTies(t *testing.T) {
	users := []model.User{
		{Model: withID(1), Nickname: "first", Contribution: 100},
		{Model: withID(2), Nickname: "second", Contribution: 250},
		{Model: withID(3), Nickname: "third", Contribution: 100},
		{Model: withID(4), Nickname: "fourth", Contribution: 0},
	}

	entries := rankUsers(users)
	require.Len(t, entries, 4)
	// Ties keep registration order: "first" registered before "third".
	assert.Equal(t, []string{"second", "first", "third", "fourth"},
		lo.Map(entries, func(e RankingEntry, _ int) string { return e.Nickname }))
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 5, entries[0].ApprovedCases)
	assert.Equal(t, 2, entries[1].ApprovedCases)
	assert.Zero(t, entries[3].ApprovedCases)
}

func TestRankUsersTopTen(t *testing.T) {
	users := make([]model.User, 14)
	for i := range users {
		users[i] = model.User{
			Model:        withID(uint(i + 1)),
			Nickname:     fmt.Sprintf("user-%02d", i),
			Contribution: i * model.ContributionPerApproval,
		}
	}

	entries := rankUsers(users)
	require.Len(t, entries, rankingSize)
	assert.Equal(t, "user-13", entries[0].Nickname)
	assert.Equal(t, 13, entries[0].ApprovedCases)
	assert.Equal(t, "user-04", entries[rankingSize-1].Nickname)
}

func TestGetRankingEndpoint(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, &model.User{Username: "alice", Nickname: "앨리스", Contribution: 150, Role: model.RoleUser})
	createUser(t, db, &model.User{Username: "bob", Nickname: "밥", Contribution: 300, Role: model.RoleUser})

	mgr := &RankingMgr{name: "ranking", db: db}
	router := newTestRouter(mgr, nil)

	var entries []RankingEntry
	requireOK(t, doRequest(t, router, http.MethodGet, "/v1/ranking", nil), &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "밥", entries[0].Nickname)
	assert.Equal(t, 6, entries[0].ApprovedCases)
	assert.Equal(t, 2, entries[1].Rank)
}
