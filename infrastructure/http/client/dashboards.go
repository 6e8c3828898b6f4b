package client

import (
	"context"
	"encoding/json"
	"net/url"
)

// CoachAPI wraps /coach/{coachID}/... The coach is identified by path and
// bearer token only.
type CoachAPI struct {
	client  *Client
	coachID string
}

func NewCoachAPI(c *Client, coachID string) *CoachAPI {
	return &CoachAPI{client: c, coachID: coachID}
}

func (a *CoachAPI) path(suffix string) string {
	return "/coach/" + url.PathEscape(a.coachID) + suffix
}

func (a *CoachAPI) raw(resp *Response, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

func (a *CoachAPI) Profile(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/profile"), nil))
}

func (a *CoachAPI) Teams(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/teams"), nil))
}

func (a *CoachAPI) Team(ctx context.Context, teamID string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/teams/"+url.PathEscape(teamID)), nil))
}

func (a *CoachAPI) CreateTeam(ctx context.Context, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Post(ctx, a.path("/teams"), data))
}

func (a *CoachAPI) TeamPlayers(ctx context.Context, teamID string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/teams/"+url.PathEscape(teamID)+"/players"), nil))
}

func (a *CoachAPI) AddTeamPlayer(ctx context.Context, teamID string, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Post(ctx, a.path("/teams/"+url.PathEscape(teamID)+"/players"), data))
}

func (a *CoachAPI) LeaveTeam(ctx context.Context, teamID string) error {
	_, err := a.client.Delete(ctx, a.path("/teams/"+url.PathEscape(teamID)+"/leave"))
	return err
}

func (a *CoachAPI) TeamHistory(ctx context.Context, teamID string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/teams/"+url.PathEscape(teamID)+"/history"), nil))
}

func (a *CoachAPI) TeamTournaments(ctx context.Context, teamID string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/teams/"+url.PathEscape(teamID)+"/tournaments"), nil))
}

func (a *CoachAPI) Users(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/users"), nil))
}

func (a *CoachAPI) PlayerGameAccounts(ctx context.Context, userID string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, a.path("/players/"+url.PathEscape(userID)+"/game-accounts"), nil))
}

// PlayerAPI wraps /players and /teams for the logged-in player.
type PlayerAPI struct {
	client *Client
}

func NewPlayerAPI(c *Client) *PlayerAPI {
	return &PlayerAPI{client: c}
}

func (a *PlayerAPI) raw(resp *Response, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

func (a *PlayerAPI) Dashboard(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/players/me", nil))
}

func (a *PlayerAPI) UpdateProfile(ctx context.Context, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Put(ctx, "/players/me/profile", data))
}

func (a *PlayerAPI) MyTeams(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/players/me/teams", nil))
}

func (a *PlayerAPI) MyGameAccounts(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/players/me/game-accounts", nil))
}

func (a *PlayerAPI) Player(ctx context.Context, userID string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/players/"+url.PathEscape(userID), nil))
}

func (a *PlayerAPI) PokemonTeams(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/teams/me", nil))
}

func (a *PlayerAPI) CreatePokemonTeam(ctx context.Context, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Post(ctx, "/teams/me", data))
}

func (a *PlayerAPI) PokemonTeam(ctx context.Context, teamID string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/teams/me/"+url.PathEscape(teamID), nil))
}

func (a *PlayerAPI) UpdatePokemonTeam(ctx context.Context, teamID string, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Put(ctx, "/teams/me/"+url.PathEscape(teamID), data))
}

func (a *PlayerAPI) DeletePokemonTeam(ctx context.Context, teamID string) error {
	_, err := a.client.Delete(ctx, "/teams/me/"+url.PathEscape(teamID))
	return err
}
