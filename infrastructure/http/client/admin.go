package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// AdminAPI wraps the /admin endpoints. Payloads and results are opaque JSON.
type AdminAPI struct {
	client *Client
}

func NewAdminAPI(c *Client) *AdminAPI {
	return &AdminAPI{client: c}
}

func (a *AdminAPI) raw(resp *Response, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

// Tournaments

func (a *AdminAPI) ListTournaments(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/admin/tournaments", nil))
}

func (a *AdminAPI) GetTournament(ctx context.Context, id string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/admin/tournaments/"+url.PathEscape(id), nil))
}

func (a *AdminAPI) CreateTournament(ctx context.Context, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Post(ctx, "/admin/tournaments", data))
}

func (a *AdminAPI) UpdateTournament(ctx context.Context, id string, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Put(ctx, "/admin/tournaments/"+url.PathEscape(id), data))
}

func (a *AdminAPI) DeleteTournament(ctx context.Context, id string) error {
	_, err := a.client.Delete(ctx, "/admin/tournaments/"+url.PathEscape(id))
	return err
}

// EndTournament closes a tournament without deleting it.
func (a *AdminAPI) EndTournament(ctx context.Context, id string) error {
	_, err := a.client.Delete(ctx, "/admin/tournaments/end/"+url.PathEscape(id))
	return err
}

// Teams

func (a *AdminAPI) ListTeams(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/admin/teams/", nil))
}

func (a *AdminAPI) GetTeam(ctx context.Context, id string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/admin/teams/"+url.PathEscape(id), nil))
}

func (a *AdminAPI) UpdateTeam(ctx context.Context, id string, data interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Put(ctx, "/admin/teams/"+url.PathEscape(id), data))
}

// DeactivateTeam is a soft delete on the backend.
func (a *AdminAPI) DeactivateTeam(ctx context.Context, id string) error {
	_, err := a.client.Delete(ctx, "/admin/teams/"+url.PathEscape(id))
	return err
}

// AddTeamMember sends the member as query parameters, not a body.
func (a *AdminAPI) AddTeamMember(ctx context.Context, teamID, userID, role string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("user_id_to_add", userID)
	if role != "" {
		query.Set("role", role)
	}
	return a.raw(a.client.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/admin/teams/" + url.PathEscape(teamID) + "/members",
		Query:  query,
	}))
}

func (a *AdminAPI) RemoveTeamMember(ctx context.Context, teamID, memberID string) error {
	_, err := a.client.Delete(ctx, "/admin/teams/"+url.PathEscape(teamID)+"/members/"+url.PathEscape(memberID))
	return err
}

// Registrations

func (a *AdminAPI) ListRegistrations(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/admin/registrations/", nil))
}

func (a *AdminAPI) ReviewRegistration(ctx context.Context, participantID string, payload interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Put(ctx, "/admin/registrations/"+url.PathEscape(participantID)+"/review", payload))
}

func (a *AdminAPI) ChangeParticipantStatus(ctx context.Context, participantID string, payload interface{}) (json.RawMessage, error) {
	return a.raw(a.client.Put(ctx, "/admin/registrations/participants/"+url.PathEscape(participantID)+"/status", payload))
}

// Players

func (a *AdminAPI) ListPlayers(ctx context.Context) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/admin/players/", nil))
}

func (a *AdminAPI) GetPlayer(ctx context.Context, id string) (json.RawMessage, error) {
	return a.raw(a.client.Get(ctx, "/admin/players/"+url.PathEscape(id), nil))
}
