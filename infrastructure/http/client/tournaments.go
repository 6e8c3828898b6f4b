package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// TournamentAPI wraps /tournaments. Tournament bodies stay opaque apart from
// "images", which the backend may send as a JSON-encoded string.
type TournamentAPI struct {
	client *Client
}

func NewTournamentAPI(c *Client) *TournamentAPI {
	return &TournamentAPI{client: c}
}

func (t *TournamentAPI) List(ctx context.Context) ([]json.RawMessage, error) {
	resp, err := t.client.Get(ctx, "/tournaments", nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		normalized, err := NormalizeImages(item)
		if err != nil {
			return nil, err
		}
		out = append(out, normalized)
	}
	return out, nil
}

func (t *TournamentAPI) Get(ctx context.Context, id string) (json.RawMessage, error) {
	resp, err := t.client.Get(ctx, "/tournaments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return NormalizeImages(json.RawMessage("{}"))
	}
	return NormalizeImages(resp.Body)
}

func (t *TournamentAPI) Create(ctx context.Context, data interface{}) (json.RawMessage, error) {
	resp, err := t.client.Post(ctx, "/tournaments", data)
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

func (t *TournamentAPI) Update(ctx context.Context, id string, data interface{}) (json.RawMessage, error) {
	resp, err := t.client.Put(ctx, "/tournaments/"+url.PathEscape(id), data)
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

func (t *TournamentAPI) Delete(ctx context.Context, id string) error {
	_, err := t.client.Delete(ctx, "/tournaments/"+url.PathEscape(id))
	return err
}

// RegisterTeam enters teamID into the tournament as a pending participant.
func (t *TournamentAPI) RegisterTeam(ctx context.Context, tournamentID, teamID string) (json.RawMessage, error) {
	resp, err := t.client.Post(ctx, "/tournaments/"+url.PathEscape(tournamentID)+"/register", map[string]string{
		"team_id": teamID,
	})
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

func (t *TournamentAPI) EligibleTeams(ctx context.Context, tournamentID, coachID string) (json.RawMessage, error) {
	resp, err := t.client.Get(ctx, "/tournaments/"+url.PathEscape(tournamentID)+"/coach/"+url.PathEscape(coachID)+"/eligible-teams", nil)
	if err != nil {
		return nil, err
	}
	return resp.Raw(), nil
}

// NormalizeImages rewrites the "images" field of a tournament object to a
// JSON array. A string is parsed as a JSON array, and anything unparseable
// or missing becomes []. Other fields pass through unchanged.
func NormalizeImages(raw json.RawMessage) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode tournament: %w", err)
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage)
	}

	obj["images"] = normalizeImageField(obj["images"])

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tournament: %w", err)
	}
	return out, nil
}

var emptyImages = json.RawMessage("[]")

func normalizeImageField(field json.RawMessage) json.RawMessage {
	if len(field) == 0 || string(field) == "null" {
		return emptyImages
	}

	var encoded string
	if err := json.Unmarshal(field, &encoded); err != nil {
		// Already structured.
		return field
	}
	if encoded == "" {
		return emptyImages
	}

	var images []string
	if err := json.Unmarshal([]byte(encoded), &images); err != nil || images == nil {
		return emptyImages
	}
	out, err := json.Marshal(images)
	if err != nil {
		return emptyImages
	}
	return out
}
