package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kirinyoku/courtbook/internal/domain"
)

// Campuses lists every campus offering reservable facilities.
func (c *Client) Campuses(ctx context.Context) ([]domain.Campus, error) {
	const op = "remote.Client.Campuses"

	status, body, err := c.call(ctx, op, http.MethodGet, pathCampuses, nil)
	if err != nil {
		return nil, err
	}

	if !isSuccess(status) {
		return nil, statusError(op, status, body)
	}

	env, err := checkEnvelope(op, body)
	if err != nil {
		return nil, err
	}

	var records []campusRecord
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, &domain.ValidationError{Op: op, StatusCode: status, Reason: "malformed campus list: " + err.Error()}
		}
	}

	out := make([]domain.Campus, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}

	return out, nil
}

// Sports lists the sports offered at a campus. The service answers either with
// a bare array or with a {data: [...]} envelope.
func (c *Client) Sports(ctx context.Context, campusID int64) ([]domain.Sport, error) {
	const op = "remote.Client.Sports"

	status, body, err := c.call(ctx, op, http.MethodPost, pathCampusSports, sportsRequest{ID: campusID})
	if err != nil {
		return nil, err
	}

	if !isSuccess(status) {
		return nil, statusError(op, status, body)
	}

	var records []sportRecord
	if err := json.Unmarshal(body, &records); err != nil {
		env, envErr := checkEnvelope(op, body)
		if envErr != nil {
			return nil, envErr
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &records); err != nil {
				return nil, &domain.ValidationError{Op: op, StatusCode: status, Reason: "malformed sport list: " + err.Error()}
			}
		}
	}

	out := make([]domain.Sport, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Sport{ID: int64(r.ID), Name: r.Name})
	}

	return out, nil
}
