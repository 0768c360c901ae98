package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kirinyoku/courtbook/internal/domain"
)

// Submit asks the service to reserve scheduleID on date for ownerID. The
// service is authoritative for conflicts; its verdict is returned as is.
//
// Returns:
//   - domain.SubmitResult: Accepted is true when the reservation was created.
//   - error: *domain.ConflictError if the slot is already taken.
//   - error: *domain.TransientError on network failures and 5xx answers.
//   - error: *domain.ValidationError if the request was rejected.
func (c *Client) Submit(
	ctx context.Context,
	ownerID, scheduleID int64,
	date domain.Date,
) (domain.SubmitResult, error) {
	const op = "remote.Client.Submit"

	req := submitRequest{Run: ownerID, RegisterDate: date.String(), ScheduleID: scheduleID}

	status, body, err := c.call(ctx, op, http.MethodPost, pathSubmitReservation, req)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	reason := messageOf(body)
	if reason == ConflictMessage || status == http.StatusConflict {
		if reason == "" {
			reason = ConflictMessage
		}
		return domain.SubmitResult{Accepted: false, Reason: reason},
			&domain.ConflictError{ScheduleID: scheduleID, Reason: reason}
	}

	if !isSuccess(status) {
		return domain.SubmitResult{Accepted: false, Reason: reason}, statusError(op, status, body)
	}

	if _, err := checkEnvelope(op, body); err != nil {
		return domain.SubmitResult{Accepted: false, Reason: reason}, err
	}

	return domain.SubmitResult{Accepted: true, Reason: reason}, nil
}

// Cancel deactivates a reservation. A reservation the service reports as
// already gone is confirmed as a no-op rather than an error.
func (c *Client) Cancel(ctx context.Context, reservationID int64) (domain.CancelResult, error) {
	const op = "remote.Client.Cancel"

	status, body, err := c.call(ctx, op, http.MethodPost, pathCancelReservation, cancelRequest{ID: reservationID})
	if err != nil {
		return domain.CancelResult{}, err
	}

	switch {
	case isSuccess(status):
		return domain.CancelResult{Accepted: true}, nil
	case status == http.StatusConflict, status == http.StatusGone:
		return domain.CancelResult{Accepted: true, AlreadyCancelled: true}, nil
	default:
		return domain.CancelResult{}, statusError(op, status, body)
	}
}

// ListReservations returns every reservation registered under ownerID, past
// and cancelled ones included.
func (c *Client) ListReservations(ctx context.Context, ownerID int64) ([]domain.Reservation, error) {
	const op = "remote.Client.ListReservations"

	status, body, err := c.call(ctx, op, http.MethodPost, pathOwnerReservations, ownerRequest{Run: ownerID})
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

	var records []reservationRecord
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, &domain.ValidationError{Op: op, StatusCode: status, Reason: "malformed reservation list: " + err.Error()}
		}
	}

	out := make([]domain.Reservation, 0, len(records))
	for _, r := range records {
		res := r.toDomain()
		if res.OwnerID == 0 {
			res.OwnerID = ownerID
		}
		out = append(out, res)
	}

	return out, nil
}
