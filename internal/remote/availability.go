package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kirinyoku/courtbook/internal/domain"
)

// FetchAvailability returns every slot the service reports for the scope,
// unavailable ones included. The response is not trusted to be limited to the
// requested date or sport; callers filter it.
func (c *Client) FetchAvailability(
	ctx context.Context,
	date domain.Date,
	sportID, campusID int64,
) ([]domain.Slot, error) {
	const op = "remote.Client.FetchAvailability"

	scope := domain.Scope{CampusID: campusID, SportID: sportID, Date: date}
	req := availabilityRequest{Fecha: date.String(), CampusID: campusID, SportID: sportID}

	status, body, err := c.call(ctx, op, http.MethodPost, pathAvailability, req)
	if err != nil {
		return nil, &domain.AvailabilityFetchError{Scope: scope, Err: err}
	}

	if !isSuccess(status) {
		return nil, &domain.AvailabilityFetchError{Scope: scope, Err: statusError(op, status, body)}
	}

	env, err := checkEnvelope(op, body)
	if err != nil {
		return nil, &domain.AvailabilityFetchError{Scope: scope, Err: err}
	}

	var records []slotRecord
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, &domain.AvailabilityFetchError{
				Scope: scope,
				Err:   &domain.ValidationError{Op: op, StatusCode: status, Reason: "malformed slot list: " + err.Error()},
			}
		}
	}

	out := make([]domain.Slot, 0, len(records))
	for _, r := range records {
		slot, err := r.toDomain()
		if err != nil {
			c.logger.Warn("skipping slot with unreadable date",
				zap.Int64("schedule_id", int64(r.ScheduleID)),
				zap.String("calendar_date", r.CalendarDate))
			continue
		}
		out = append(out, slot)
	}

	return out, nil
}
