package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/courtbook/internal/domain"
)

// ScopePubSub broadcasts that the availability of a scope changed, so every
// instance can refresh the sessions showing it.
type ScopePubSub struct {
	rdb     *redis.Client
	channel string
}

func NewScopePubSub(rdb *redis.Client) *ScopePubSub {
	return &ScopePubSub{
		rdb:     rdb,
		channel: ChannelScopeChanged(),
	}
}

type scopeChangedMsg struct {
	Type   string       `json:"type"`
	Origin string       `json:"origin,omitempty"`
	Scope  domain.Scope `json:"scope"`
	TsUnix int64        `json:"ts_unix"`
}

// PublishScopeChanged announces scope. origin identifies the session that
// caused the change; subscribers may skip it.
func (p *ScopePubSub) PublishScopeChanged(ctx context.Context, origin string, scope domain.Scope) error {
	msg := scopeChangedMsg{
		Type:   "scope_changed",
		Origin: origin,
		Scope:  scope,
		TsUnix: time.Now().Unix(),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe calls handler for every well-formed message until ctx ends.
func (p *ScopePubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, origin string, scope domain.Scope)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev scopeChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.Scope.CampusID != 0 && !ev.Scope.Date.IsZero() {
				handler(ctx, ev.Origin, ev.Scope)
			}
		}
	}
}
