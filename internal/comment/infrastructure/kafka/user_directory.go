package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	userdom "github.com/dmehra2102/storefront/internal/user/domain"
	"github.com/dmehra2102/storefront/pkg/bus"
)

type UserDirectory struct {
	requester *bus.Requester
	topic     string
}

func NewUserDirectory(requester *bus.Requester, topic string) *UserDirectory {
	return &UserDirectory{requester: requester, topic: topic}
}

func (d *UserDirectory) Lookup(ctx context.Context, ids []string) ([]userdom.UserSummary, error) {
	payload, err := json.Marshal(userdom.UserLookupRequest{UserIDs: ids})
	if err != nil {
		return nil, err
	}
	key := ""
	if len(ids) > 0 {
		key = ids[0]
	}
	resp, err := d.requester.Request(ctx, d.topic, userdom.QueryTypeUserLookup, key, payload)
	if err != nil {
		return nil, err
	}
	var out userdom.UserLookupResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, fmt.Errorf("decode user lookup response: %w", err)
	}
	return out.Users, nil
}
