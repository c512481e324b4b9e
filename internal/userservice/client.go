package userservice

import (
	"context"

	"user-order-services/internal/apperr"
	"user-order-services/internal/model"
	"user-order-services/internal/rpc"
)

// Client is the caller-side view of the user service. Transport failures keep
// their apperr.KindTransport classification so callers never confuse "could
// not verify" with "definitely absent".
type Client struct {
	rpc *rpc.Client
}

func NewClient(rc *rpc.Client) *Client {
	return &Client{rpc: rc}
}

func (c *Client) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var reply GetUserReply
	if err := c.rpc.Request(ctx, PatternGetUser, GetUserRequest{ID: id}, &reply); err != nil {
		return nil, err
	}
	if !reply.Found {
		return nil, apperr.New(apperr.KindNotFound, "user %d does not exist", id)
	}
	return reply.User, nil
}

func (c *Client) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	var u model.User
	if err := c.rpc.Request(ctx, PatternCreateUser, CreateUserRequest{Name: name, Email: email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
