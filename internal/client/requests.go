package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"redaid/pkg/types"
)

// Login signs in and keeps the session cookie for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/login", types.LoginForm{Email: email, Password: password}, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *Client) DonationRequest(ctx context.Context, id string) (*types.DonationRequestView, error) {
	var out types.DonationRequestView
	if err := c.do(ctx, http.MethodGet, "/donation-requests/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, withRequest(err, id)
	}
	return &out, nil
}

func (c *Client) DonationRequests(ctx context.Context, filter *types.DonationRequestFilter) ([]*types.DonationRequest, error) {
	q := url.Values{}
	if filter != nil {
		if filter.Status != "" {
			q.Set("status", filter.Status)
		}
		if filter.RequesterEmail != "" {
			q.Set("requester", filter.RequesterEmail)
		}
		if filter.Page > 0 {
			q.Set("page", strconv.FormatUint(filter.Page, 10))
		}
		if filter.Limit > 0 {
			q.Set("limit", strconv.FormatUint(filter.Limit, 10))
		}
	}

	path := "/donation-requests"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []*types.DonationRequest
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRequest(ctx context.Context, form *types.DonationRequestForm) (*types.DonationRequest, error) {
	var out types.DonationRequest
	if err := c.do(ctx, http.MethodPost, "/donation-requests", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransitionStatus asks the API to move the request to `to`. The response is
// authoritative; callers should replace any local copy with it.
func (c *Client) TransitionStatus(ctx context.Context, id string, to types.RequestStatus) (*types.DonationRequestView, error) {
	release, err := c.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	var out types.DonationRequestView
	if err := c.do(ctx, http.MethodPatch, "/donation-requests/status/"+url.PathEscape(id), types.StatusChange{Status: to}, &out); err != nil {
		var transition *types.InvalidTransitionError
		if errors.As(err, &transition) && transition.To == "" {
			transition.To = to
		}
		return nil, withRequest(err, id)
	}
	return &out, nil
}

func (c *Client) EditRequest(ctx context.Context, id string, patch *types.DonationRequestPatch) (*types.DonationRequestView, error) {
	release, err := c.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	var out types.DonationRequestView
	if err := c.do(ctx, http.MethodPatch, "/donation-requests/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, withRequest(err, id)
	}
	return &out, nil
}

func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	release, err := c.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	return withRequest(c.do(ctx, http.MethodDelete, "/donation-requests/"+url.PathEscape(id), nil, nil), id)
}

// withRequest names the donation request in a not found error.
func withRequest(err error, id string) error {
	var nf *types.NotFoundError
	if errors.As(err, &nf) {
		nf.Entity = "donation request"
		nf.ID = id
	}
	return err
}
