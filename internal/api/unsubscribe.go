package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"campaignterm/internal/model"
)

const unsubscribePath = "/tracking/unsub"

// ErrMissingUnsubscribeParams is returned before any request is made when
// k, to or from is empty.
var ErrMissingUnsubscribeParams = errors.New("missing required parameters")

// Unsubscribe removes the receiver from the sender's future mailings.
func (c *Client) Unsubscribe(ctx context.Context, req model.UnsubscribeRequest) (*model.UnsubscribeResult, error) {
	req.K = strings.TrimSpace(req.K)
	req.To = strings.TrimSpace(req.To)
	req.From = strings.TrimSpace(req.From)
	if req.K == "" || req.To == "" || req.From == "" {
		return nil, ErrMissingUnsubscribeParams
	}

	var res model.UnsubscribeResult
	msg, err := c.doJSON(ctx, http.MethodPost, unsubscribePath, req, &res)
	if err != nil {
		return nil, fmt.Errorf("unsubscribe %s: %w", req.To, err)
	}
	res.Message = msg
	return &res, nil
}
