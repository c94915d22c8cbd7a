// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"github.com/muxfer/muxfer/request"
	"github.com/muxfer/muxfer/retry"
)

// Requester is the interface that wraps the blocking Request method.
//
// Request submits a transfer and blocks until it completes, returning
// the final response. Client implements Requester, and any other
// implementation must behave substantially the same as Client.Request.
type Requester interface {
	Request(req request.Request, policy request.Policy) (request.Response, error)
}

// Submitter is the interface that wraps the asynchronous SendRequest
// method.
//
// SendRequest submits a transfer and returns a state handle carrying
// the future of the eventual response together with the pause, resume,
// and cancel triggers. Client implements Submitter.
type Submitter interface {
	SendRequest(req request.Request, policy request.Policy) (*TransferState, error)
}

// Engine is the interface that groups the full submission surface of
// a client: blocking and asynchronous submission, with and without a
// retry policy.
type Engine interface {
	Requester
	Submitter
	RequestWithRetry(req request.Request, policy request.Policy, rp retry.Policy) (request.Response, error)
	SendRequestWithRetry(req request.Request, policy request.Policy, rp retry.Policy) (*TransferState, error)
}

var _ Engine = (*Client)(nil)

// Get uses the specified Requester to issue a GET to the specified
// URL with the zero request policy.
func Get(r Requester, url string) (request.Response, error) {
	req, err := request.New("GET", url, nil)
	if err != nil {
		return request.Response{}, err
	}
	return r.Request(req, request.Policy{})
}

// Head uses the specified Requester to issue a HEAD to the specified
// URL with the zero request policy.
func Head(r Requester, url string) (request.Response, error) {
	req, err := request.New("HEAD", url, nil)
	if err != nil {
		return request.Response{}, err
	}
	return r.Request(req, request.Policy{})
}

// Post uses the specified Requester to issue a POST of body to the
// specified URL with the given content type and the zero request
// policy.
func Post(r Requester, url, contentType string, body []byte) (request.Response, error) {
	req, err := request.New("POST", url, body)
	if err != nil {
		return request.Response{}, err
	}
	req.AddHeader("Content-Type", contentType)
	return r.Request(req, request.Policy{})
}

// Get issues a GET to the specified URL with the zero request policy.
func (c *Client) Get(url string) (request.Response, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL with the zero request policy.
func (c *Client) Head(url string) (request.Response, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL with the zero request policy.
func (c *Client) Post(url, contentType string, body []byte) (request.Response, error) {
	return Post(c, url, contentType, body)
}
