// Package controller publishes scaling decisions to the external
// autoscaling controller over HTTP.
package controller

import (
	"bytes"
	"encoding/json"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"

	"github.com/sgescale/gridwatch/watcher"
)

const DefaultHttpTries = 7 // ~2min total of trying with exponential backoff

// MakePesterClient returns an http client that retries with exponential
// backoff and logs each failed attempt.
func MakePesterClient() *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = DefaultHttpTries
	client.LogHook = func(e pester.ErrEntry) {
		log.Errorf("Retrying after failed attempt: %+v", e)
	}
	return client
}

// Client posts decisions to a controller endpoint.
type Client struct {
	url    string
	client *pester.Client
}

func NewClient(url string) *Client {
	return &Client{url: url, client: MakePesterClient()}
}

// Publish sends the decision as JSON. A non-2xx response is an error.
func (c *Client) Publish(d watcher.Decision) error {
	body, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encoding decision")
	}
	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "posting decision to %s", c.url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := ioutil.ReadAll(resp.Body)
		return errors.Errorf("controller returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
