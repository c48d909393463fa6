package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/platform/httpclient"
)

const DefaultFearGreedURL = "https://api.alternative.me/fng/"

// FearGreedClient reads the alternative.me sentiment index.
type FearGreedClient struct {
	client *httpclient.Client
	url    string
}

func NewFearGreedClient(client *httpclient.Client, url string) *FearGreedClient {
	if url == "" {
		url = DefaultFearGreedURL
	}
	return &FearGreedClient{client: client, url: url}
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
}

// Latest returns the current reading.
func (c *FearGreedClient) Latest(ctx context.Context) (*model.FearGreed, error) {
	var resp fngResponse
	if err := c.client.GetJSON(ctx, c.url, &resp); err != nil {
		return nil, fmt.Errorf("%w: fear & greed: %v", ErrUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: fear & greed: empty response", ErrUnavailable)
	}
	d := resp.Data[0]
	value, err := strconv.Atoi(d.Value)
	if err != nil {
		return nil, fmt.Errorf("fear & greed value %q: %w", d.Value, err)
	}
	fg := &model.FearGreed{Value: value, Classification: d.Classification}
	if sec, err := strconv.ParseInt(d.Timestamp, 10, 64); err == nil {
		fg.Timestamp = time.Unix(sec, 0)
	}
	return fg, nil
}
