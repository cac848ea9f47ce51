package tracemoe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// GetAnime fetches the catalog entry for an AniList id.
func (c *Client) GetAnime(ctx context.Context, id int) (*Anime, error) {
	if id <= 0 {
		return nil, wrapError("anilist", fmt.Errorf("%w: id %d", ErrNotFound, id))
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	body, err := c.doRequest(ctx, http.MethodGet, "/anilist/"+strconv.Itoa(id), nil, "")
	if err != nil {
		return nil, wrapError("anilist", err)
	}

	anime, err := decodeAnime(body)
	if err != nil {
		return nil, wrapError("anilist", err)
	}
	if err := c.validate.Validate(anime); err != nil {
		return nil, wrapError("anilist", fmt.Errorf("%w: %w", ErrInvalidResponse, err))
	}
	return anime, nil
}

// decodeAnime accepts the bare media object as well as the GraphQL envelope
// {"data":{"Media":{...}}}.
func decodeAnime(body []byte) (*Anime, error) {
	var envelope struct {
		Data *struct {
			Media *Anime `json:"Media"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if envelope.Data != nil {
		if envelope.Data.Media == nil {
			return nil, ErrNotFound
		}
		return envelope.Data.Media, nil
	}

	var anime Anime
	if err := json.Unmarshal(body, &anime); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return &anime, nil
}
