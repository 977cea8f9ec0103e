package venice

import (
	"context"
	"net/http"
	"time"
)

const charactersPath = "characters"

// CharactersResource exposes the character listing endpoint. Characters are
// predefined personas selectable through VeniceParameters.CharacterSlug.
type CharactersResource struct {
	client *Client
}

// Character is one selectable persona.
type Character struct {
	Slug          string     `json:"slug"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	SystemPrompt  string     `json:"system_prompt,omitempty"`
	UserPrompt    string     `json:"user_prompt,omitempty"`
	VisionEnabled bool       `json:"vision_enabled,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	VoiceID       string     `json:"voice_id,omitempty"`
	CategoryTags  []string   `json:"category_tags,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// CharacterList is the envelope returned by the characters endpoint.
type CharacterList struct {
	Object string      `json:"object"`
	Data   []Character `json:"data"`
}

// List returns the characters available to the account.
func (r *CharactersResource) List(ctx context.Context) (*CharacterList, error) {
	var list CharacterList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   charactersPath,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Find returns the character with the given slug, or a not-found error.
func (r *CharactersResource) Find(ctx context.Context, slug string) (*Character, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list.Data {
		if list.Data[i].Slug == slug {
			return &list.Data[i], nil
		}
	}
	return nil, newStatusError(http.StatusNotFound, "character not found: "+slug, nil,
		http.MethodGet, r.client.baseURL()+"/"+charactersPath)
}
