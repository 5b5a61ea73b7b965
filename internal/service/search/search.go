package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/cinevisor/cinevisor-api/internal/models"
)

// VideoDoc is the slice of a video that lives in the search index. Only
// approved videos are indexed; rejection or deletion removes the doc.
type VideoDoc struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Type         string    `json:"type"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Views        int64     `json:"views"`
	LikesCount   int       `json:"likes_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func DocFromVideo(v *models.Video) VideoDoc {
	return VideoDoc{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Title:        v.Title,
		Description:  v.Description,
		Tags:         v.Tags,
		Type:         v.Type,
		ThumbnailURL: v.ThumbnailURL,
		Views:        v.Views,
		LikesCount:   v.LikesCount,
		CreatedAt:    v.CreatedAt,
	}
}

func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []VideoDoc, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "description", "tags"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source VideoDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	docs := make([]VideoDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

func Index(ctx context.Context, es *elasticsearch.Client, index string, v *models.Video) error {
	doc := DocFromVideo(v)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("index video: marshal: %w", err)
	}
	res, err := es.Index(index, strings.NewReader(string(data)),
		es.Index.WithDocumentID(v.ID),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index video: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index video: %s", res.Status())
	}
	return nil
}

func Delete(ctx context.Context, es *elasticsearch.Client, index, videoID string) error {
	res, err := es.Delete(index, videoID, es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete video doc: %w", err)
	}
	defer res.Body.Close()
	// 404 means the doc was never indexed; nothing to do.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete video doc: %s", res.Status())
	}
	return nil
}
