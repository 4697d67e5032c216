// Package search keeps listings in an Elasticsearch index for full-text
// search. Writes are best effort; the database stays the source of truth.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/city-guide/api-go/logging"
	"github.com/city-guide/api-go/models"
	"github.com/olivere/elastic/v7"
	"github.com/rs/zerolog"
)

// Index is implemented by ElasticIndex. Search returns listing ids ordered by
// relevance.
type Index interface {
	IndexLocation(ctx context.Context, loc *models.Location) error
	DeleteLocation(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, category models.LocationCategory, limit int) ([]uint, error)
}

type Document struct {
	ID               uint             `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Category         string           `json:"category"`
	Address          string           `json:"address"`
	EditorialSummary string           `json:"editorial_summary,omitempty"`
	Types            []string         `json:"types,omitempty"`
	Rating           *float64         `json:"rating,omitempty"`
	Featured         bool             `json:"featured"`
	Location         elastic.GeoPoint `json:"location"`
}

func NewDocument(loc *models.Location) Document {
	return Document{
		ID:               loc.ID,
		Name:             loc.Name,
		Slug:             loc.Slug,
		Category:         string(loc.CategoryID),
		Address:          loc.Address,
		EditorialSummary: loc.EditorialSummary,
		Types:            loc.Types,
		Rating:           loc.Rating,
		Featured:         loc.Featured,
		Location:         elastic.GeoPoint{Lat: loc.Latitude, Lon: loc.Longitude},
	}
}

const mapping = `{
	"mappings": {
		"properties": {
			"id":                {"type": "long"},
			"name":              {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"slug":              {"type": "keyword"},
			"category":          {"type": "keyword"},
			"address":           {"type": "text"},
			"editorial_summary": {"type": "text"},
			"types":             {"type": "keyword"},
			"rating":            {"type": "float"},
			"featured":          {"type": "boolean"},
			"location":          {"type": "geo_point"}
		}
	}
}`

type ElasticIndex struct {
	Client *elastic.Client
	Index  string

	logger zerolog.Logger
}

// NewElasticIndex connects to url without sniffing or health checks, which
// suits single-node and hosted clusters.
func NewElasticIndex(url, index string) (*ElasticIndex, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ElasticIndex{Client: client, Index: index, logger: logging.NewPackageLogger("search")}, nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (es *ElasticIndex) EnsureIndex(ctx context.Context) error {
	exists, err := es.Client.IndexExists(es.Index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}
	created, err := es.Client.CreateIndex(es.Index).BodyString(mapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if !created.Acknowledged {
		es.logger.Warn().Str("index", es.Index).Msg("create index was not acknowledged")
	}
	return nil
}

func (es *ElasticIndex) IndexLocation(ctx context.Context, loc *models.Location) error {
	_, err := es.Client.Index().
		Index(es.Index).
		Id(strconv.FormatUint(uint64(loc.ID), 10)).
		BodyJson(NewDocument(loc)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("index location %d: %w", loc.ID, err)
	}
	return nil
}

func (es *ElasticIndex) DeleteLocation(ctx context.Context, id uint) error {
	_, err := es.Client.Delete().Index(es.Index).Id(strconv.FormatUint(uint64(id), 10)).Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("delete location %d: %w", id, err)
	}
	return nil
}

// Reindex writes every listing in one bulk request. Per-document failures
// are logged; the count of indexed documents is returned.
func (es *ElasticIndex) Reindex(ctx context.Context, locations []models.Location) (int, error) {
	if len(locations) == 0 {
		return 0, nil
	}
	bulk := es.Client.Bulk()
	for i := range locations {
		req := elastic.NewBulkIndexRequest().
			Index(es.Index).
			Id(strconv.FormatUint(uint64(locations[i].ID), 10)).
			Doc(NewDocument(&locations[i]))
		bulk = bulk.Add(req)
	}

	resp, err := bulk.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	failed := resp.Failed()
	for _, item := range failed {
		if item.Error != nil {
			es.logger.Error().Str(logging.ID, item.Id).Str("reason", item.Error.Reason).Msg("failed to index location")
		}
	}
	return len(locations) - len(failed), nil
}

func (es *ElasticIndex) Search(ctx context.Context, query string, category models.LocationCategory, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 20
	}
	q := elastic.NewBoolQuery().Must(
		elastic.NewMultiMatchQuery(query, "name^3", "address", "editorial_summary", "types").
			Fuzziness("AUTO"),
	)
	if category != "" {
		q = q.Filter(elastic.NewTermQuery("category", string(category)))
	}

	result, err := es.Client.Search().
		Index(es.Index).
		Query(q).
		Size(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}

	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc Document
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			es.logger.Warn().Err(err).Str(logging.ID, hit.Id).Msg("error unmarshalling hit source")
			continue
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}
