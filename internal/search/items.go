package search

import (
	"context"
	"time"

	"github.com/fekuna/pantry-service/internal/inventory"
	"github.com/fekuna/pantry-service/internal/model"
)

const DefaultItemIndex = "pantry_items"

const itemMapping = `{
	"mappings": {
		"properties": {
			"owner_id": { "type": "keyword" },
			"name": { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"category": { "type": "text" },
			"location": { "type": "text" },
			"brand": { "type": "text" },
			"tags": { "type": "text" },
			"notes": { "type": "text" },
			"barcode": { "type": "keyword" },
			"expiry_date": { "type": "date" },
			"updated_at": { "type": "date" }
		}
	}
}`

// itemDocument is what gets indexed; quantity is left out since it changes on
// every adjustment and is never searched on.
type itemDocument struct {
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Category   string     `json:"category,omitempty"`
	Location   string     `json:"location,omitempty"`
	Brand      string     `json:"brand,omitempty"`
	Tags       string     `json:"tags,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Barcode    string     `json:"barcode,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ItemIndex keeps inventory items searchable by free text.
type ItemIndex struct {
	client *Client
	index  string
}

var _ inventory.Indexer = (*ItemIndex)(nil)

func NewItemIndex(client *Client, index string) *ItemIndex {
	if index == "" {
		index = DefaultItemIndex
	}
	return &ItemIndex{client: client, index: index}
}

func (x *ItemIndex) EnsureIndex(ctx context.Context) error {
	return x.client.CreateIndex(ctx, x.index, itemMapping)
}

func (x *ItemIndex) IndexItem(ctx context.Context, item *model.InventoryItem) error {
	return x.client.Index(ctx, x.index, item.ID, itemDocument{
		OwnerID:    item.OwnerID,
		Name:       item.Name,
		Category:   item.Category,
		Location:   item.Location,
		Brand:      item.Brand,
		Tags:       item.Tags,
		Notes:      item.Notes,
		Barcode:    item.Barcode,
		ExpiryDate: item.ExpiryDate,
		UpdatedAt:  item.UpdatedAt,
	})
}

func (x *ItemIndex) DeleteItem(ctx context.Context, ownerID, id string) error {
	return x.client.Delete(ctx, x.index, id)
}

// SearchIDs returns the ids of the owner's items matching query, best match
// first.
func (x *ItemIndex) SearchIDs(ctx context.Context, ownerID, query string, limit int) ([]string, error) {
	q := map[string]interface{}{
		"_source": false,
		"size":    limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":     query,
							"fields":    []string{"name^3", "category", "location", "brand", "tags", "notes", "barcode"},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"owner_id": ownerID}},
				},
			},
		},
	}

	res, err := x.client.Search(ctx, x.index, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
