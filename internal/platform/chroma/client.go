package chroma

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	chromav2 "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

const (
	defaultTimeout = 15 * time.Second
	defaultK       = 6
)

// Passage is one retrieved scripture chunk.
type Passage struct {
	ID        string
	Content   string
	Tradition string
	Scripture string
	Distance  float64
	Metadata  map[string]any
}

type Query struct {
	Embedding []float32
	K         int
	// Traditions restricts results to these metadata.tradition values. Empty means all.
	Traditions []string
}

type Client struct {
	log *logger.Logger
	cfg Config
	api chromav2.Client

	mu         sync.Mutex
	collection chromav2.Collection
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	api, err := chromav2.NewHTTPClient(
		chromav2.WithBaseURL(strings.TrimRight(cfg.URL, "/")),
		chromav2.WithDatabaseAndTenant(cfg.Database, cfg.Tenant),
		chromav2.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	log.Info("Chroma retriever configured", "url", cfg.URL, "collection", cfg.Collection, "tenant", cfg.Tenant, "database", cfg.Database)
	return &Client{
		log: log.With("service", "ChromaClient"),
		cfg: cfg,
		api: api,
	}, nil
}

// Query runs a nearest-neighbour search against the configured collection.
func (c *Client) Query(ctx context.Context, q Query) ([]Passage, error) {
	const op = "query"
	if len(q.Embedding) == 0 {
		return nil, fail(op, ErrInvalidRequest, "query embedding required", nil)
	}
	ctx = ctxutil.Default(ctx)
	k := q.K
	if k <= 0 {
		k = defaultK
	}

	col, err := c.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}

	opts := []chromav2.CollectionQueryOption{
		chromav2.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(q.Embedding)),
		chromav2.WithNResults(k),
		chromav2.WithIncludeQuery(chromav2.IncludeDocuments, chromav2.IncludeMetadatas, includeDistances),
	}
	if where := traditionFilter(q.Traditions); where != nil {
		opts = append(opts, chromav2.WithWhereQuery(where))
	}
	res, err := col.Query(ctx, opts...)
	if err != nil {
		return nil, classify(ctx, op, err)
	}
	return passages(res), nil
}

// includeDistances is accepted by the server but has no constant in the client.
const includeDistances chromav2.Include = "distances"

func passages(res chromav2.QueryResult) []Passage {
	ids := res.GetIDGroups()
	if len(ids) == 0 {
		return []Passage{}
	}
	docs := res.GetDocumentsGroups()
	metas := res.GetMetadatasGroups()
	dists := res.GetDistancesGroups()

	out := make([]Passage, 0, len(ids[0]))
	for i, pid := range ids[0] {
		p := Passage{ID: string(pid)}
		if len(docs) > 0 && i < len(docs[0]) && docs[0][i] != nil {
			p.Content = strings.TrimSpace(docs[0][i].ContentString())
		}
		if len(metas) > 0 && i < len(metas[0]) && metas[0][i] != nil {
			p.Metadata = metadataMap(metas[0][i])
		}
		if len(dists) > 0 && i < len(dists[0]) {
			p.Distance = float64(dists[0][i])
		}
		p.Tradition = metaString(p.Metadata, "tradition")
		p.Scripture = metaString(p.Metadata, "scripture_name", "book_title")
		out = append(out, p)
	}
	return out
}

func metadataMap(m chromav2.DocumentMetadata) map[string]any {
	keyed, ok := m.(interface{ Keys() []string })
	if !ok {
		return nil
	}
	out := map[string]any{}
	for _, k := range keyed.Keys() {
		if v, ok := m.GetString(k); ok {
			out[k] = v
		} else if v, ok := m.GetInt(k); ok {
			out[k] = v
		} else if v, ok := m.GetFloat(k); ok {
			out[k] = v
		} else if v, ok := m.GetBool(k); ok {
			out[k] = v
		}
	}
	return out
}

func (c *Client) resolveCollection(ctx context.Context) (chromav2.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collection != nil {
		return c.collection, nil
	}
	col, err := c.api.GetCollection(ctx, c.cfg.Collection)
	if err != nil {
		return nil, classify(ctx, "get_collection", err)
	}
	if strings.TrimSpace(col.ID()) == "" {
		return nil, fail("get_collection", ErrNotFound, fmt.Sprintf("collection %q has no id", c.cfg.Collection), nil)
	}
	c.collection = col
	return col, nil
}

func traditionFilter(traditions []string) chromav2.WhereFilter {
	clean := make([]string, 0, len(traditions))
	for _, t := range traditions {
		t = strings.TrimSpace(t)
		if t == "" || strings.EqualFold(t, "All Traditions") {
			// any "all" selection disables filtering entirely
			return nil
		}
		clean = append(clean, t)
	}
	switch len(clean) {
	case 0:
		return nil
	case 1:
		return chromav2.EqString("tradition", clean[0])
	default:
		return chromav2.InString("tradition", clean...)
	}
}

func metaString(meta map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := meta[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return "Unknown"
}
