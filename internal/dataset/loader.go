package dataset

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// maxDatasetBytes caps remote dataset downloads.
const maxDatasetBytes = 256 << 20

// Loader fetches a GeoJSON FeatureCollection from a file path or URL.
// A load is a single request; there are no retries.
type Loader struct {
	client *http.Client
}

// NewLoader creates a Loader. A nil client gets a default one with the given timeout.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Loader{client: client}
}

// Load reads and parses the dataset at source.
func (l *Loader) Load(ctx context.Context, source string) (*Collection, error) {
	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = l.fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
		err = eris.Wrapf(err, "dataset: read %s", source)
	}
	if err != nil {
		return nil, err
	}

	coll, err := Parse(data)
	if err != nil {
		return nil, err
	}
	coll.Source = source
	coll.LoadedAt = time.Now().UTC()

	zap.L().Debug("dataset: loaded",
		zap.String("source", source),
		zap.Int("features", coll.Len()),
	)
	return coll, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: build request")
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: fetch %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("dataset: GeoJSON not found: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read body")
	}
	return data, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type rawFeature struct {
	ID         json.RawMessage   `json:"id,omitempty"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

// Parse decodes a FeatureCollection. Features whose geometry cannot be decoded
// keep their properties with a nil geometry so one bad record does not drop
// the rest of the dataset.
func Parse(data []byte) (*Collection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "dataset: parse GeoJSON")
	}
	if raw.Type != "FeatureCollection" {
		return nil, eris.Errorf("dataset: expected FeatureCollection, got %q", raw.Type)
	}

	coll := &Collection{Features: make([]*geojson.Feature, 0, len(raw.Features))}
	for i, msg := range raw.Features {
		var rf rawFeature
		if err := json.Unmarshal(msg, &rf); err != nil {
			zap.L().Warn("dataset: skipping malformed feature", zap.Int("index", i), zap.Error(err))
			continue
		}

		f := &geojson.Feature{
			ID:         featureID(rf.ID),
			Properties: rf.Properties,
		}
		if f.Properties == nil {
			f.Properties = map[string]any{}
		}
		if rf.Geometry != nil {
			g, err := rf.Geometry.Decode()
			if err != nil {
				zap.L().Warn("dataset: undecodable geometry",
					zap.Int("index", i),
					zap.String("id", Identifier(f.Properties)),
					zap.Error(err),
				)
			} else {
				f.Geometry = g
			}
		}
		coll.Features = append(coll.Features, f)
	}
	return coll, nil
}

// featureID accepts both string and numeric GeoJSON ids.
func featureID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Encode marshals the collection as GeoJSON.
func Encode(c *Collection) ([]byte, error) {
	fc := geojson.FeatureCollection{Features: c.Features}
	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: encode GeoJSON")
	}
	return data, nil
}

// WriteFile encodes the collection to path.
func WriteFile(path string, c *Collection) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "dataset: write %s", path)
}
