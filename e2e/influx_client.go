package e2e

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient is a small helper around the official InfluxDB v2 client
// used by the E2E tests to read back what the traffic API wrote.
type InfluxClient struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient creates a new client for the given parameters. It assumes
// the server is already running and reachable.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		org:    org,
		bucket: bucket,
		client: c,
		query:  c.QueryAPI(org),
	}
}

// SetupBucket ensures the organisation and bucket exist on the running
// InfluxDB instance. It creates them if missing using the management API.
func (c *InfluxClient) SetupBucket(ctx context.Context) error {
	orgAPI := c.client.OrganizationsAPI()
	org, err := orgAPI.FindOrganizationByName(ctx, c.org)
	if err != nil || org == nil {
		org, err = orgAPI.CreateOrganizationWithName(ctx, c.org)
		if err != nil {
			return fmt.Errorf("create org: %w", err)
		}
	}

	bucketAPI := c.client.BucketsAPI()
	buckets, err := bucketAPI.FindBucketsByOrgName(ctx, c.org)
	if err != nil {
		return err
	}
	if buckets != nil {
		for _, b := range *buckets {
			if b.Name == c.bucket {
				return nil
			}
		}
	}
	if _, err := bucketAPI.CreateBucketWithName(ctx, org, c.bucket); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// PredictionFields returns the volume field of every traffic_prediction
// point written within window, keyed by outcome tag.
func (c *InfluxClient) PredictionFields(ctx context.Context, window time.Duration) (map[string][]int64, error) {
	flux := fmt.Sprintf(`from(bucket:%q)
  |> range(start: -%ds)
  |> filter(fn: (r) => r._measurement == "traffic_prediction" and r._field == "volume")`,
		c.bucket, int(window.Seconds()))
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Close() }()
	out := map[string][]int64{}
	for res.Next() {
		rec := res.Record()
		outcome, _ := rec.ValueByKey("outcome").(string)
		if v, ok := rec.Value().(int64); ok {
			out[outcome] = append(out[outcome], v)
		}
	}
	return out, res.Err()
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
