package sim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudsim/cloudsim/pkg/engine"
	"github.com/cloudsim/cloudsim/pkg/template"
)

// BucketProvider simulates object storage buckets. Each bucket is a
// real directory under the data dir, so objects can be written into it.
type BucketProvider struct {
	dataDir   string
	accountID string
}

// NewBucketProvider creates a storage bucket provider.
func NewBucketProvider(opts Options) *BucketProvider {
	return &BucketProvider{
		dataDir:   filepath.Join(opts.DataDir, "buckets"),
		accountID: opts.AccountID,
	}
}

// Kind returns the resource kind this provider handles.
func (p *BucketProvider) Kind() string {
	return KindStorageBucket
}

// Create makes a bucket directory. The bucket name doubles as the
// physical identifier; an explicit BucketName that already exists is
// a conflict.
func (p *BucketProvider) Create(_ context.Context, logicalID string, props template.Value) (*engine.CreateResult, error) {
	name := props.FieldString("BucketName", "sim-bucket-"+shortID())

	path := filepath.Join(p.dataDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("bucket %s already exists", name)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	meta := struct {
		BucketName string    `json:"bucket_name"`
		AccountID  string    `json:"account_id"`
		LogicalID  string    `json:"logical_id"`
		CreatedAt  time.Time `json:"created_at"`
	}{
		BucketName: name,
		AccountID:  p.accountID,
		LogicalID:  logicalID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := writeState(path, ".bucket", meta); err != nil {
		_ = os.RemoveAll(path)
		return nil, err
	}

	return &engine.CreateResult{
		PhysicalID: name,
		Attributes: map[string]string{
			"Arn":        fmt.Sprintf("arn:cloudsim:storage:%s:bucket/%s", p.accountID, name),
			"DomainName": name + ".storage.cloudsim.local",
		},
	}, nil
}

// Delete removes a bucket directory and everything in it.
func (p *BucketProvider) Delete(_ context.Context, physicalID string) error {
	path := filepath.Join(p.dataDir, physicalID)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	return nil
}
