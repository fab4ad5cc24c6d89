package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cloudsim/cloudsim/pkg/engine"
	"github.com/cloudsim/cloudsim/pkg/template"
)

// databaseState is the persisted form of a simulated database instance.
type databaseState struct {
	Identifier       string    `json:"identifier"`
	AccountID        string    `json:"account_id"`
	LogicalID        string    `json:"logical_id"`
	InstanceClass    string    `json:"instance_class"`
	Engine           string    `json:"engine"`
	MasterUsername   string    `json:"master_username"`
	AllocatedStorage float64   `json:"allocated_storage"`
	Endpoint         string    `json:"endpoint"`
	Port             int       `json:"port"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// DatabaseProvider simulates managed database instances.
type DatabaseProvider struct {
	dataDir   string
	accountID string
}

// NewDatabaseProvider creates a database instance provider.
func NewDatabaseProvider(opts Options) *DatabaseProvider {
	return &DatabaseProvider{
		dataDir:   filepath.Join(opts.DataDir, "databases"),
		accountID: opts.AccountID,
	}
}

// Kind returns the resource kind this provider handles.
func (p *DatabaseProvider) Kind() string {
	return KindDatabaseInstance
}

// enginePort maps a database engine to its conventional port.
func enginePort(dbEngine string) int {
	switch dbEngine {
	case "postgres":
		return 5432
	case "mariadb", "mysql":
		return 3306
	default:
		return 3306
	}
}

// Create provisions a simulated database and returns its identifier.
func (p *DatabaseProvider) Create(_ context.Context, logicalID string, props template.Value) (*engine.CreateResult, error) {
	identifier := props.FieldString("DBInstanceIdentifier", "sim-db-"+shortID())
	dbEngine := props.FieldString("Engine", "mysql")
	port := enginePort(dbEngine)
	endpoint := fmt.Sprintf("%s.db.cloudsim.local", identifier)

	storage := 20.0
	if v, ok := props.Field("AllocatedStorage"); ok && v.Kind() == template.KindNumber {
		storage = v.NumberVal()
	}

	state := databaseState{
		Identifier:       identifier,
		AccountID:        p.accountID,
		LogicalID:        logicalID,
		InstanceClass:    props.FieldString("DBInstanceClass", "db.t2.micro"),
		Engine:           dbEngine,
		MasterUsername:   props.FieldString("MasterUsername", "admin"),
		AllocatedStorage: storage,
		Endpoint:         endpoint,
		Port:             port,
		Status:           "available",
		CreatedAt:        time.Now().UTC(),
	}

	if err := writeState(p.dataDir, identifier, state); err != nil {
		return nil, err
	}

	return &engine.CreateResult{
		PhysicalID: identifier,
		Attributes: map[string]string{
			"Endpoint.Address": endpoint,
			"Endpoint.Port":    fmt.Sprintf("%d", port),
		},
	}, nil
}

// Delete removes a simulated database instance.
func (p *DatabaseProvider) Delete(_ context.Context, physicalID string) error {
	return removeState(p.dataDir, physicalID)
}

// Get loads database state, mostly for tests and inspection tooling.
func (p *DatabaseProvider) Get(physicalID string) (*databaseState, error) {
	data, err := readState(p.dataDir, physicalID)
	if err != nil {
		return nil, err
	}
	var state databaseState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode database state: %w", err)
	}
	return &state, nil
}
