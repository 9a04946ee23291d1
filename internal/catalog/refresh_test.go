package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/domain"
)

type fakeProvider struct {
	tables      map[string][]string // schema → bare table names
	columns     map[string][]domain.SchemaColumn
	counts      map[string]int64
	listErr     map[string]error
	describeErr map[string]error
}

func (f *fakeProvider) ListTables(_ context.Context, schema string) ([]string, error) {
	if err := f.listErr[schema]; err != nil {
		return nil, err
	}
	return f.tables[schema], nil
}

func (f *fakeProvider) DescribeTable(_ context.Context, name domain.TableName) (*domain.TableSchema, error) {
	if err := f.describeErr[name.String()]; err != nil {
		return nil, err
	}
	return &domain.TableSchema{Name: name, Columns: f.columns[name.String()]}, nil
}

func (f *fakeProvider) CountRows(_ context.Context, name domain.TableName) (int64, error) {
	return f.counts[name.String()], nil
}

func newTestSyncer(t *testing.T, store *Store, provider domain.SchemaProvider) *Syncer {
	t.Helper()
	return NewSyncer(store, provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSyncer_Sync_RegistersAndInfers(t *testing.T) {
	provider := &fakeProvider{
		tables: map[string][]string{"bronze": {"raw_customers", "raw_orders"}},
		columns: map[string][]domain.SchemaColumn{
			"main.bronze.raw_customers": {
				{Name: "customer_id", DataType: "bigint"},
				{Name: "email", DataType: "string"},
			},
			"main.bronze.raw_orders": {
				{Name: "order_id", DataType: "bigint"},
				{Name: "total_amount", DataType: "decimal(18,2)"},
			},
		},
		counts: map[string]int64{
			"main.bronze.raw_customers": 120,
			"main.bronze.raw_orders":    4500,
		},
	}
	store := NewStore(nil)
	syncer := newTestSyncer(t, store, provider)

	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Tables)
	assert.Equal(t, 4, result.Columns)
	assert.Empty(t, result.Skipped)

	got, err := store.GetTable("main.bronze.raw_customers")
	require.NoError(t, err)
	assert.Equal(t, domain.LayerBronze, got.Layer)
	assert.Equal(t, domain.TableTypeRaw, got.Type)
	assert.Equal(t, "Customer", got.Domain)
	assert.Equal(t, int64(120), got.RowCount)

	cols := store.GetColumns("main.bronze.raw_customers")
	require.Len(t, cols, 2)
	assert.Equal(t, domain.RolePrimaryKey, cols[0].Role)
	assert.Equal(t, domain.SensitivityPII, cols[1].Sensitivity)
}

func TestSyncer_Sync_PreservesAnnotationsRelationshipsAndTerms(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.RegisterTable(context.Background(), domain.Table{
		Name:        mustName(t, "bronze.raw_customers"),
		Domain:      "CRM",
		Description: "customer landing zone",
	}, []domain.Column{{Name: "email", DataType: "string", Role: domain.RoleDerived}}))
	addRel(t, store, "main.bronze.raw_orders", "customer_id", "main.bronze.raw_customers", "customer_id")
	require.NoError(t, store.AddTerm(context.Background(), domain.BusinessTerm{Term: "revenue"}))

	provider := &fakeProvider{
		tables: map[string][]string{"bronze": {"raw_customers"}},
		columns: map[string][]domain.SchemaColumn{
			"main.bronze.raw_customers": {
				{Name: "email", DataType: "string"},
				{Name: "signup_date", DataType: "date"},
			},
		},
	}
	syncer := newTestSyncer(t, store, provider)

	_, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	got, err := store.GetTable("main.bronze.raw_customers")
	require.NoError(t, err)
	assert.Equal(t, "CRM", got.Domain)
	assert.Equal(t, "customer landing zone", got.Description)

	cols := store.GetColumns("main.bronze.raw_customers")
	require.Len(t, cols, 2)
	assert.Equal(t, domain.RoleDerived, cols[0].Role, "manual role survives re-sync")
	assert.Equal(t, domain.RoleTimestamp, cols[1].Role, "new column gets inferred role")

	assert.Len(t, store.Relationships(), 1)
	assert.Len(t, store.Terms(), 1)
}

func TestSyncer_Sync_SkipsTablesThatFailDescribe(t *testing.T) {
	provider := &fakeProvider{
		tables: map[string][]string{"bronze": {"raw_customers", "raw_orders"}},
		columns: map[string][]domain.SchemaColumn{
			"main.bronze.raw_orders": {{Name: "order_id", DataType: "bigint"}},
		},
		describeErr: map[string]error{
			"main.bronze.raw_customers": errors.New("permission denied"),
		},
	}
	store := NewStore(nil)
	syncer := newTestSyncer(t, store, provider)

	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Tables)
	assert.Equal(t, []string{"main.bronze.raw_customers"}, result.Skipped)

	_, err = store.GetTable("main.bronze.raw_customers")
	var nferr *domain.NotFoundError
	assert.ErrorAs(t, err, &nferr)
	_, err = store.GetTable("main.bronze.raw_orders")
	assert.NoError(t, err)
}

func TestSyncer_Sync_ListFailureAborts(t *testing.T) {
	provider := &fakeProvider{
		tables:  map[string][]string{"bronze": {"raw_customers"}},
		listErr: map[string]error{"silver": errors.New("warehouse offline")},
	}
	store := NewStore(nil)
	syncer := newTestSyncer(t, store, provider)

	_, err := syncer.Sync(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.Tables(), "failed sync must not leave partial state")
}
