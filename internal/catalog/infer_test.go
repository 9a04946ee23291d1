package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lakeagent/internal/domain"
)

func TestInferTableType(t *testing.T) {
	cases := []struct {
		name string
		want domain.TableType
	}{
		{"dim_customers", domain.TableTypeDimension},
		{"DIM_REGIONS", domain.TableTypeDimension},
		{"lookup_currency", domain.TableTypeDimension},
		{"lkp_status", domain.TableTypeDimension},
		{"fact_sales", domain.TableTypeFact},
		{"txn_payments", domain.TableTypeFact},
		{"agg_daily_sales", domain.TableTypeAggregate},
		{"mart_finance", domain.TableTypeAggregate},
		{"rollup_orders", domain.TableTypeAggregate},
		{"raw_customers", domain.TableTypeRaw},
		{"stg_orders", domain.TableTypeRaw},
		{"staging_orders", domain.TableTypeRaw},
		{"orders", domain.TableTypeFact}, // no prefix matches
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferTableType(tc.name))
		})
	}
}

func TestInferDomain(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"orders", "Sales"},
		{"revenue_daily", "Sales"},
		{"dim_customers", "Customer"},
		{"raw_products", "Product"},
		{"invoice_lines", "Finance"},
		{"campaign_stats", "Marketing"},
		{"dim_regions", "Reference"},
		{"sessions", "General"},
		// "customer_orders" hits both Customer and Sales; the earlier
		// rule in the table wins.
		{"customer_orders", "Sales"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferDomain(tc.name))
		})
	}
}

func TestInferColumnRole(t *testing.T) {
	cases := []struct {
		column   string
		dataType string
		want     domain.ColumnRole
	}{
		{"order_id", "bigint", domain.RolePrimaryKey},
		{"customer_pk", "int", domain.RolePrimaryKey},
		{"region_fk", "int", domain.RoleForeignKey},
		{"state_code", "string", domain.RoleIdentifier},
		{"order_key", "string", domain.RoleIdentifier},
		{"created_at", "timestamp", domain.RoleTimestamp},
		{"last_updated", "string", domain.RoleTimestamp},
		{"expiry", "date", domain.RoleTimestamp},
		{"total_amount", "decimal(18,2)", domain.RoleMeasure},
		{"order_count", "bigint", domain.RoleMeasure},
		{"unit_price", "double", domain.RoleMeasure},
		{"amount_note", "string", domain.RoleAttribute}, // measure word, non-numeric type
		{"status", "string", domain.RoleAttribute},
		// Priority: the identifier suffixes outrank the measure rule.
		{"price_id", "decimal(10,2)", domain.RolePrimaryKey},
		{"count_key", "bigint", domain.RoleIdentifier},
	}
	for _, tc := range cases {
		t.Run(tc.column, func(t *testing.T) {
			assert.Equal(t, tc.want, InferColumnRole(tc.column, tc.dataType))
		})
	}
}

func TestInferSensitivity(t *testing.T) {
	assert.Equal(t, domain.SensitivityPII, InferSensitivity("email"))
	assert.Equal(t, domain.SensitivityPII, InferSensitivity("customer_phone"))
	assert.Equal(t, domain.SensitivityPII, InferSensitivity("first_name"))
	assert.Equal(t, domain.SensitivityPII, InferSensitivity("date_of_birth"))
	assert.Equal(t, domain.SensitivityInternal, InferSensitivity("order_total"))
}
