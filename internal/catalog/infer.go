package catalog

import (
	"strings"

	"lakeagent/internal/domain"
)

// The classifiers below are explicit ordered rule tables. Ordering is
// semantically load-bearing: a name satisfying two rules takes the first
// listed, and reordering changes the classification of ambiguous names
// (product_id is a primary key because the identifier rule outranks the
// measure rule; order_count is a measure because nothing above claims it).

// tableTypeRules maps name prefixes to structural types. Dimension prefixes
// are checked before fact, fact before aggregate, aggregate before raw; the
// default when nothing matches is fact. Snapshot tables are never inferred;
// they are only assigned by explicit registration.
var tableTypeRules = []struct {
	prefixes  []string
	tableType domain.TableType
}{
	{[]string{"dim_", "dm_", "lookup_", "lkp_"}, domain.TableTypeDimension},
	{[]string{"fact_", "fct_", "txn_", "trans_"}, domain.TableTypeFact},
	{[]string{"agg_", "rollup_", "mart_"}, domain.TableTypeAggregate},
	{[]string{"raw_", "src_", "stg_", "staging_"}, domain.TableTypeRaw},
}

// domainRules maps business domains to name keywords. The first domain whose
// keyword occurs as a substring of the name wins; the default is "General".
var domainRules = []struct {
	domain   string
	keywords []string
}{
	{"Sales", []string{"sales", "sale", "order", "revenue"}},
	{"Customer", []string{"customer", "client", "cust"}},
	{"Product", []string{"product", "item", "sku"}},
	{"Finance", []string{"finance", "invoice", "payment", "ledger"}},
	{"Marketing", []string{"marketing", "campaign", "promo"}},
	{"Reference", []string{"region", "country", "currency", "lookup"}},
}

// measureKeywords mark a numeric column as a measure.
var measureKeywords = []string{"amount", "price", "quantity", "count", "total", "sum", "units", "value"}

// temporalKeywords mark a column name as time-bearing.
var temporalKeywords = []string{"date", "time", "timestamp", "created", "updated", "modified"}

// numericTypeMarkers identify numeric declared types across warehouse
// dialects.
var numericTypeMarkers = []string{"int", "bigint", "smallint", "tinyint", "decimal", "numeric", "double", "float", "real", "long", "number"}

// temporalTypeMarkers identify date/time declared types.
var temporalTypeMarkers = []string{"date", "time", "timestamp"}

// piiKeywords mark a column as personally identifying.
var piiKeywords = []string{"email", "phone", "ssn", "passport", "first_name", "last_name", "birth", "dob"}

// InferTableType classifies a table's structural type from its bare name.
func InferTableType(name string) domain.TableType {
	lower := strings.ToLower(name)
	for _, rule := range tableTypeRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(lower, prefix) {
				return rule.tableType
			}
		}
	}
	return domain.TableTypeFact
}

// InferDomain classifies a table's business domain from its bare name.
func InferDomain(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range domainRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.domain
			}
		}
	}
	return "General"
}

// InferColumnRole classifies a column's semantic role from its name and
// declared type. The rules run in strict priority order.
func InferColumnRole(name, dataType string) domain.ColumnRole {
	lowerName := strings.ToLower(name)
	lowerType := strings.ToLower(dataType)

	if strings.HasSuffix(lowerName, "_id") || strings.HasSuffix(lowerName, "_pk") {
		return domain.RolePrimaryKey
	}
	if strings.HasSuffix(lowerName, "_fk") {
		return domain.RoleForeignKey
	}
	if strings.HasSuffix(lowerName, "_code") || strings.HasSuffix(lowerName, "_key") {
		return domain.RoleIdentifier
	}
	if containsAny(lowerType, temporalTypeMarkers) || containsAny(lowerName, temporalKeywords) {
		return domain.RoleTimestamp
	}
	if containsAny(lowerType, numericTypeMarkers) && containsAny(lowerName, measureKeywords) {
		return domain.RoleMeasure
	}
	return domain.RoleAttribute
}

// InferSensitivity flags obviously personal columns; everything else is
// internal by default.
func InferSensitivity(name string) domain.Sensitivity {
	if containsAny(strings.ToLower(name), piiKeywords) {
		return domain.SensitivityPII
	}
	return domain.SensitivityInternal
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
